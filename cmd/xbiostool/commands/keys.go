package commands

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/pkg/bios"
)

// KeyOpts carries the command-line flags common to every verb that loads an
// image: explicit keys and MCPX dumps, all optional.
type KeyOpts struct {
	KeyBldr string `long:"key-bldr" description:"path to a raw 16-byte 2BL RC4 key"`
	KeyKrnl string `long:"key-krnl" description:"path to a raw 16-byte kernel RC4 key"`
	Mcpx0   string `long:"mcpx0" description:"path to a 512-byte MCPX rev 0 ROM dump"`
	Mcpx1   string `long:"mcpx1" description:"path to a 512-byte MCPX rev 1 ROM dump"`
}

// LoadParams reads whichever of the optional key/MCPX files were set into a
// bios.LoadParams. A missing path is simply left as a nil field.
func (o KeyOpts) LoadParams() (bios.LoadParams, error) {
	var p bios.LoadParams
	var err error
	if o.KeyBldr != "" {
		if p.KeyBldr, err = os.ReadFile(o.KeyBldr); err != nil {
			return p, fmt.Errorf("reading --key-bldr: %w", err)
		}
	}
	if o.KeyKrnl != "" {
		if p.KeyKrnl, err = os.ReadFile(o.KeyKrnl); err != nil {
			return p, fmt.Errorf("reading --key-krnl: %w", err)
		}
	}
	if o.Mcpx0 != "" {
		if p.Mcpx0, err = os.ReadFile(o.Mcpx0); err != nil {
			return p, fmt.Errorf("reading --mcpx0: %w", err)
		}
	}
	if o.Mcpx1 != "" {
		if p.Mcpx1, err = os.ReadFile(o.Mcpx1); err != nil {
			return p, fmt.Errorf("reading --mcpx1: %w", err)
		}
	}
	return p, nil
}

// LoadImage reads path and loads it as a bios.Bios using o's key material.
func LoadImage(path string, o KeyOpts) (*bios.Bios, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image %q: %w", path, err)
	}
	params, err := o.LoadParams()
	if err != nil {
		return nil, err
	}
	return bios.Load(buf, params)
}
