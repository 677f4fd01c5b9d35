// Package patchkey implements "xbiostool patch-key": overwriting an
// image's embedded kernel public-key modulus, then recompressing and
// rebuilding the image.
package patchkey

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/bios"
	"github.com/xboxdev/xbiostool/pkg/pubkey"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool patch-key -f IMAGE --modulus MOD -o OUT".
type Command struct {
	ImagePath   string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	ModulusPath string `long:"modulus" description:"path to a raw 264-byte replacement RSA1 modulus" required:"true"`
	OutPath     string `short:"o" long:"out" description:"path to write the patched image to" required:"true"`
	Translate   bool   `long:"translate" description:"apply the E8 call-offset post-filter when recompressing"`
	commands.KeyOpts
}

func (cmd *Command) ShortDescription() string { return "patch an image's embedded kernel public key" }

func (cmd *Command) LongDescription() string {
	return "patch-key decompresses the kernel, overwrites the embedded RSA1 modulus, " +
		"recompresses it, and rebuilds the image with the new compressed kernel in place."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("patch-key takes no positional arguments")}
	}

	modulus, err := os.ReadFile(cmd.ModulusPath)
	if err != nil {
		return fmt.Errorf("reading --modulus: %w", err)
	}
	if len(modulus) != pubkey.ModulusSize {
		return commands.ErrArgs{Err: fmt.Errorf("--modulus must be exactly %d bytes, got %d", pubkey.ModulusSize, len(modulus))}
	}

	b, err := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return err
	}

	if _, err := b.DecompressKernel(); err != nil {
		return err
	}
	if err := b.PatchPublicKeyModulus(modulus); err != nil {
		return err
	}

	tailSize := len(b.KernelDataTail())
	compressed, tail, err := bios.RecompressKernel(b.DecompressedKernel(), tailSize, cmd.Translate)
	if err != nil {
		return err
	}

	rebuilt, err := bios.Build(bios.BuildParams{
		RomSize:          b.Size,
		InitTable:        b.FullInitTable(),
		Bldr:             b.BldrBlock(),
		CompressedKernel: compressed,
		KernelDataTail:   tail,
		HasPreldr:        b.HasPreldr(),
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(cmd.OutPath, rebuilt.Image(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cmd.OutPath, err)
	}
	fmt.Println(cmd.OutPath)
	return nil
}
