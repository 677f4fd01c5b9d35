// Package decompkrnl implements "xbiostool decomp-krnl": LZX-decompressing
// an image's kernel and locating its embedded public key.
package decompkrnl

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool decomp-krnl -f IMAGE -o OUT".
type Command struct {
	ImagePath string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	OutPath   string `short:"o" long:"out" description:"path to write the decompressed kernel to"`
	FindKey   bool   `long:"find-key" description:"scan the decompressed kernel for its RSA1 public key and print its offset"`
	commands.KeyOpts
}

func (cmd *Command) ShortDescription() string { return "decompress an image's LZX kernel" }

func (cmd *Command) LongDescription() string {
	return "decomp-krnl LZX-decompresses the image's kernel, appends its uncompressed data tail, " +
		"and optionally writes the result or reports the embedded public key's offset."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("decomp-krnl takes no positional arguments")}
	}

	b, err := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return err
	}

	krnl, err := b.DecompressKernel()
	if err != nil {
		return err
	}

	if cmd.OutPath != "" {
		if err := os.WriteFile(cmd.OutPath, krnl, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cmd.OutPath, err)
		}
		fmt.Println(cmd.OutPath)
	}

	if cmd.FindKey {
		key, offset, err := b.FindPublicKey()
		if err != nil {
			return err
		}
		fmt.Printf("public key at offset 0x%x, modulus bits %d\n", offset, key.Header.Bits)
	}

	return nil
}
