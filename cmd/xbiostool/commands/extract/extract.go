// Package extract implements "xbiostool extract": dumping an image's
// boot-chain components to individual files.
package extract

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool extract -f IMAGE -o OUTDIR".
type Command struct {
	ImagePath string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	OutDir    string `short:"o" long:"outdir" description:"directory to write extracted components into" required:"true"`
	Decompress bool  `long:"decompress" description:"also write the LZX-decompressed kernel"`
	commands.KeyOpts
}

func (cmd *Command) ShortDescription() string {
	return "extract an image's boot-chain components to files"
}

func (cmd *Command) LongDescription() string {
	return "extract writes init_table.bin, bldr_block.bin, kernel.lzx, kernel_tail.bin " +
		"(and, with --decompress, kernel.bin) into the output directory."
}

// Execute loads the image and writes its components into cmd.OutDir.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("extract takes no positional arguments")}
	}

	b, err := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return err
	}

	if mkErr := os.MkdirAll(cmd.OutDir, 0o755); mkErr != nil {
		return fmt.Errorf("creating outdir: %w", mkErr)
	}

	writes := []struct {
		name string
		data []byte
	}{
		{"init_table.bin", b.FullInitTable()},
		{"bldr_block.bin", b.BldrBlock()},
		{"kernel.lzx", b.CompressedKernel()},
		{"kernel_tail.bin", b.KernelDataTail()},
	}
	for _, w := range writes {
		if writeErr := os.WriteFile(cmd.OutDir+"/"+w.name, w.data, 0o644); writeErr != nil {
			return fmt.Errorf("writing %s: %w", w.name, writeErr)
		}
	}

	if cmd.Decompress {
		krnl, decErr := b.DecompressKernel()
		if decErr != nil {
			return fmt.Errorf("decompressing kernel: %w", decErr)
		}
		if writeErr := os.WriteFile(cmd.OutDir+"/kernel.bin", krnl, 0o644); writeErr != nil {
			return fmt.Errorf("writing kernel.bin: %w", writeErr)
		}
	}

	fmt.Printf("extracted to %s\n", cmd.OutDir)
	return err
}
