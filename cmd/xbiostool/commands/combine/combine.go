// Package combine implements "xbiostool combine": concatenating ROM banks
// back into a single image.
package combine

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/bios"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool combine -o OUT BANK...".
type Command struct {
	OutPath string `short:"o" long:"out" description:"path to write the combined image to" required:"true"`
}

func (cmd *Command) ShortDescription() string { return "combine ROM banks into a single image" }

func (cmd *Command) LongDescription() string {
	return "combine concatenates 2 to 4 equally-sized bank files, given as positional arguments, " +
		"in the order given, into one image whose total size must be a legal whole-image size."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) < 2 {
		return commands.ErrArgs{Err: fmt.Errorf("combine takes 2 to 4 bank file paths")}
	}

	banks := make([][]byte, 0, len(args))
	for _, path := range args {
		buf, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		banks = append(banks, buf)
	}

	combined, err := bios.Combine(banks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.OutPath, combined, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cmd.OutPath, err)
	}
	fmt.Println(cmd.OutPath)
	return nil
}
