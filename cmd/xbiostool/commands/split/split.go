// Package split implements "xbiostool split": slicing an over-sized image
// into equally-sized ROM banks.
package split

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/bios"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool split -f IMAGE -r ROMSIZE -o OUTPREFIX".
type Command struct {
	ImagePath string `short:"f" long:"image" description:"path to the over-sized image" required:"true"`
	RomSize   int    `short:"r" long:"romsize" description:"size of each bank in bytes" required:"true"`
	OutPrefix string `short:"o" long:"out" description:"output prefix; banks are written as PREFIX.0, PREFIX.1, ..." required:"true"`
}

func (cmd *Command) ShortDescription() string { return "split an image into equal ROM banks" }

func (cmd *Command) LongDescription() string {
	return "split divides an image whose size is a multiple of --romsize into 2 or 4 equally-sized banks."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("split takes no positional arguments")}
	}

	buf, err := os.ReadFile(cmd.ImagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	banks, err := bios.Split(buf, cmd.RomSize)
	if err != nil {
		return err
	}

	for i, bank := range banks {
		name := fmt.Sprintf("%s.%d", cmd.OutPrefix, i)
		if err := os.WriteFile(name, bank, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Println(name)
	}
	return nil
}
