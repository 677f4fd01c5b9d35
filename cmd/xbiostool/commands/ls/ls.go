// Package ls implements "xbiostool ls": a summary dump of an image's
// derived layout.
package ls

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool ls -f IMAGE [keys...]".
type Command struct {
	ImagePath string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	commands.KeyOpts
	JSON bool `long:"table" description:"render as a go-pretty table instead of the plain summary"`
}

func (cmd *Command) ShortDescription() string {
	return "print a loaded image's derived layout"
}

func (cmd *Command) LongDescription() string {
	return "ls loads an image, resolves its boot chain offsets, and prints what it found: " +
		"sizes, the MCPX/preldr/2BL/kernel decrypt state, and whether the boot signature is valid."
}

// Execute loads the image and prints a summary. A boot-params validation
// failure is reported but does not stop ls from printing what it found.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("ls takes no positional arguments")}
	}

	b, loadErr := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return loadErr
	}

	if cmd.JSON {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Field", "Value"})
		bp := b.BootParams()
		t.AppendRow(table.Row{"size", b.Size})
		t.AppendRow(table.Row{"has preldr", b.HasPreldr()})
		t.AppendRow(table.Row{"init table size", bp.InitTblSize()})
		t.AppendRow(table.Row{"compressed kernel size", bp.CompressedKernelSize()})
		t.AppendRow(table.Row{"kernel data tail size", bp.UncompressedKernelDataSize()})
		t.AppendRow(table.Row{"boot signature valid", bp.Signature() == 0x7854794A})
		t.AppendRow(table.Row{"2bl decrypted", b.BldrDecrypted})
		t.AppendRow(table.Row{"kernel decrypted", b.KrnlDecrypted})
		t.SetOutputMirror(os.Stdout)
		t.Render()
	} else {
		fmt.Print(b.String())
	}

	if loadErr != nil && xberrors.KindOf(loadErr) == xberrors.InvalidBldr {
		fmt.Fprintf(os.Stderr, "warning: %v\n", loadErr)
		return nil
	}
	return loadErr
}
