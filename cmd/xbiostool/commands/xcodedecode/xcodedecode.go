// Package xcodedecode implements "xbiostool xcode-decode": disassembling
// an image's init-table XCODE stream.
package xcodedecode

import (
	"fmt"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/xcode"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool xcode-decode -f IMAGE [--settings INI]".
type Command struct {
	ImagePath    string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	SettingsPath string `long:"settings" description:"path to an INI file overriding the default disassembly formatting"`
	commands.KeyOpts
}

func (cmd *Command) ShortDescription() string { return "disassemble an image's XCODE stream" }

func (cmd *Command) LongDescription() string {
	return "xcode-decode prints one line per XCODE instruction in the image's init table, " +
		"with jump targets resolved to synthetic labels."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("xcode-decode takes no positional arguments")}
	}

	b, err := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return err
	}

	settings := xcode.DefaultSettings()
	if cmd.SettingsPath != "" {
		settings, err = xcode.LoadSettingsINI(cmd.SettingsPath)
		if err != nil {
			return err
		}
	}

	lines, err := b.DecodeXCodes(settings)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}
