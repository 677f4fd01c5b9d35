// Package xcodesim implements "xbiostool xcode-sim": the "visor" trick of
// replaying an image's mem_write XCODEs into synthetic RAM and disassembling
// whatever shellcode they wrote there as x86.
package xcodesim

import (
	"fmt"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool xcode-sim -f IMAGE --base ADDR --size N".
type Command struct {
	ImagePath string `short:"f" long:"image" description:"path to a BIOS image" required:"true"`
	Base      uint32 `long:"base" description:"synthetic RAM base address the mem_write xcodes are anchored at" default:"0"`
	Size      uint32 `long:"size" description:"synthetic RAM size in bytes" default:"65536"`
	commands.KeyOpts
}

func (cmd *Command) ShortDescription() string {
	return "replay mem_write XCODEs into RAM and disassemble the result as x86"
}

func (cmd *Command) LongDescription() string {
	return "xcode-sim replays every mem_write XCODE in the image's init table into a synthetic " +
		"RAM buffer anchored at --base, then disassembles the buffer as x86 instructions: the " +
		"\"visor\" technique for recovering shellcode smuggled through hardware-init writes."
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("xcode-sim takes no positional arguments")}
	}

	b, err := commands.LoadImage(cmd.ImagePath, cmd.KeyOpts)
	if b == nil {
		return err
	}

	insns, err := b.SimulateX86(cmd.Base, cmd.Size)
	if err != nil {
		return err
	}
	for _, ins := range insns {
		fmt.Printf("%08x: %s\n", ins.Offset, ins.Text)
	}
	return nil
}
