// xbiostool inspects, decrypts, disassembles, and rebuilds Xbox BIOS
// images: the MCPX/preldr/2BL boot chain, its XCODE hardware-init program,
// and the LZX-compressed kernel.
//
// Synopsis:
//
//	xbiostool ls -f IMAGE
//	xbiostool extract -f IMAGE -o OUTDIR
//	xbiostool split -f IMAGE -r ROMSIZE -o PREFIX
//	xbiostool combine -o OUT BANK...
//	xbiostool build -o OUT --init INIT --bldr BLDR --krnl KRNL [--tail TAIL]
//	xbiostool xcode-decode -f IMAGE
//	xbiostool xcode-sim -f IMAGE --base ADDR --size N
//	xbiostool decomp-krnl -f IMAGE -o OUT [--find-key]
//	xbiostool patch-key -f IMAGE --modulus MOD -o OUT
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/build"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/combine"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/decompkrnl"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/extract"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/ls"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/patchkey"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/split"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/xcodedecode"
	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands/xcodesim"
)

var knownCommands = map[string]commands.Command{
	"ls":           &ls.Command{},
	"extract":      &extract.Command{},
	"split":        &split.Command{},
	"combine":      &combine.Command{},
	"build":        &build.Command{},
	"xcode-decode": &xcodedecode.Command{},
	"xcode-sim":    &xcodesim.Command{},
	"decomp-krnl":  &decompkrnl.Command{},
	"patch-key":    &patchkey.Command{},
}

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for name, cmd := range knownCommands {
		if _, err := flagsParser.AddCommand(name, cmd.ShortDescription(), cmd.LongDescription(), cmd); err != nil {
			panic(err)
		}
	}

	if _, err := flagsParser.Parse(); err != nil {
		log.Fatal(err)
	}
}
