package bios

import (
	"github.com/xboxdev/xbiostool/pkg/x86sim"
	"github.com/xboxdev/xbiostool/pkg/xcode"
)

// DecodeXCodes disassembles the image's XCODE stream using s, labeling
// jump targets and attaching inline hardware comments.
func (b *Bios) DecodeXCodes(s xcode.Settings) ([]string, error) {
	lines, err := xcode.Decode(b.InitTableXCodes(), InitTblHdrSize)
	if err != nil {
		return nil, err
	}
	return xcode.Format(lines, s), nil
}

// SimulateX86 replays the image's mem_write XCODEs into a synthetic RAM
// buffer of size bytes anchored at base, then disassembles the result as
// x86 (the "visor" trick used to reveal shellcode smuggled through the
// init table).
func (b *Bios) SimulateX86(base, size uint32) ([]x86sim.Instruction, error) {
	ram, err := x86sim.Replay(b.InitTableXCodes(), base, size)
	if err != nil {
		return nil, err
	}
	return x86sim.Disassemble(ram)
}

// EncodeXcodesFromX86 packs data into a run of mem_write XCODEs (plus a
// trailing exit) anchored at base — the structural dual of SimulateX86,
// used to turn a patched RAM image back into an init table body.
func (b *Bios) EncodeXcodesFromX86(data []byte, base uint32) []byte {
	return x86sim.EncodeXcodesFromX86(data, base)
}
