// Package xcode interprets and decodes XCODE bytecode: the small
// hardware-init program a 2BL runs before it can touch DRAM. It provides
// a single-pass Interpreter for execution-style consumers (the visor
// simulator replays mem_write xcodes, see pkg/x86sim) and a two-pass
// Decode plus Format that produce human-readable, INI-configurable
// disassembly.
package xcode

import (
	"encoding/binary"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// Size is the fixed size of one XCODE instruction: a 1-byte opcode
// followed by two 4-byte little-endian fields.
const Size = 9

// Opcode identifies an XCODE instruction.
type Opcode byte

const (
	Reserved  Opcode = 0x01
	MemRead   Opcode = 0x02
	MemWrite  Opcode = 0x03
	PciWrite  Opcode = 0x04
	PciRead   Opcode = 0x05
	AndOr     Opcode = 0x06
	UseResult Opcode = 0x07
	Jne       Opcode = 0x08
	Jmp       Opcode = 0x09
	Accum     Opcode = 0x10
	IoWrite   Opcode = 0x11
	IoRead    Opcode = 0x12
	Nop80     Opcode = 0x80
	Exit      Opcode = 0xEE
	NopF5     Opcode = 0xF5
)

// String names an opcode the way the decoder's default settings do.
func (o Opcode) String() string {
	switch o {
	case Reserved:
		return "xc_reserved"
	case MemRead:
		return "mem_read"
	case MemWrite:
		return "mem_write"
	case PciWrite:
		return "pci_write"
	case PciRead:
		return "pci_read"
	case AndOr:
		return "and_or"
	case UseResult:
		return "use_rslt"
	case Jne:
		return "jne"
	case Jmp:
		return "jmp"
	case Accum:
		return "accum"
	case IoWrite:
		return "io_write"
	case IoRead:
		return "io_read"
	case Exit:
		return "exit"
	case NopF5:
		return "nop_f5"
	case Nop80:
		return "nop_80"
	default:
		return "nop"
	}
}

// XCODE is one decoded instruction: an opcode plus its address and data
// operands.
type XCODE struct {
	Opcode Opcode
	Addr   uint32
	Data   uint32
}

// DecodeOne reads one XCODE from the front of buf.
func DecodeOne(buf []byte) (XCODE, error) {
	if len(buf) < Size {
		return XCODE{}, xberrors.New("xcode.DecodeOne", xberrors.InvalidData, "xcode data shorter than %d bytes", Size)
	}
	return XCODE{
		Opcode: Opcode(buf[0]),
		Addr:   binary.LittleEndian.Uint32(buf[1:5]),
		Data:   binary.LittleEndian.Uint32(buf[5:9]),
	}, nil
}

// Encode writes x as a 9-byte XCODE instruction.
func Encode(x XCODE) []byte {
	buf := make([]byte, Size)
	buf[0] = byte(x.Opcode)
	binary.LittleEndian.PutUint32(buf[1:5], x.Addr)
	binary.LittleEndian.PutUint32(buf[5:9], x.Data)
	return buf
}

// Status reports what happened on the most recent interpretNext call.
type Status int

const (
	StatusOK Status = iota
	StatusExit
	StatusError
)

// Interpreter walks a buffer of XCODE instructions one at a time. It is
// the execution-oriented counterpart to Decode: pkg/x86sim drives one to
// replay mem_write instructions into synthetic RAM.
type Interpreter struct {
	data   []byte
	offset uint32
	cur    XCODE
	status Status
}

// NewInterpreter loads data (a buffer of back-to-back XCODE instructions,
// such as a 2BL's init table body) for interpretation.
func NewInterpreter(data []byte) *Interpreter {
	return &Interpreter{data: data}
}

// Reset rewinds the interpreter to the first instruction.
func (in *Interpreter) Reset() {
	in.offset = 0
	in.status = StatusOK
	in.cur = XCODE{}
}

// InterpretNext decodes the next instruction and advances past it. It
// returns false once an exit opcode has been returned (inclusive) or the
// data is exhausted without one (an error, surfaced via Status).
func (in *Interpreter) InterpretNext() (XCODE, bool) {
	if in.status == StatusExit {
		return XCODE{}, false
	}
	if in.offset+Size > uint32(len(in.data)) {
		in.status = StatusError
		return XCODE{}, false
	}
	x, err := DecodeOne(in.data[in.offset:])
	if err != nil {
		in.status = StatusError
		return XCODE{}, false
	}
	in.cur = x
	if x.Opcode == Exit {
		in.status = StatusExit
	} else {
		in.status = StatusOK
	}
	in.offset += Size
	return x, true
}

// Offset returns the byte offset of the next undecoded instruction.
func (in *Interpreter) Offset() uint32 { return in.offset }

// Status reports the interpreter's current state.
func (in *Interpreter) Status() Status { return in.status }
