// Package x86sim implements the "visor" sub-interpreter: it replays a
// 2BL's mem_write XCODEs into a small synthetic RAM image and then
// disassembles the result as 32-bit x86, the way the original tool's
// visor-attack detector does to reveal shellcode smuggled through the
// init table. It also provides the inverse transform, packing raw x86
// bytes back into a sequence of mem_write XCODEs.
package x86sim

import (
	"encoding/binary"
	"fmt"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
	"github.com/xboxdev/xbiostool/pkg/xcode"
)

// maxInstrSize is the length of the zero run that ends the
// disassembler's walk. It is not the widest instruction: a far jmp is
// 7 bytes.
const maxInstrSize = 6

// Replay executes every mem_write XCODE in data against a synthetic RAM
// image anchored at base, and returns the bytes written, addressed
// relative to base. Every other opcode is ignored; Replay stops at the
// first exit opcode or malformed instruction.
func Replay(data []byte, base uint32, size uint32) ([]byte, error) {
	const op = "x86sim.Replay"
	ram := make([]byte, size)

	in := xcode.NewInterpreter(data)
	for {
		x, ok := in.InterpretNext()
		if !ok {
			break
		}
		if x.Opcode != xcode.MemWrite {
			continue
		}
		if x.Addr < base {
			continue
		}
		off := x.Addr - base
		if off+4 > size {
			continue
		}
		binary.LittleEndian.PutUint32(ram[off:], x.Data)
	}
	if in.Status() == xcode.StatusError {
		return nil, xberrors.New(op, xberrors.InvalidData, "xcode stream ended without an exit opcode")
	}
	return ram, nil
}

// instrType classifies how an opcode's operand bytes are laid out.
type instrType int

const (
	typeOp instrType = iota
	typeOpNum
	typeOpPtr
	typeJmpFar
)

type instrDef struct {
	opcodeBytes []byte
	mnemonic    string
	typ         instrType
}

// instrTable is the disassembler's opcode set, ported from the visor's
// own x86 decoder: a couple of register loads, the indirect-jump forms a
// jumped-to payload returns through, and the two instructions (rep movsd,
// cld) real visor payloads use to copy themselves.
var instrTable = []instrDef{
	{[]byte{0x8B, 0x1D}, "mov ebx", typeOpPtr},
	{[]byte{0x8B, 0x0D}, "mov ecx", typeOpPtr},
	{[]byte{0x8B, 0x15}, "mov edx", typeOpPtr},

	{[]byte{0xFF, 0xE0}, "jmp eax", typeOp},
	{[]byte{0xFF, 0xE1}, "jmp ecx", typeOp},
	{[]byte{0xFF, 0xE2}, "jmp edx", typeOp},
	{[]byte{0xFF, 0xE3}, "jmp ebx", typeOp},
	{[]byte{0xFF, 0xE4}, "jmp esp", typeOp},
	{[]byte{0xFF, 0xE5}, "jmp ebp", typeOp},
	{[]byte{0xFF, 0xE6}, "jmp esi", typeOp},
	{[]byte{0xFF, 0xE7}, "jmp edi", typeOp},

	{[]byte{0xF3, 0xA5}, "rep movsd", typeOp},

	{[]byte{0xB8}, "mov eax", typeOpNum},
	{[]byte{0xB9}, "mov ecx", typeOpNum},
	{[]byte{0xBA}, "mov edx", typeOpNum},
	{[]byte{0xBB}, "mov ebx", typeOpNum},
	{[]byte{0xBC}, "mov esp", typeOpNum},
	{[]byte{0xBD}, "mov ebp", typeOpNum},
	{[]byte{0xBE}, "mov esi", typeOpNum},
	{[]byte{0xBF}, "mov edi", typeOpNum},
	{[]byte{0xA1}, "mov eax", typeOpPtr},

	{[]byte{0xEA}, "jmp far", typeJmpFar},
	{[]byte{0x90}, "nop", typeOp},
	{[]byte{0xFC}, "cld", typeOp},
}

// Instruction is one disassembled x86 instruction.
type Instruction struct {
	Offset uint32
	Text   string
	Length uint32
}

// Disassemble walks data as a stream of 32-bit x86 instructions drawn
// from instrTable, stopping at the first run of maxInstrSize zero bytes
// (the visor payload's padding) or an unrecognized opcode.
func Disassemble(data []byte) ([]Instruction, error) {
	const op = "x86sim.Disassemble"
	var out []Instruction
	i := uint32(0)
	size := uint32(len(data))

	for i < size {
		remain := size - i
		checkLen := uint32(maxInstrSize)
		if remain < checkLen {
			checkLen = remain
		}
		if isZero(data[i : i+checkLen]) {
			break
		}

		def := matchInstr(data[i:])
		if def == nil {
			return out, xberrors.New(op, xberrors.InvalidData, "unknown x86 instruction at offset %04x (byte %02x)", i, data[i])
		}
		if remain < instrLen(def) {
			return out, xberrors.New(op, xberrors.InvalidData, "truncated instruction at offset %04x", i)
		}

		text, length := formatInstr(def, data, i)
		out = append(out, Instruction{Offset: i, Text: text, Length: length})
		i += length
	}
	return out, nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func matchInstr(data []byte) *instrDef {
	for i := range instrTable {
		def := &instrTable[i]
		if len(data) < len(def.opcodeBytes) {
			continue
		}
		match := true
		for j, b := range def.opcodeBytes {
			if data[j] != b {
				match = false
				break
			}
		}
		if match {
			return def
		}
	}
	return nil
}

// instrLen reports the total encoded length (opcode plus operand bytes)
// formatInstr will read for def, so callers can bounds-check before
// slicing into the operand.
func instrLen(def *instrDef) uint32 {
	opLen := uint32(len(def.opcodeBytes))
	switch def.typ {
	case typeOpPtr, typeOpNum:
		return opLen + 4
	case typeJmpFar:
		return opLen + 4 + 2
	default:
		return opLen
	}
}

func formatInstr(def *instrDef, data []byte, offset uint32) (string, uint32) {
	opLen := uint32(len(def.opcodeBytes))
	switch def.typ {
	case typeOp:
		return def.mnemonic, opLen
	case typeOpPtr:
		v := binary.LittleEndian.Uint32(data[offset+opLen:])
		return fmt.Sprintf("%s, [0x%08x]", def.mnemonic, v), opLen + 4
	case typeOpNum:
		v := binary.LittleEndian.Uint32(data[offset+opLen:])
		return fmt.Sprintf("%s, 0x%08x", def.mnemonic, v), opLen + 4
	case typeJmpFar:
		v := binary.LittleEndian.Uint32(data[offset+opLen:])
		seg := binary.LittleEndian.Uint16(data[offset+5:])
		return fmt.Sprintf("%s, 0x%08x 0x%x", def.mnemonic, v, seg), opLen + 4 + 2
	}
	return "", opLen
}

// EncodeXcodesFromX86 packs raw x86 bytes into a sequence of mem_write
// XCODEs that, when replayed by Replay with the same base, reconstructs
// data, followed by a single exit XCODE. Non-multiple-of-4 tails are
// zero-padded in the final word.
func EncodeXcodesFromX86(data []byte, base uint32) []byte {
	var out []byte
	addr := base
	for i := 0; i < len(data); i += 4 {
		end := i + 4
		var word uint32
		if end <= len(data) {
			word = binary.LittleEndian.Uint32(data[i:end])
		} else {
			var tail [4]byte
			copy(tail[:], data[i:])
			word = binary.LittleEndian.Uint32(tail[:])
		}
		out = append(out, xcode.Encode(xcode.XCODE{Opcode: xcode.MemWrite, Addr: addr, Data: word})...)
		addr += 4
	}
	out = append(out, xcode.Encode(xcode.XCODE{Opcode: xcode.Exit, Addr: 0x806, Data: 0})...)
	return out
}
