package x86sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayAndDisassemble(t *testing.T) {
	payload := []byte{
		0xB8, 0x00, 0x10, 0x00, 0x00, // mov eax, 0x00001000
		0xFC,                   // cld
		0xF3, 0xA5,              // rep movsd
		0xFF, 0xE0,              // jmp eax
	}

	xcodes := EncodeXcodesFromX86(payload, 0x1000)
	ram, err := Replay(xcodes, 0x1000, uint32(len(payload)+16))
	require.NoError(t, err)
	require.Equal(t, payload, ram[:len(payload)])

	instrs, err := Disassemble(ram[:len(payload)])
	require.NoError(t, err)
	require.Len(t, instrs, 4)
	require.Equal(t, "mov eax, 0x00001000", instrs[0].Text)
	require.Equal(t, "cld", instrs[1].Text)
	require.Equal(t, "rep movsd", instrs[2].Text)
	require.Equal(t, "jmp eax", instrs[3].Text)
}

func TestDisassembleStopsAtZeroPadding(t *testing.T) {
	data := make([]byte, 32)
	data[0] = 0x90 // nop
	instrs, err := Disassemble(data)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	require.Equal(t, "nop", instrs[0].Text)
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	data := []byte{0xCC, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	_, err := Disassemble(data)
	require.Error(t, err)
}

func TestReplayErrorsWithoutExit(t *testing.T) {
	bad := make([]byte, 3) // shorter than one XCODE
	_, err := Replay(bad, 0, 16)
	require.Error(t, err)
}
