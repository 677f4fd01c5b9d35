package xcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func program(xcodes ...XCODE) []byte {
	var buf []byte
	for _, x := range xcodes {
		buf = append(buf, Encode(x)...)
	}
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	x := XCODE{Opcode: IoWrite, Addr: 0xC000, Data: 0x10}
	got, err := DecodeOne(Encode(x))
	require.NoError(t, err)
	require.Equal(t, x, got)
}

func TestInterpreterStopsAtExit(t *testing.T) {
	data := program(
		XCODE{Opcode: IoRead, Addr: smbBase, Data: 0},
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
		XCODE{Opcode: IoWrite, Addr: 0x1234, Data: 1}, // unreachable
	)
	in := NewInterpreter(data)
	var seen []Opcode
	for {
		x, ok := in.InterpretNext()
		if !ok {
			break
		}
		seen = append(seen, x.Opcode)
	}
	require.Equal(t, StatusExit, in.Status())
	require.Equal(t, []Opcode{IoRead, Exit}, seen)
}

func TestInterpreterErrorsWithoutExit(t *testing.T) {
	data := program(XCODE{Opcode: IoRead, Addr: 1, Data: 0})
	in := NewInterpreter(data)
	for {
		_, ok := in.InterpretNext()
		if !ok {
			break
		}
	}
	require.Equal(t, StatusError, in.Status())
}

func TestDecodeAssignsBackwardJumpLabel(t *testing.T) {
	// jne back to offset 0 (a spin loop), then exit.
	data := program(
		XCODE{Opcode: Jne, Addr: 0x10, Data: 0xFFFFFFF7}, // -Size: target = 0 + Size - Size = offset 0
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, "lb_00", lines[0].Label)
	require.Equal(t, uint32(0), lines[0].LocalOffset)
}

func TestFormatProducesOnePerLine(t *testing.T) {
	data := program(
		XCODE{Opcode: IoRead, Addr: smbBase, Data: 0},
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0x100)
	require.NoError(t, err)
	out := Format(lines, DefaultSettings())
	require.Len(t, out, 2)
	require.Contains(t, out[0], "smbus read status")
	require.Contains(t, out[1], "quit xcodes")
}

func TestLoadSettingsINIOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.ini")
	body := "format_str = {op} {addr}\nnum_str = %08X\nio_read = read_io\npad = false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := LoadSettingsINI(path)
	require.NoError(t, err)
	require.Equal(t, "{op} {addr}", s.FormatStr)
	require.Equal(t, "%08X", s.NumFmt)
	require.Equal(t, "read_io", s.OpcodeNames[IoRead])
	require.False(t, s.Pad)
	require.Equal(t, DefaultSettings().JmpStr, s.JmpStr)
}

func TestLoadSettingsINIMissingFileErrors(t *testing.T) {
	_, err := LoadSettingsINI(filepath.Join(t.TempDir(), "absent.ini"))
	require.Error(t, err)
}

func TestFormatCustomFormatStrDropsColumns(t *testing.T) {
	data := program(
		XCODE{Opcode: IoWrite, Addr: 0xC000, Data: 0x10},
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0x100)
	require.NoError(t, err)

	s := DefaultSettings()
	s.Pad = false
	s.FormatStr = "{op} {addr} {data}"
	out := Format(lines, s)
	require.Equal(t, "io_write 0xC000 0x10", out[0])
	require.NotContains(t, out[0], "0100")          // offset column dropped
	require.NotContains(t, out[0], s.CommentPrefix) // comment column dropped
}

func TestFormatJmpStrAndOpcodeNameOverride(t *testing.T) {
	data := program(
		XCODE{Opcode: Jmp, Addr: 0, Data: 0xFFFFFFF7}, // jumps back to offset 0
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0)
	require.NoError(t, err)
	require.Equal(t, "lb_00", lines[0].Label)

	s := DefaultSettings()
	s.Pad = false
	s.FormatStr = "{op} {addr}"
	s.JmpStr = "goto(%s)"
	s.OpcodeNames[Jmp] = "branch"
	out := Format(lines, s)
	require.Equal(t, "lb_00:branch goto(lb_00)", out[0])
}

func TestFormatOpcodeUseResultPrintsReferencedOpcode(t *testing.T) {
	data := program(
		XCODE{Opcode: UseResult, Addr: uint32(IoRead), Data: 0},
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0)
	require.NoError(t, err)

	s := DefaultSettings()
	s.Pad = false
	s.FormatStr = "{op} {addr}"

	withoutFlag := Format(lines, s)
	require.Equal(t, "use_rslt 0x12", withoutFlag[0])

	s.OpcodeUseResult = true
	withFlag := Format(lines, s)
	require.Equal(t, "use_rslt io_read", withFlag[0])
}

func TestFormatLabelOnNewLine(t *testing.T) {
	data := program(
		XCODE{Opcode: Jne, Addr: 0x10, Data: 0xFFFFFFF7},
		XCODE{Opcode: Exit, Addr: 0x806, Data: 0},
	)
	lines, err := Decode(data, 0)
	require.NoError(t, err)

	s := DefaultSettings()
	s.Pad = false
	s.FormatStr = "{op}"
	s.LabelOnNewLine = true
	out := Format(lines, s)
	require.Equal(t, "lb_00:\n\tjne", out[0])
}
