package xcode

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// Settings controls how Format renders each disassembled line. The
// defaults match the original tool's built-in template; an INI file can
// override any field, including giving an opcode a project-specific
// mnemonic.
type Settings struct {
	FormatStr       string // e.g. "{offset}: {op} {addr} {data} {comment}"; a line's label is prepended, not a token
	JmpStr          string // address-field text used for jmp's target label
	NoOperandStr    string // text used where an opcode has no addr/data
	NumFmt          string // printf verb for numeric fields, e.g. "%x"
	CommentPrefix   string
	LabelOnNewLine  bool
	Pad             bool
	OpcodeUseResult bool // use_result's addr prints as the mnemonic of the opcode it names

	OpcodeNames map[Opcode]string
}

// DefaultSettings mirrors the original tool's compiled-in defaults.
func DefaultSettings() Settings {
	names := make(map[Opcode]string, 15)
	for _, o := range []Opcode{Reserved, MemRead, MemWrite, PciWrite, PciRead, AndOr, UseResult, Jne, Jmp, Accum, IoWrite, IoRead, NopF5, Exit, Nop80} {
		names[o] = o.String()
	}
	return Settings{
		FormatStr:      "{offset}: {op} {addr} {data} {comment}",
		JmpStr:         "%s:",
		NoOperandStr:   "",
		NumFmt:         "0x%X",
		CommentPrefix:  "; ",
		LabelOnNewLine: false,
		Pad:            true,
		OpcodeNames:    names,
	}
}

// LoadSettingsINI merges overrides from an INI file (as produced by
// gopkg.in/ini.v1) onto the defaults. Recognized keys: format_str,
// jmp_str, no_operand_str, num_str, comment_prefix, label_on_new_line,
// pad, opcode_use_result, and one key per opcode, named by its default
// mnemonic (mem_read, mem_write, pci_write, pci_read, and_or, use_rslt,
// jne, jmp, accum, io_write, io_read, nop_f5, exit, nop_80, xc_reserved).
// xc_-prefixed spellings of the other opcodes (xc_mem_write, ...) are
// not recognized.
func LoadSettingsINI(path string) (Settings, error) {
	const op = "xcode.LoadSettingsINI"
	s := DefaultSettings()

	f, err := ini.Load(path)
	if err != nil {
		return s, xberrors.Wrap(op, xberrors.IoError, err)
	}
	sec := f.Section("")

	str := func(key string, dst *string) {
		if sec.HasKey(key) {
			*dst = sec.Key(key).String()
		}
	}
	str("format_str", &s.FormatStr)
	str("jmp_str", &s.JmpStr)
	str("no_operand_str", &s.NoOperandStr)
	str("num_str", &s.NumFmt)
	str("comment_prefix", &s.CommentPrefix)

	if sec.HasKey("label_on_new_line") {
		s.LabelOnNewLine, _ = sec.Key("label_on_new_line").Bool()
	}
	if sec.HasKey("pad") {
		s.Pad, _ = sec.Key("pad").Bool()
	}
	if sec.HasKey("opcode_use_result") {
		s.OpcodeUseResult, _ = sec.Key("opcode_use_result").Bool()
	}

	for o, name := range s.OpcodeNames {
		if sec.HasKey(name) {
			s.OpcodeNames[o] = sec.Key(name).String()
		}
	}

	return s, nil
}

func (s Settings) formatNum(v uint32) string {
	return fmt.Sprintf(s.NumFmt, v)
}
