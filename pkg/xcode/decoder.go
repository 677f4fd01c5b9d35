package xcode

import (
	"fmt"
	"strings"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// Line is one disassembled XCODE instruction, ready for display or
// further inspection.
type Line struct {
	Offset      uint32 // display offset: LocalOffset + the stream's baseOffset
	LocalOffset uint32 // offset within the raw xcode byte stream
	Label       string // "" if this offset is not a jump target
	Opcode      XCODE
	Comment     string
}

// label remembers the synthetic name assigned to a jump target, in the
// order they were first encountered (matching the original tool's
// lb_00, lb_01, ... numbering).
type label struct {
	offset uint32
	name   string
}

// Decode performs the two-pass disassembly: a first pass walks every
// instruction to discover jmp/jne targets and assign them label names,
// then a second pass emits one Line per instruction with labels and jump
// targets resolved. baseOffset is added to every reported Offset (the
// xcode data's position within its containing image, e.g. past an init
// table header).
func Decode(data []byte, baseOffset uint32) ([]Line, error) {
	const op = "xcode.Decode"

	labels, err := findLabels(data)
	if err != nil {
		return nil, xberrors.Wrap(op, xberrors.InvalidData, err)
	}

	var lines []Line
	in := NewInterpreter(data)
	for {
		instrOffset := in.Offset()
		x, ok := in.InterpretNext()
		if !ok {
			break
		}

		target := instrOffset + Size + x.Data
		line := Line{
			Offset:      baseOffset + instrOffset,
			LocalOffset: instrOffset,
			Opcode:      x,
			Comment:     commentFor(x),
		}
		for _, l := range labels {
			if l.offset == instrOffset {
				line.Label = l.name
				break
			}
		}
		if x.Opcode == Jmp || x.Opcode == Jne {
			line.Opcode.Data = target // resolved to an absolute xcode-stream offset
		}
		lines = append(lines, line)
	}
	if in.Status() == StatusError {
		return nil, xberrors.New(op, xberrors.InvalidData, "exit opcode not found before end of xcode data")
	}
	return lines, nil
}

func findLabels(data []byte) ([]label, error) {
	var labels []label
	in := NewInterpreter(data)
	for {
		instrOffset := in.Offset()
		x, ok := in.InterpretNext()
		if !ok {
			break
		}
		if x.Opcode != Jmp && x.Opcode != Jne {
			continue
		}
		target := instrOffset + Size + x.Data
		found := false
		for _, l := range labels {
			if l.offset == target {
				found = true
				break
			}
		}
		if !found {
			labels = append(labels, label{offset: target, name: fmt.Sprintf("lb_%02d", len(labels))})
		}
	}
	if in.Status() == StatusError {
		return nil, xberrors.New("xcode.findLabels", xberrors.InvalidData, "exit opcode not found before end of xcode data")
	}
	return labels, nil
}

// Format renders lines using s, one string per Line.
func Format(lines []Line, s Settings) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, formatLine(l, lines, s))
	}
	return out
}

func formatLine(l Line, all []Line, s Settings) string {
	labelCol := ""
	if l.Label != "" {
		labelCol = l.Label + ":"
	}
	if s.LabelOnNewLine {
		if labelCol != "" {
			labelCol += "\n"
		}
		labelCol += "\t"
	} else if s.Pad {
		labelCol = pad(labelCol, 11)
	}

	opStr := s.OpcodeNames[l.Opcode.Opcode]
	if opStr == "" {
		opStr = fmt.Sprintf("nop_%X", byte(l.Opcode.Opcode))
	}
	if s.Pad {
		opStr = pad(opStr, 11)
	}

	addrStr := addrField(l, all, s)
	if s.Pad {
		addrStr = pad(addrStr, 11)
	}

	dataStr := dataField(l, all, s)
	if s.Pad {
		dataStr = pad(dataStr, 11)
	}

	commentStr := ""
	if l.Comment != "" {
		commentStr = s.CommentPrefix + l.Comment
	}

	body := strings.NewReplacer(
		"{offset}", fmt.Sprintf("%04x", l.Offset),
		"{op}", opStr,
		"{addr}", addrStr,
		"{data}", dataStr,
		"{comment}", commentStr,
	).Replace(s.FormatStr)
	return labelCol + body
}

// addrField renders the address column. jmp's target is resolved through
// s.JmpStr rather than the numeric form; use_result's operand is printed as
// the referenced opcode's mnemonic when s.OpcodeUseResult is set, since it
// names an opcode rather than an address.
func addrField(l Line, all []Line, s Settings) string {
	switch l.Opcode.Opcode {
	case Jmp:
		if name, ok := labelTarget(all, l.Opcode.Data); ok {
			return fmt.Sprintf(s.JmpStr, name)
		}
		return s.formatNum(l.Opcode.Data)
	case UseResult:
		if s.OpcodeUseResult {
			if name := s.OpcodeNames[Opcode(byte(l.Opcode.Addr))]; name != "" {
				return name
			}
		}
		return s.formatNum(l.Opcode.Addr)
	default:
		return s.formatNum(l.Opcode.Addr)
	}
}

// dataField renders the data column, resolving jne's target through
// s.JmpStr the same way addrField does for jmp.
func dataField(l Line, all []Line, s Settings) string {
	switch l.Opcode.Opcode {
	case MemRead, IoRead, PciRead, Exit:
		return s.NoOperandStr
	case Jne:
		if name, ok := labelTarget(all, l.Opcode.Data); ok {
			return fmt.Sprintf(s.JmpStr, name)
		}
		return s.formatNum(l.Opcode.Data)
	case Jmp:
		// jmp's target is rendered in the address column instead.
		return ""
	default:
		return s.formatNum(l.Opcode.Data)
	}
}

func labelTarget(all []Line, localOffset uint32) (string, bool) {
	for _, l := range all {
		if l.LocalOffset == localOffset && l.Label != "" {
			return l.Label, true
		}
	}
	return "", false
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
