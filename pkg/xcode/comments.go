package xcode

// commentRule annotates a known (opcode, addr, data) triple with the
// inline comment the original tool's disassembly carries for it. A data
// value of nil means "matches any data".
type commentRule struct {
	opcode  Opcode
	addr    uint32
	data    *uint32
	comment string
}

func u32(v uint32) *uint32 { return &v }

// knownComments ports the hardware-init annotations a 2BL's xcodes
// typically carry: SMBus sequencing, I/O BAR setup, NV2A register pokes,
// and the memory-timing dance. Not exhaustive — enough to make a real
// dump's disassembly readable the way the original tool's is.
var knownComments = []commentRule{
	{IoRead, smbBase + 0x00, nil, "smbus read status"},
	{IoWrite, smbBase + 0x00, u32(0x10), "smbus clear status"},
	{IoWrite, smbBase + 0x08, u32(0x01), "smbus read revision register"},
	{IoWrite, smbBase + 0x08, nil, "smbus set cmd"},
	{IoWrite, smbBase + 0x06, nil, "smbus set val"},
	{IoWrite, smbBase + 0x02, u32(0x0A), "smbus kickoff"},
	{IoWrite, smbBase + 0x04, u32(0x20), "smc slave write addr"},
	{IoWrite, smbBase + 0x04, u32(0x21), "smc slave read addr"},
	{IoWrite, smbBase + 0x04, u32(0x8A), "871 encoder slave addr"},
	{IoWrite, smbBase + 0x04, u32(0xD4), "focus encoder slave addr"},
	{IoWrite, smbBase + 0x04, u32(0xE1), "xcalibur encoder slave addr"},

	{PciRead, mcpx10IoBar, nil, "read io bar (B02) MCPX v1.0"},
	{PciWrite, mcpx10IoBar, u32(mcpxIoBarVal), "set io bar (B02) MCPX v1.0"},
	{PciRead, mcpx11IoBar, nil, "read io bar (C03) MCPX v1.1"},
	{PciWrite, mcpx11IoBar, u32(mcpxIoBarVal), "set io bar (C03) MCPX v1.1"},

	{IoWrite, 0x8049, u32(0x08), "disable the tco timer"},
	{IoWrite, 0x80D9, u32(0x00), "KBDRSTIN# in gpio mode"},
	{IoWrite, 0x8026, u32(0x01), "disable PWRBTN#"},

	{PciWrite, 0x80000804, u32(0x03), "enable io space"},
	{PciWrite, 0x8000F04C, u32(0x01), "enable internal graphics"},
	{PciWrite, 0x8000F018, u32(0x10100), "setup secondary bus 1"},
	{PciWrite, 0x8000036C, u32(0x1000000), "smbus is bad, flatline clks"},
	{PciWrite, 0x80010010, u32(nv2aBase), "set nv reg base"},
	{PciWrite, 0x8000F020, u32(0xFDF0FD00), "reload nv reg base"},

	{MemWrite, nv2aBase + nvClkReg, u32(0x11701), "set nv clk 155 MHz ( rev == A1 )"},
	{MemWrite, nv2aBase + 0x100200, u32(0x03070103), "set extbank bit (00000F00)"},
	{MemWrite, nv2aBase + 0x100200, u32(0x03070003), "clear extbank bit (00000F00)"},
	{PciWrite, 0x8000103C, u32(0x00), "clear scratch pad (mem type)"},
	{PciWrite, 0x8000183C, u32(0x00), "clear scratch pad (mem result)"},

	{MemWrite, 0x00000000, nil, "visor attack prep"},
	{MemWrite, 0x007fd588, nil, "TEA attack prep"},
	{Exit, 0x806, u32(0x00), "quit xcodes"},
}

const (
	smbBase      = 0xC000
	nv2aBase     = 0x0F000000
	mcpx10IoBar  = 0x80000810
	mcpx11IoBar  = 0x80000884
	mcpxIoBarVal = 0x8001
	nvClkReg     = 0x680500
)

// commentFor returns the inline comment for x, or "" if none applies.
func commentFor(x XCODE) string {
	for _, r := range knownComments {
		if r.opcode != x.Opcode || r.addr != x.Addr {
			continue
		}
		if r.data != nil && *r.data != x.Data {
			continue
		}
		return r.comment
	}
	return ""
}
