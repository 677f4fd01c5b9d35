package bios

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// String returns a human-readable dump of the loaded image's derived
// layout: component sizes, identifier and BFM flag, boot signature,
// preldr presence, 2BL entry point and command line, decrypt state,
// loaded MCPX revisions, and the decompressed kernel size. It never
// writes to a sink directly; the caller chooses where this goes.
func (b *Bios) String() string {
	var sb strings.Builder
	bp := b.BootParams()
	lp := b.LoaderParams()

	fmt.Fprintf(&sb, "image: %s (%d bytes)\n", humanize.IBytes(uint64(b.Size)), b.Size)
	fmt.Fprintf(&sb, "init table: %s, identifier 0x%02X, bfm %v\n", humanize.IBytes(uint64(bp.InitTblSize())), b.InitTable().Identifier(), b.InitTable().BFM())
	fmt.Fprintf(&sb, "compressed kernel: %s\n", humanize.IBytes(uint64(bp.CompressedKernelSize())))
	fmt.Fprintf(&sb, "kernel data tail: %s\n", humanize.IBytes(uint64(bp.UncompressedKernelDataSize())))
	fmt.Fprintf(&sb, "boot signature: 0x%08X (valid: %v)\n", bp.Signature(), bp.Signature() == BootSignature)
	fmt.Fprintf(&sb, "preldr present: %v\n", b.hasPreldr)
	fmt.Fprintf(&sb, "2bl entry point: 0x%08X, command line %q\n", lp.EntryPoint(), lp.CommandLine())
	fmt.Fprintf(&sb, "2bl decrypted: %v, kernel decrypted: %v\n", b.BldrDecrypted, b.KrnlDecrypted)

	if b.Mcpx0 != nil {
		fmt.Fprintf(&sb, "mcpx rev 0 loaded: %s\n", b.Mcpx0.Revision)
	}
	if b.Mcpx1 != nil {
		fmt.Fprintf(&sb, "mcpx rev 1 loaded: %s\n", b.Mcpx1.Revision)
	}
	if b.decompressedKrnl != nil {
		fmt.Fprintf(&sb, "decompressed kernel: %s\n", humanize.IBytes(uint64(len(b.decompressedKrnl))))
	}

	return sb.String()
}
