package bios

import (
	"crypto/sha1"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// BuildParams describes the pieces Build assembles into a fresh image:
// the init table (header + xcode stream), the full 24576-byte 2BL
// block, the compressed kernel, and its uncompressed data tail.
type BuildParams struct {
	RomSize int

	InitTable        []byte // header + xcode stream, <= RomSize
	Bldr             []byte // exactly BldrBlockSize bytes
	CompressedKernel []byte
	KernelDataTail   []byte

	HasPreldr bool // whether Bldr's trailer is a preldr (shifts the boot-params offset)

	EncryptBldrKey []byte // if non-nil, RC4-encrypt the 2BL block with this key after assembly
	EncryptKrnlKey []byte // if non-nil, RC4-encrypt the compressed kernel with this key

	SetBFM bool // OR the boot-from-media flag into the init table identifier word
}

// Build allocates a RomSize image buffer, lays out parts at their fixed
// positions, fixes up the boot-params size/signature/digest fields, and
// optionally encrypts the kernel and then the 2BL block. The returned
// *Bios is produced by feeding the assembled buffer back through Load
// with the same explicit keys, so a caller sees the identical view a
// fresh load from disk would.
func Build(parts BuildParams) (*Bios, error) {
	const op = "bios.Build"

	if !IsLegalImageSize(parts.RomSize) {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "romsize %d is not one of {%d, %d, %d}", parts.RomSize, SizeSmall, SizeMedium, SizeLarge)
	}
	if len(parts.Bldr) != BldrBlockSize {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "2BL block must be exactly %d bytes, got %d", BldrBlockSize, len(parts.Bldr))
	}

	bldrStart := parts.RomSize - McpxShadowSize - BldrBlockSize
	tailStart := bldrStart - len(parts.KernelDataTail)
	krnlStart := tailStart - len(parts.CompressedKernel)
	if krnlStart < 0 || len(parts.InitTable) > krnlStart {
		return nil, xberrors.New(op, xberrors.BufferOverflow, "parts do not fit inside a %d-byte image", parts.RomSize)
	}

	buf := make([]byte, parts.RomSize)
	copy(buf[0:], parts.InitTable)
	copy(buf[krnlStart:tailStart], parts.CompressedKernel)
	copy(buf[tailStart:bldrStart], parts.KernelDataTail)
	copy(buf[bldrStart:bldrStart+BldrBlockSize], parts.Bldr)

	if parts.SetBFM {
		id := le16(buf[offInitIdentifier:])
		putLe16(buf[offInitIdentifier:], id|0x8000)
	}

	bootParamsOff := bldrStart + BldrBlockSize - BootParamsSize
	if parts.HasPreldr {
		bootParamsOff -= 16
	}
	bp := newBootParams(buf[bootParamsOff : bootParamsOff+BootParamsSize])
	bp.setUncompressedKernelDataSize(uint32(len(parts.KernelDataTail)))
	bp.setInitTblSize(uint32(len(parts.InitTable)))
	bp.setSignature(BootSignature)
	bp.setCompressedKernelSize(uint32(len(parts.CompressedKernel)))
	digest := sha1.Sum(buf[krnlStart:tailStart])
	copy(bp.Digest(), digest[:])

	if len(parts.EncryptKrnlKey) > 0 {
		if err := decryptBlock(buf[krnlStart:tailStart], parts.EncryptKrnlKey); err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidArgs, err)
		}
	}
	if len(parts.EncryptBldrKey) > 0 {
		if err := decryptBlock(buf[bldrStart:bldrStart+BldrBlockSize], parts.EncryptBldrKey); err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidArgs, err)
		}
	}

	return Load(buf, LoadParams{KeyBldr: parts.EncryptBldrKey, KeyKrnl: parts.EncryptKrnlKey})
}

// Replicate tiles a smaller legal image across a larger legal image
// size: every len(buf)-sized quadrant of the result equals buf.
func Replicate(buf []byte, newSize int) ([]byte, error) {
	const op = "bios.Replicate"
	if !IsLegalImageSize(len(buf)) {
		return nil, xberrors.New(op, xberrors.InvalidImage, "source size %d is not a legal image size", len(buf))
	}
	if !IsLegalImageSize(newSize) {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "target size %d is not a legal image size", newSize)
	}
	if newSize <= len(buf) || newSize%len(buf) != 0 {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "target size %d must be a multiple of source size %d and larger", newSize, len(buf))
	}

	out := make([]byte, newSize)
	for off := 0; off < newSize; off += len(buf) {
		copy(out[off:off+len(buf)], buf)
	}
	return out, nil
}

// Split slices an over-sized image into imageSize/romsize equally-sized
// banks.
func Split(buf []byte, romsize int) ([][]byte, error) {
	const op = "bios.Split"
	if romsize <= 0 || len(buf)%romsize != 0 {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "image size %d is not an even multiple of romsize %d", len(buf), romsize)
	}
	n := len(buf) / romsize
	if n != 2 && n != 4 {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "image size %d / romsize %d yields %d banks, want 2 or 4", len(buf), romsize, n)
	}
	banks := make([][]byte, n)
	for i := 0; i < n; i++ {
		banks[i] = buf[i*romsize : (i+1)*romsize]
	}
	return banks, nil
}

// Combine concatenates 2..4 equally-sized banks whose total size is a
// legal image size.
func Combine(banks [][]byte) ([]byte, error) {
	const op = "bios.Combine"
	if len(banks) < 2 || len(banks) > 4 {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "combine takes 2..4 banks, got %d", len(banks))
	}
	size := len(banks[0])
	for _, bank := range banks {
		if len(bank) != size {
			return nil, xberrors.New(op, xberrors.InvalidArgs, "all banks must be the same size")
		}
	}
	total := size * len(banks)
	if !IsLegalImageSize(total) {
		return nil, xberrors.New(op, xberrors.InvalidImage, "combined size %d is not a legal image size", total)
	}
	out := make([]byte, 0, total)
	for _, bank := range banks {
		out = append(out, bank...)
	}
	return out, nil
}
