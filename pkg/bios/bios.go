package bios

import (
	"github.com/hashicorp/go-multierror"

	"github.com/xboxdev/xbiostool/internal/xblog"
	"github.com/xboxdev/xbiostool/pkg/mcpx"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// Bios is a loaded image: one owned buffer plus the offsets the boot
// chain's fixed-layout regions were found at. Every accessor below
// returns a slice view into buf (or, for the kernel, decompressedKrnl);
// none of them own memory independently of this struct.
type Bios struct {
	buf  []byte // the one owned image buffer
	Size int

	hasPreldr       bool
	bootParamsOff   int
	loaderParamsOff int
	bldrEntryOff    int // -1 if the entry-point pointer doesn't resolve inside the 2BL block
	bldrKeysOff     int // -1 if keysPtr doesn't resolve inside the 2BL block

	Mcpx0 *mcpx.Mcpx // the rev-0 MCPX image supplied to Load, if any
	Mcpx1 *mcpx.Mcpx // the rev-1 MCPX image supplied to Load, if any

	BldrDecrypted bool
	BldrKeyUsed   []byte // the key actually applied to the 2BL block, if any

	KrnlDecrypted bool
	KrnlKeyUsed   []byte

	decompressedKrnl []byte // owned; populated by DecompressKernel
}

// LoadParams carries the caller-supplied key/MCPX material Load may use
// to decrypt the 2BL block and kernel. Every field is optional; Load
// uses whichever candidates are available in the priority order spec'd
// for the 2BL block, and falls back to leaving data encrypted (or
// already plaintext) when nothing applies.
type LoadParams struct {
	KeyBldr []byte // explicit 16-byte 2BL key
	KeyKrnl []byte // explicit 16-byte kernel key
	Mcpx0   []byte // 512-byte MCPX rev 0 dump, source of the SB key
	Mcpx1   []byte // 512-byte MCPX rev 1 dump, source of the SB key and preldr-derived key
}

// Load takes ownership of buf, classifies it, and attempts to decrypt
// the 2BL block and kernel using whatever key material params supplies.
// A failed boot-params validation is reported as InvalidBldr, but the
// returned *Bios is non-nil and still usable for raw inspection. A
// malformed image size, an MCPX dump that matches no known digest, a key
// the preldr derivation or 2BL decryption rejects, or a preldr with no
// key at all aborts with no Bios.
func Load(buf []byte, params LoadParams) (*Bios, error) {
	const op = "bios.Load"

	if !IsLegalImageSize(len(buf)) {
		return nil, xberrors.New(op, xberrors.InvalidImage, "image size %d is not one of {%d, %d, %d}", len(buf), SizeSmall, SizeMedium, SizeLarge)
	}

	b := &Bios{buf: buf, Size: len(buf)}

	bldrStart := len(buf) - McpxShadowSize - BldrBlockSize
	bldrBlock := buf[bldrStart : bldrStart+BldrBlockSize]

	b.hasPreldr = HasPreldr(bldrBlock)
	b.bootParamsOff = bldrStart + BldrBlockSize - BootParamsSize
	if b.hasPreldr {
		b.bootParamsOff -= 16
	}
	b.loaderParamsOff = bldrStart

	if len(params.Mcpx0) > 0 {
		m, err := mcpx.Load(params.Mcpx0)
		if err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidMcpx, err)
		}
		b.Mcpx0 = m
	}
	if len(params.Mcpx1) > 0 {
		m, err := mcpx.Load(params.Mcpx1)
		if err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidMcpx, err)
		}
		b.Mcpx1 = m
	}

	var key []byte
	switch {
	case b.hasPreldr && b.Mcpx1 != nil:
		last16 := bldrBlock[BldrBlockSize-16:]
		derived, err := DerivePreldrKey(b.Mcpx1.SBKey, last16)
		if err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidArgs, err)
		}
		key = derived
	case len(params.KeyBldr) > 0:
		key = params.KeyBldr
	case b.Mcpx0 != nil:
		key = b.Mcpx0.SBKey
	}

	if b.hasPreldr && key == nil {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "preldr present but no mcpx rev 1 image, explicit key, or mcpx rev 0 image was supplied")
	}

	if key != nil {
		if err := decryptBlock(bldrBlock, key); err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidArgs, err)
		}
		b.BldrDecrypted = true
		b.BldrKeyUsed = key

		if b.hasPreldr {
			// The preldr re-anchors the loader's entry point from a
			// 4-byte word stored just ahead of its own trailer, once
			// the rest of the block it bootstraps has been decrypted.
			newEntry := BldrEntryPointMin + le32(bldrBlock[BldrBlockSize-PreldrSize-8:BldrBlockSize-PreldrSize-4])
			lp := newLoaderParams(buf[b.loaderParamsOff : b.loaderParamsOff+LoaderParamSize])
			lp.setEntryPoint(newEntry)
		}
	}

	bldrEntryPointAddr := b.LoaderParams().EntryPoint()
	b.bldrEntryOff = -1
	b.bldrKeysOff = -1
	if bldrEntryPointAddr >= BldrEntryPointMin && bldrEntryPointAddr < BldrEntryPointMin+BldrBlockSize {
		off := bldrStart + int(bldrEntryPointAddr-BldrEntryPointMin) - BldrEntrySize
		if off >= bldrStart && off+BldrEntrySize <= bldrStart+BldrBlockSize {
			b.bldrEntryOff = off
			be := newBldrEntry(buf[off : off+BldrEntrySize])
			keysAddr := int64(be.KeysPtr()) - 0x00400000
			koff := bldrStart + int(keysAddr)
			if keysAddr >= 0 && koff+BldrKeysSize <= bldrStart+BldrBlockSize && koff >= bldrStart {
				b.bldrKeysOff = koff
			}
		}
	}

	if err := b.validateBootParams(); err != nil {
		return b, err
	}

	if len(params.KeyKrnl) > 0 {
		if err := decryptBlock(b.CompressedKernel(), params.KeyKrnl); err != nil {
			return b, xberrors.Wrap(op, xberrors.InvalidArgs, err)
		}
		b.KrnlDecrypted = true
		b.KrnlKeyUsed = params.KeyKrnl
	} else if bk, ok := b.BldrKeys(); ok {
		kk := bk.KernelKey()
		if !keyAllZero(kk) && !keyAllOnes(kk) {
			if err := decryptBlock(b.CompressedKernel(), kk); err != nil {
				return b, xberrors.Wrap(op, xberrors.InvalidArgs, err)
			}
			b.KrnlDecrypted = true
			b.KrnlKeyUsed = kk
		}
	}

	return b, nil
}

func (b *Bios) validateBootParams() error {
	const op = "bios.validateBootParams"
	bp := b.BootParams()
	var result *multierror.Error

	romsize := uint32(b.Size)
	if bp.Signature() != BootSignature {
		result = multierror.Append(result, xberrors.New(op, xberrors.InvalidBldr, "boot params signature %#08x != %#08x", bp.Signature(), uint32(BootSignature)))
	}
	if bp.UncompressedKernelDataSize() >= romsize {
		result = multierror.Append(result, xberrors.New(op, xberrors.InvalidBldr, "uncompressed kernel data size %d exceeds romsize %d", bp.UncompressedKernelDataSize(), romsize))
	}
	if bp.InitTblSize() >= romsize {
		result = multierror.Append(result, xberrors.New(op, xberrors.InvalidBldr, "init table size %d exceeds romsize %d", bp.InitTblSize(), romsize))
	}
	if bp.CompressedKernelSize() >= romsize {
		result = multierror.Append(result, xberrors.New(op, xberrors.InvalidBldr, "compressed kernel size %d exceeds romsize %d", bp.CompressedKernelSize(), romsize))
	}
	return result.ErrorOrNil()
}

// InitTable returns a view of the 128-byte init-table header at the
// start of the image.
func (b *Bios) InitTable() InitTable { return newInitTable(b.buf[0:InitTblHdrSize]) }

// InitTableXCodes returns the XCODE stream that follows the init-table
// header, up to the boot params' reported init-table size.
func (b *Bios) InitTableXCodes() []byte {
	n := b.BootParams().InitTblSize()
	if n < InitTblHdrSize || int(n) > len(b.buf) {
		return nil
	}
	return b.buf[InitTblHdrSize:n]
}

// FullInitTable returns the header plus its XCODE stream: the region a
// Build call expects back as BuildParams.InitTable.
func (b *Bios) FullInitTable() []byte {
	n := b.BootParams().InitTblSize()
	if n < InitTblHdrSize || int(n) > len(b.buf) {
		return nil
	}
	return b.buf[0:n]
}

// BootParams returns a view of the 36-byte boot-params record.
func (b *Bios) BootParams() BootParams {
	return newBootParams(b.buf[b.bootParamsOff : b.bootParamsOff+BootParamsSize])
}

// LoaderParams returns a view of the 68-byte loader-params record at the
// start of the 2BL block.
func (b *Bios) LoaderParams() LoaderParams {
	return newLoaderParams(b.buf[b.loaderParamsOff : b.loaderParamsOff+LoaderParamSize])
}

// BldrEntry returns the {keysPtr, bfmEntryPoint} record immediately
// before the 2BL's entry point, and false if the entry point did not
// resolve to somewhere inside the 2BL block.
func (b *Bios) BldrEntry() (BldrEntry, bool) {
	if b.bldrEntryOff < 0 {
		return BldrEntry{}, false
	}
	return newBldrEntry(b.buf[b.bldrEntryOff : b.bldrEntryOff+BldrEntrySize]), true
}

// BldrKeys returns the {eepromKey, certKey, kernelKey} record, and false
// if keysPtr did not resolve to somewhere inside the 2BL block.
func (b *Bios) BldrKeys() (BldrKeys, bool) {
	if b.bldrKeysOff < 0 {
		return BldrKeys{}, false
	}
	return newBldrKeys(b.buf[b.bldrKeysOff : b.bldrKeysOff+BldrKeysSize]), true
}

// BfmKey returns the 16-byte BFM key immediately preceding BldrKeys, and
// false under the same condition BldrKeys reports false.
func (b *Bios) BfmKey() ([]byte, bool) {
	if b.bldrKeysOff < BfmKeySize {
		return nil, false
	}
	return b.buf[b.bldrKeysOff-BfmKeySize : b.bldrKeysOff], true
}

// HasPreldr reports whether the loaded image carries a preldr stage.
func (b *Bios) HasPreldr() bool { return b.hasPreldr }

// Preldr returns a view of the preldr trailer, and false if none is
// present.
func (b *Bios) Preldr() (Preldr, bool) {
	if !b.hasPreldr {
		return Preldr{}, false
	}
	bldrStart := b.Size - McpxShadowSize - BldrBlockSize
	off := bldrStart + BldrBlockSize - PreldrSize
	return newPreldr(b.buf[off : off+PreldrSize]), true
}

// BldrBlock returns the full 24576-byte 2BL block.
func (b *Bios) BldrBlock() []byte {
	bldrStart := b.Size - McpxShadowSize - BldrBlockSize
	return b.buf[bldrStart : bldrStart+BldrBlockSize]
}

// CompressedKernel returns a view of the compressed-kernel region,
// immediately preceding the kernel data tail.
func (b *Bios) CompressedKernel() []byte {
	bp := b.BootParams()
	bldrStart := b.Size - McpxShadowSize - BldrBlockSize
	tailEnd := bldrStart
	tailStart := tailEnd - int(bp.UncompressedKernelDataSize())
	krnlStart := tailStart - int(bp.CompressedKernelSize())
	if krnlStart < 0 || krnlStart > tailStart {
		return nil
	}
	return b.buf[krnlStart:tailStart]
}

// KernelDataTail returns a view of the uncompressed kernel data tail
// that immediately precedes the 2BL block.
func (b *Bios) KernelDataTail() []byte {
	bp := b.BootParams()
	bldrStart := b.Size - McpxShadowSize - BldrBlockSize
	tailEnd := bldrStart
	tailStart := tailEnd - int(bp.UncompressedKernelDataSize())
	if tailStart < 0 {
		return nil
	}
	return b.buf[tailStart:tailEnd]
}

// Image returns the owned image buffer.
func (b *Bios) Image() []byte { return b.buf }

// Warnf is a convenience hook so callers that hold a *Bios can log
// through the shared xblog indirection without importing it directly.
func (b *Bios) Warnf(format string, args ...interface{}) { xblog.Warnf(format, args...) }
