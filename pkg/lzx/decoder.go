package lzx

import (
	"encoding/binary"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// blockHeader is the 4-byte framing that precedes every block's bitstream
// payload.
type blockHeader struct {
	CompressedSize   uint16
	UncompressedSize uint16
}

const blockHeaderSize = 4

// Decoder holds the cross-block state the dialect's sliding window and
// repeated-offset LRU require: decoding is not block-independent even
// though framing is.
type Decoder struct {
	window    []byte // the whole decompressed stream accumulated so far
	repOffset [NumRepeatedOffsets]uint32

	mainLengths    []byte
	lengthLengths  []byte
	alignedLengths []byte

	doTranslate    bool
	translateSize  uint32
	blocksEmitted  int
}

// NewDecoder returns a Decoder ready to consume the first block of a
// fresh stream.
func NewDecoder() *Decoder {
	d := &Decoder{
		repOffset:      [NumRepeatedOffsets]uint32{1, 1, 1},
		mainLengths:    make([]byte, MainTreeElements),
		lengthLengths:  make([]byte, NumSecondaryLen),
		alignedLengths: make([]byte, AlignedNumElements),
	}
	return d
}

// Decompress decodes a full LZX stream (a sequence of framed blocks) into
// its original uncompressed bytes.
func Decompress(data []byte) ([]byte, error) {
	const op = "lzx.Decompress"
	d := NewDecoder()
	pos := 0
	first := true
	// The window keeps the translated bytes later matches refer to; the
	// E8 reversal is applied to this separate output copy.
	var out []byte
	for pos < len(data) {
		if pos+blockHeaderSize > len(data) {
			return nil, xberrors.New(op, xberrors.DecompressFailed, "truncated block header at offset %d", pos)
		}
		hdr := blockHeader{
			CompressedSize:   binary.LittleEndian.Uint16(data[pos:]),
			UncompressedSize: binary.LittleEndian.Uint16(data[pos+2:]),
		}
		pos += blockHeaderSize
		if pos+int(hdr.CompressedSize) > len(data) {
			return nil, xberrors.New(op, xberrors.DecompressFailed, "block at offset %d claims %d compressed bytes beyond buffer", pos, hdr.CompressedSize)
		}
		blockData := data[pos : pos+int(hdr.CompressedSize)]
		pos += int(hdr.CompressedSize)

		blockStart := len(d.window)
		if err := d.decodeBlock(blockData, int(hdr.UncompressedSize), first); err != nil {
			return nil, xberrors.Wrap(op, xberrors.DecompressFailed, err)
		}
		out = append(out, d.window[blockStart:]...)
		if d.doTranslate && d.blocksEmitted < e8CFDataFrameThreshold {
			translateE8Block(out[blockStart:], uint32(blockStart), d.translateSize, false)
		}
		first = false
		d.blocksEmitted++
	}
	return out, nil
}

func (d *Decoder) decodeBlock(blockData []byte, uncompressedSize int, first bool) error {
	const op = "lzx.decodeBlock"
	r := newBitReader(blockData)

	if first {
		if r.read(1) == 1 {
			d.doTranslate = true
			hi := r.read(16)
			lo := r.read(16)
			d.translateSize = (hi << 16) | lo
		}
	}

	blockType := r.read(3)
	start := len(d.window)
	target := start + uncompressedSize

	switch blockType {
	case blockTypeVerbatim, blockTypeAligned:
		var alignedTable []uint16
		if blockType == blockTypeAligned {
			lens := make([]byte, AlignedNumElements)
			for i := range lens {
				lens[i] = byte(r.read(3))
			}
			d.alignedLengths = lens
			alignedTable = make([]uint16, 1<<maxCodeLen)
			if err := buildDecodeTable(lens, alignedTable); err != nil {
				return xberrors.Wrap(op, xberrors.InvalidData, err)
			}
		}

		newMain, err := decodeTreeLengths(r, MainTreeElements, d.mainLengths)
		if err != nil {
			return xberrors.Wrap(op, xberrors.InvalidData, err)
		}
		d.mainLengths = newMain
		mainTable := make([]uint16, 1<<maxCodeLen)
		if err := buildDecodeTable(d.mainLengths, mainTable); err != nil {
			return xberrors.Wrap(op, xberrors.InvalidData, err)
		}

		newLen, err := decodeTreeLengths(r, NumSecondaryLen, d.lengthLengths)
		if err != nil {
			return xberrors.Wrap(op, xberrors.InvalidData, err)
		}
		d.lengthLengths = newLen
		lenTable := make([]uint16, 1<<maxCodeLen)
		if err := buildDecodeTable(d.lengthLengths, lenTable); err != nil {
			return xberrors.Wrap(op, xberrors.InvalidData, err)
		}

		for len(d.window) < target {
			sym, err := decodeSymbol(r, mainTable, d.mainLengths)
			if err != nil {
				return xberrors.Wrap(op, xberrors.InvalidData, err)
			}
			if sym < 256 {
				d.window = append(d.window, byte(sym))
				continue
			}
			elem := sym - 256
			slot := elem >> 3
			lenHeader := elem & 7

			matchLen := lenHeader + MinMatch
			if lenHeader == NumPrimaryLen {
				lsym, err := decodeSymbol(r, lenTable, d.lengthLengths)
				if err != nil {
					return xberrors.Wrap(op, xberrors.InvalidData, err)
				}
				matchLen = NumPrimaryLen + MinMatch + lsym
			}

			var offset uint32
			if slot < NumRepeatedOffsets {
				offset = d.repOffset[slot]
				switch slot {
				case 1:
					d.repOffset[0], d.repOffset[1] = d.repOffset[1], d.repOffset[0]
				case 2:
					r2 := d.repOffset[2]
					d.repOffset[2] = d.repOffset[1]
					d.repOffset[1] = d.repOffset[0]
					d.repOffset[0] = r2
				}
			} else {
				extra := extraBits[slot]
				var formed uint32
				if blockType == blockTypeAligned && extra >= 3 {
					verbatimBits := extra - 3
					var upper uint32
					if verbatimBits > 0 {
						upper = r.read(verbatimBits)
					}
					asym, err := decodeSymbol(r, alignedTable, d.alignedLengths)
					if err != nil {
						return xberrors.Wrap(op, xberrors.InvalidData, err)
					}
					formed = (upper << 3) | uint32(asym)
				} else {
					formed = r.read(extra)
				}
				offset = positionBase[slot] + formed
				d.repOffset[2] = d.repOffset[1]
				d.repOffset[1] = d.repOffset[0]
				d.repOffset[0] = offset
			}

			if offset == 0 || int(offset) > len(d.window) {
				return xberrors.New(op, xberrors.InvalidData, "match offset %d exceeds available window (%d bytes decoded)", offset, len(d.window))
			}
			srcStart := len(d.window) - int(offset)
			for k := 0; k < matchLen; k++ {
				d.window = append(d.window, d.window[srcStart+k])
			}
		}

	case blockTypeUncompressed:
		// Uncompressed blocks realign to a byte boundary and carry three
		// little-endian repeated-offset seeds ahead of the raw bytes.
		r.consume(r.n % 8)
		bytePos := r.bytePos()
		if bytePos+12 > len(blockData) {
			return xberrors.New(op, xberrors.InvalidData, "uncompressed block header truncated")
		}
		for i := 0; i < NumRepeatedOffsets; i++ {
			d.repOffset[i] = binary.LittleEndian.Uint32(blockData[bytePos+i*4:])
		}
		bytePos += 12
		if bytePos+uncompressedSize > len(blockData) {
			return xberrors.New(op, xberrors.InvalidData, "uncompressed block payload truncated")
		}
		d.window = append(d.window, blockData[bytePos:bytePos+uncompressedSize]...)

	default:
		return xberrors.New(op, xberrors.InvalidData, "invalid block type %d", blockType)
	}

	if len(d.window) != target {
		return xberrors.New(op, xberrors.InvalidData, "block produced %d bytes, expected %d", len(d.window)-start, uncompressedSize)
	}
	return nil
}
