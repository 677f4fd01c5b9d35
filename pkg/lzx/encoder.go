package lzx

import (
	"encoding/binary"
)

// Encoder holds the cross-block state a stream's sliding window and
// repeated-offset LRU require between chunks.
type Encoder struct {
	repOffset [NumRepeatedOffsets]uint32
	prevMain  []byte
	prevLen   []byte

	hashHead map[uint32][]int32
}

func newEncoder() *Encoder {
	return &Encoder{
		repOffset: [NumRepeatedOffsets]uint32{1, 1, 1},
		prevMain:  make([]byte, MainTreeElements),
		prevLen:   make([]byte, NumSecondaryLen),
		hashHead:  make(map[uint32][]int32),
	}
}

// Compress encodes data into this dialect's block stream. When translate
// is true, the E8 call-offset filter is applied (forward direction) to a
// scratch copy, one 32 KiB chunk at a time as each chunk is about to be
// tokenized (mirroring the original encoder's per-frame read_input
// hook), and the first block records the flag and file size so
// Decompress reverses it the same way, block by block.
func Compress(data []byte, translate bool) []byte {
	e := newEncoder()

	plain := data
	if translate {
		plain = append([]byte(nil), data...)
	}

	var out []byte
	pos := 0
	first := true
	frames := 0
	fileSize := uint32(len(data))
	for pos < len(plain) {
		end := pos + ChunkSize
		if end > len(plain) {
			end = len(plain)
		}
		if translate && frames < e8CFDataFrameThreshold {
			translateE8Block(plain[pos:end], uint32(pos), fileSize, true)
		}
		out = append(out, e.emitBlock(plain, pos, end, first, translate, fileSize)...)
		pos = end
		first = false
		frames++
	}
	return out
}

const minFreshOffset = 3

// hash3 hashes three bytes for match-finding.
func hash3(b []byte) uint32 {
	return (uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16) * 2654435761 >> 8
}

// findMatch looks for the best match at plain[pos:] against everything
// decoded so far (plain[:pos]), preferring an exact repeated-offset hit
// over a possibly-longer fresh one only when the lengths are close,
// mirroring how cheap a zero-extra-bit repeat slot is to encode.
func (e *Encoder) findMatch(plain []byte, pos, chunkEnd int, repOffset [NumRepeatedOffsets]uint32) (offset uint32, length int, isRepeat bool, repSlot int) {
	remain := chunkEnd - pos
	if remain < MinMatch {
		return 0, 0, false, 0
	}
	maxLen := remain
	if maxLen > MaxMatch {
		maxLen = MaxMatch
	}

	matchLenAt := func(off uint32) int {
		if int(off) > pos {
			return 0
		}
		src := pos - int(off)
		n := 0
		for n < maxLen && plain[src+n] == plain[pos+n] {
			n++
		}
		return n
	}

	bestRepLen := 0
	bestRepSlot := 0
	for s, ro := range repOffset {
		if l := matchLenAt(ro); l >= MinMatch && l > bestRepLen {
			bestRepLen = l
			bestRepSlot = s
		}
	}

	bestFreshLen := 0
	var bestFreshOff uint32
	if pos+3 <= len(plain) {
		h := hash3(plain[pos:])
		chain := e.hashHead[h]
		windowStart := pos - WindowSize
		if windowStart < 0 {
			windowStart = 0
		}
		checked := 0
		for i := len(chain) - 1; i >= 0 && checked < 32; i-- {
			cand := int(chain[i])
			if cand < windowStart {
				break
			}
			off := uint32(pos - cand)
			if off < minFreshOffset {
				checked++
				continue
			}
			if l := matchLenAt(off); l > bestFreshLen {
				bestFreshLen = l
				bestFreshOff = off
			}
			checked++
		}
	}

	if bestRepLen >= MinMatch && bestRepLen+1 >= bestFreshLen {
		return repOffset[bestRepSlot], bestRepLen, true, bestRepSlot
	}
	if bestFreshLen >= MinMatch {
		return bestFreshOff, bestFreshLen, false, 0
	}
	return 0, 0, false, 0
}

func (e *Encoder) insertHash(plain []byte, pos int) {
	if pos+3 > len(plain) {
		return
	}
	h := hash3(plain[pos:])
	chain := e.hashHead[h]
	if len(chain) >= 64 {
		chain = chain[1:]
	}
	e.hashHead[h] = append(chain, int32(pos))
}

type symToken struct {
	literal bool
	lit     byte

	mainSym     int
	useLenTree  bool
	lenTreeSym  int
	slot        int
	extraBits   uint
	extraVal    uint32
	isRepSlot   bool
}

// tokenizeChunk greedily parses plain[start:end] into literal/match
// tokens, mutating a local copy of repOffset that callers apply only if
// they decide to keep the compressed encoding of this chunk.
func (e *Encoder) tokenizeChunk(plain []byte, start, end int, repOffset [NumRepeatedOffsets]uint32) ([]symToken, [NumRepeatedOffsets]uint32) {
	var toks []symToken
	pos := start
	for pos < end {
		offset, length, isRep, repSlot := e.findMatch(plain, pos, end, repOffset)
		if length >= MinMatch && pos+length <= end {
			var slot int
			var extra uint32
			if isRep {
				slot = repSlot
				switch repSlot {
				case 1:
					repOffset[0], repOffset[1] = repOffset[1], repOffset[0]
				case 2:
					r2 := repOffset[2]
					repOffset[2] = repOffset[1]
					repOffset[1] = repOffset[0]
					repOffset[0] = r2
				}
			} else {
				s, ev := slotForOffset(offset)
				slot = s
				extra = ev
				repOffset[2] = repOffset[1]
				repOffset[1] = repOffset[0]
				repOffset[0] = offset
			}

			lenHeader := length - MinMatch
			useLenTree := false
			lenTreeSym := 0
			if lenHeader >= NumPrimaryLen {
				useLenTree = true
				lenTreeSym = lenHeader - NumPrimaryLen
				lenHeader = NumPrimaryLen
			}

			toks = append(toks, symToken{
				mainSym:    256 + slot*8 + lenHeader,
				useLenTree: useLenTree,
				lenTreeSym: lenTreeSym,
				slot:       slot,
				extraBits:  extraBits[slot],
				extraVal:   extra,
				isRepSlot:  isRep,
			})

			for k := 0; k < length && pos+k < len(plain); k++ {
				e.insertHash(plain, pos+k)
			}
			pos += length
			continue
		}

		toks = append(toks, symToken{literal: true, lit: plain[pos], mainSym: int(plain[pos])})
		e.insertHash(plain, pos)
		pos++
	}
	return toks, repOffset
}

// slotForOffset finds the match-position slot (never 0..2, which are
// reserved for the repeated-offset mechanism) and remaining "formed"
// value for a freshly-coded offset.
func slotForOffset(offset uint32) (slot int, formed uint32) {
	for s := NumPositionSlots - 1; s >= NumRepeatedOffsets; s-- {
		base := positionBase[s]
		if offset >= base {
			return s, offset - base
		}
	}
	return NumRepeatedOffsets, 0
}

// emitBlock encodes plain[start:end] as a single block, choosing between
// verbatim/aligned compressed encodings and a raw fallback, and mutates e's
// persistent state (repeated offsets, previous tree lengths) only for the
// variant actually chosen.
func (e *Encoder) emitBlock(plain []byte, start, end int, first, translate bool, fileSize uint32) []byte {
	uncompressedSize := end - start
	toks, newRepOffset := e.tokenizeChunk(plain, start, end, e.repOffset)

	mainFreq := make([]int, MainTreeElements)
	lenFreq := make([]int, NumSecondaryLen)
	for _, t := range toks {
		mainFreq[t.mainSym]++
		if t.useLenTree {
			lenFreq[t.lenTreeSym]++
		}
	}
	mainLengths := buildLengthLimitedLengths(mainFreq, maxCodeLen)
	lenLengths := buildLengthLimitedLengths(lenFreq, maxCodeLen)

	verbatim := e.encodeCompressed(toks, mainLengths, lenLengths, nil, blockTypeVerbatim, first, translate, fileSize, uncompressedSize)

	alignedFreq := make([]int, AlignedNumElements)
	for _, t := range toks {
		if !t.isRepSlot && t.extraBits >= 3 {
			alignedFreq[t.extraVal&7]++
		}
	}
	alignedLengths := buildLengthLimitedLengths(alignedFreq, 7)
	aligned := e.encodeCompressed(toks, mainLengths, lenLengths, alignedLengths, blockTypeAligned, first, translate, fileSize, uncompressedSize)

	best := verbatim
	if len(aligned) < len(best) {
		best = aligned
	}

	raw := e.encodeUncompressed(plain, start, end, first, translate, fileSize)

	var body []byte
	if len(best) < len(raw) {
		body = best
		e.repOffset = newRepOffset
		e.prevMain = mainLengths
		e.prevLen = lenLengths
	} else {
		body = raw
	}

	hdr := make([]byte, blockHeaderSize)
	binary.LittleEndian.PutUint16(hdr, uint16(len(body)))
	binary.LittleEndian.PutUint16(hdr[2:], uint16(uncompressedSize))
	return append(hdr, body...)
}

func (e *Encoder) writePrefix(w *bitWriter, first, translate bool, fileSize uint32) {
	if !first {
		return
	}
	if translate {
		w.writeBits(1, 1)
		w.writeBits(fileSize>>16, 16)
		w.writeBits(fileSize&0xFFFF, 16)
	} else {
		w.writeBits(0, 1)
	}
}

func (e *Encoder) encodeCompressed(toks []symToken, mainLengths, lenLengths, alignedLengths []byte, blockType int, first, translate bool, fileSize uint32, _ int) []byte {
	w := newBitWriter()
	e.writePrefix(w, first, translate, fileSize)
	w.writeBits(uint32(blockType), 3)

	if blockType == blockTypeAligned {
		for _, l := range alignedLengths {
			w.writeBits(uint32(l), 3)
		}
	}

	encodeTreeLengths(w, mainLengths, e.prevMain)
	encodeTreeLengths(w, lenLengths, e.prevLen)

	mainCodes := assignCanonicalCodes(mainLengths)
	lenCodes := assignCanonicalCodes(lenLengths)
	var alignedCodes []uint16
	if blockType == blockTypeAligned {
		alignedCodes = assignCanonicalCodes(alignedLengths)
	}

	for _, t := range toks {
		w.writeBits(uint32(mainCodes[t.mainSym]), uint(mainLengths[t.mainSym]))
		if !t.literal {
			if t.useLenTree {
				w.writeBits(uint32(lenCodes[t.lenTreeSym]), uint(lenLengths[t.lenTreeSym]))
			}
			if !t.isRepSlot {
				if blockType == blockTypeAligned && t.extraBits >= 3 {
					upperBits := t.extraBits - 3
					if upperBits > 0 {
						w.writeBits(t.extraVal>>3, upperBits)
					}
					low3 := t.extraVal & 7
					w.writeBits(uint32(alignedCodes[low3]), uint(alignedLengths[low3]))
				} else if t.extraBits > 0 {
					w.writeBits(t.extraVal, t.extraBits)
				}
			}
		}
	}
	w.flush()
	return w.bytes()
}

func (e *Encoder) encodeUncompressed(plain []byte, start, end int, first, translate bool, fileSize uint32) []byte {
	w := newBitWriter()
	e.writePrefix(w, first, translate, fileSize)
	w.writeBits(uint32(blockTypeUncompressed), 3)
	w.flush()

	body := w.bytes()
	seed := make([]byte, 12)
	for i := 0; i < NumRepeatedOffsets; i++ {
		binary.LittleEndian.PutUint32(seed[i*4:], e.repOffset[i])
	}
	body = append(body, seed...)
	body = append(body, plain[start:end]...)
	return body
}
