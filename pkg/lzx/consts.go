// Package lzx implements the specific LZX dialect used to compress the
// Xbox kernel image: a 128 KiB sliding window, 32 KiB chunks, three block
// types (verbatim, aligned, uncompressed), and an E8 call-offset
// translation post-filter. It is a from-scratch port grounded on
// original_source/src/lzx_decoder.c and lzx_encoder.c — there is no
// reusable third-party implementation of this exact dialect in the
// ecosystem (it predates, and is incompatible with, the Microsoft CAB/CHM
// LZX format that most "lzx" libraries target).
package lzx

const (
	// WindowSize is the sliding-window size shared by the whole stream.
	WindowSize = 128 * 1024
	// ChunkSize is the uncompressed size of one LZX block's nominal
	// input span (the last block in a stream may be shorter).
	ChunkSize = 32 * 1024

	// MinMatch and MaxMatch bound match lengths.
	MinMatch = 2
	MaxMatch = MinMatch + 255 // 257

	// NumRepeatedOffsets is the size of the repeated-offset LRU.
	NumRepeatedOffsets = 3

	// NumPrimaryLen is how many match lengths are coded directly in the
	// main tree's length header; length header 7 defers to the length
	// tree.
	NumPrimaryLen = 7
	// NumSecondaryLen is the size of the length tree's alphabet.
	NumSecondaryLen = (MaxMatch - MinMatch + 1) - NumPrimaryLen // 249

	// NumPositionSlots is the number of match-position slots this
	// dialect defines (spec.md calls the main tree "≈672 elements";
	// 256 + NumPositionSlots*8 is the exact figure for this table).
	NumPositionSlots = 51
	// MainTreeElements is the main tree's alphabet size: 256 literals
	// plus 8 match-length headers per position slot.
	MainTreeElements = 256 + NumPositionSlots*8

	// AlignedNumElements is the aligned-offset tree's alphabet size.
	AlignedNumElements = 8

	// PretreeNumElements is the alphabet size of the "small" tree used
	// to RLE-encode the three real trees' code lengths.
	PretreeNumElements = 20

	// e8CFDataFrameThreshold bounds how many blocks may still receive
	// E8 translation (spec.md: "provided fewer than 32768 blocks have
	// been emitted").
	e8CFDataFrameThreshold = 32768
)

// Block type codes (3-bit header).
const (
	blockTypeInvalid = iota
	blockTypeVerbatim
	blockTypeAligned
	blockTypeUncompressed
)

// extraBits gives, per match-position slot, how many extra bits follow the
// main-tree length header to complete the offset (ported byte-for-byte
// from lzx_decoder.c's lzx_extra_bits table).
var extraBits = [NumPositionSlots]uint{
	0, 0, 0, 0, 1, 1, 2, 2,
	3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10,
	11, 11, 12, 12, 13, 13, 14, 14,
	15, 15, 16, 16, 17, 17, 17, 17,
	17, 17, 17, 17, 17, 17, 17, 17,
	17, 17, 17,
}

// positionBase gives, per match-position slot, the offset that the
// slot's extra bits are added to (ported byte-for-byte from
// lzx_decoder.c's position_base table). Per spec.md's Design Notes
// (Open Question on slot-3 semantics), slot 3's entry (3) is used
// uniformly rather than special-cased to a literal 1. Callers add the
// slot's extra bits directly to this value; slots 0..2 are never
// indexed here since they're handled by the repeated-offset mechanism.
var positionBase = [NumPositionSlots]uint32{
	0, 1, 2, 3, 4, 6, 8, 12,
	16, 24, 32, 48, 64, 96, 128, 192,
	256, 384, 512, 768, 1024, 1536, 2048, 3072,
	4096, 6144, 8192, 12288, 16384, 24576, 32768, 49152,
	65536, 98304, 131072, 196608, 262144, 393216, 524288, 655360,
	786432, 917504, 1048576, 1179648, 1310720, 1441792, 1572864, 1703936,
	1835008, 1966080, 2097152,
}
