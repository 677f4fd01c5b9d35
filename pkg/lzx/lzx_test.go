package lzx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mt19937 is a from-scratch Mersenne Twister so test fixtures are
// reproducible across Go versions without depending on math/rand's
// unspecified bit layout.
type mt19937 struct {
	state [624]uint32
	index int
}

func newMT19937(seed uint32) *mt19937 {
	m := &mt19937{index: 624}
	m.state[0] = seed
	for i := 1; i < 624; i++ {
		m.state[i] = 1812433253*(m.state[i-1]^(m.state[i-1]>>30)) + uint32(i)
	}
	return m
}

func (m *mt19937) generate() {
	for i := 0; i < 624; i++ {
		y := (m.state[i] & 0x80000000) + (m.state[(i+1)%624] & 0x7fffffff)
		m.state[i] = m.state[(i+397)%624] ^ (y >> 1)
		if y%2 != 0 {
			m.state[i] ^= 2567483615
		}
	}
	m.index = 0
}

func (m *mt19937) next() uint32 {
	if m.index >= 624 {
		m.generate()
	}
	y := m.state[m.index]
	y ^= y >> 11
	y ^= (y << 7) & 2636928640
	y ^= (y << 15) & 4022730752
	y ^= y >> 18
	m.index++
	return y
}

func randomBytes(seed uint32, n int) []byte {
	m := newMT19937(seed)
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(m.next())
	}
	return out
}

func roundTrip(t *testing.T, data []byte, translate bool) {
	t.Helper()
	compressed := Compress(data, translate)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil, false)
}

func TestRoundTripSmall(t *testing.T) {
	roundTrip(t, []byte("the quick brown fox jumps over the lazy dog"), false)
}

func TestRoundTripRepetitive(t *testing.T) {
	data := make([]byte, 50000)
	for i := range data {
		data[i] = byte(i % 7)
	}
	roundTrip(t, data, false)
}

func TestRoundTripRandom(t *testing.T) {
	roundTrip(t, randomBytes(1, 40000), false)
}

func TestRoundTripMultiChunk(t *testing.T) {
	// Spans several 32 KiB chunks and exercises cross-chunk matches via
	// the shared sliding window.
	base := randomBytes(2, ChunkSize)
	data := append(append([]byte{}, base...), base...)
	data = append(data, randomBytes(3, ChunkSize/2)...)
	roundTrip(t, data, false)
}

func TestRoundTripRepeatedOffsets(t *testing.T) {
	pattern := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	var data []byte
	for i := 0; i < 2000; i++ {
		data = append(data, pattern...)
		data = append(data, byte(i))
	}
	roundTrip(t, data, false)
}

func TestE8TranslateInvolution(t *testing.T) {
	buf := make([]byte, 64)
	buf[10] = 0xE8
	buf[11], buf[12], buf[13], buf[14] = 0x00, 0x00, 0x00, 0x01
	fileSize := uint32(1 << 28)

	orig := append([]byte(nil), buf...)
	translateE8Block(buf, 0, fileSize, true)
	translateE8Block(buf, 0, fileSize, false)
	require.Equal(t, orig, buf)
}

// TestE8TranslateSkipsNearBlockEnd asserts the testable boundary case from
// spec.md: an 0xE8 byte less than 6 bytes from the end of its block must
// not be translated, since its operand would overrun the block.
func TestE8TranslateSkipsNearBlockEnd(t *testing.T) {
	buf := make([]byte, 64)
	buf[60] = 0xE8 // 4 bytes from the end: inside the untouched trailing 6
	buf[61], buf[62], buf[63] = 0x11, 0x22, 0x33
	fileSize := uint32(1 << 28)

	orig := append([]byte(nil), buf...)
	translateE8Block(buf, 0, fileSize, true)
	require.Equal(t, orig, buf)
}

// TestE8TranslatePerBlockBoundary asserts E8 translation runs per 32 KiB
// block with a fresh curPos, not once over the whole reassembled stream:
// an 0xE8 placed 2 bytes before an internal chunk boundary must survive a
// full multi-chunk Compress/Decompress round trip untouched, the same way
// a single near-end-of-block 0xE8 is left alone within one block.
func TestE8TranslatePerBlockBoundary(t *testing.T) {
	data := make([]byte, ChunkSize+64)
	for i := range data {
		data[i] = byte(i)
	}
	data[ChunkSize-2] = 0xE8
	data[ChunkSize-1], data[ChunkSize], data[ChunkSize+1] = 0xAA, 0xBB, 0xCC

	compressed := Compress(data, true)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestBuildDecodeTableRoundTrip(t *testing.T) {
	lengths := []byte{2, 2, 2, 3, 3, 0, 4, 4}
	table := make([]uint16, 1<<maxCodeLen)
	require.NoError(t, buildDecodeTable(lengths, table))
	codes := assignCanonicalCodes(lengths)

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		w := newBitWriter()
		w.writeBits(uint32(codes[sym]), uint(l))
		w.flush()
		r := newBitReader(w.bytes())
		got, err := decodeSymbol(r, table, lengths)
		require.NoError(t, err)
		require.Equal(t, sym, got)
	}
}
