package lzx

import (
	"container/heap"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// maxCodeLen bounds every canonical code this dialect's trees use. A
// direct 1<<maxCodeLen lookup table makes decoding a single array index
// rather than a bit-by-bit tree walk.
const maxCodeLen = 16

// buildDecodeTable fills table (which must have length 1<<maxCodeLen) so
// that table[v], for any v whose top bits equal a valid codeword, gives
// that codeword's symbol. Unused slots are left at 0xFFFF.
func buildDecodeTable(lengths []byte, table []uint16) error {
	const op = "lzx.buildDecodeTable"
	var blCount [maxCodeLen + 1]int
	for _, l := range lengths {
		if l > maxCodeLen {
			return xberrors.New(op, xberrors.InvalidData, "code length %d exceeds max %d", l, maxCodeLen)
		}
		blCount[l]++
	}
	blCount[0] = 0

	var nextCode [maxCodeLen + 1]uint16
	var code uint16
	for bits := 1; bits <= maxCodeLen; bits++ {
		code = (code + uint16(blCount[bits-1])) << 1
		nextCode[bits] = code
	}

	for i := range table {
		table[i] = 0xFFFF
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		start := uint32(c) << (maxCodeLen - l)
		span := uint32(1) << (maxCodeLen - l)
		for v := start; v < start+span; v++ {
			table[v] = uint16(sym)
		}
	}
	return nil
}

// decodeSymbol reads one Huffman-coded symbol using a table built by
// buildDecodeTable.
func decodeSymbol(r *bitReader, table []uint16, lengths []byte) (int, error) {
	v := r.peek(maxCodeLen)
	sym := table[v]
	if sym == 0xFFFF {
		return 0, xberrors.New("lzx.decodeSymbol", xberrors.InvalidData, "no codeword matches bitstream prefix %04x", v)
	}
	r.consume(uint(lengths[sym]))
	return int(sym), nil
}

// --- pretree (tree-of-trees) RLE, shared by main/length/aligned trees ---

const (
	pretreeSymZeroRun1  = 17 // zero run, length = 4 + 4 extra bits
	pretreeSymZeroRun2  = 18 // zero run, length = 20 + 5 extra bits
	pretreeSymRepeatRun = 19 // repeated non-zero value, length = 4 + 1 extra bit
)

// decodeTreeLengths decodes numSymbols code lengths, delta-coded mod 17
// against prev (the previous block's lengths for the same tree; pass a
// slice of all-zero of the same size for the first block), prefixed by a
// 20-symbol pretree whose own lengths are 20 raw 4-bit fields.
func decodeTreeLengths(r *bitReader, numSymbols int, prev []byte) ([]byte, error) {
	const op = "lzx.decodeTreeLengths"

	preLengths := make([]byte, PretreeNumElements)
	for i := range preLengths {
		preLengths[i] = byte(r.read(4))
	}
	preTable := make([]uint16, 1<<maxCodeLen)
	if err := buildDecodeTable(preLengths, preTable); err != nil {
		return nil, xberrors.Wrap(op, xberrors.InvalidData, err)
	}

	out := make([]byte, numSymbols)
	i := 0
	for i < numSymbols {
		sym, err := decodeSymbol(r, preTable, preLengths)
		if err != nil {
			return nil, xberrors.Wrap(op, xberrors.InvalidData, err)
		}
		switch sym {
		case pretreeSymZeroRun1:
			run := int(r.read(4)) + 4
			for ; run > 0 && i < numSymbols; run-- {
				out[i] = 0
				i++
			}
		case pretreeSymZeroRun2:
			run := int(r.read(5)) + 20
			for ; run > 0 && i < numSymbols; run-- {
				out[i] = 0
				i++
			}
		case pretreeSymRepeatRun:
			run := int(r.read(1)) + 4
			z, err := decodeSymbol(r, preTable, preLengths)
			if err != nil {
				return nil, xberrors.Wrap(op, xberrors.InvalidData, err)
			}
			newLen := applyDelta(prev[i], z)
			for ; run > 0 && i < numSymbols; run-- {
				out[i] = newLen
				i++
			}
		default:
			out[i] = applyDelta(prev[i], sym)
			i++
		}
	}
	return out, nil
}

func applyDelta(old byte, z int) byte {
	v := (int(old) - z) % 17
	if v < 0 {
		v += 17
	}
	return byte(v)
}

func deltaOf(old, new byte) int {
	v := (int(old) - int(new)) % 17
	if v < 0 {
		v += 17
	}
	return v
}

// encodeTreeLengths writes lengths (delta-coded against prev) prefixed by
// a pretree, using a symbol-by-symbol encoding: every length is sent as
// its own delta symbol and the run codes 17/18/19 are never emitted.
// Round-trip correctness does not require the
// run-length codes to be used maximally, only validly.
func encodeTreeLengths(w *bitWriter, lengths, prev []byte) {
	n := len(lengths)
	deltas := make([]int, n)
	for i := range lengths {
		deltas[i] = deltaOf(prev[i], lengths[i])
	}

	// Collapse runs of identical delta where that delta represents "no
	// change needed" is not attempted; emit each symbol through the
	// pretree directly. This keeps the encoder simple while remaining a
	// valid instance of the format (codes 17/18/19 are optional, not
	// mandatory, uses of the pretree alphabet).
	freq := make([]int, PretreeNumElements)
	for _, d := range deltas {
		freq[d]++
	}
	preLengths := buildLengthLimitedLengths(freq, 15)
	for _, l := range preLengths {
		w.writeBits(uint32(l), 4)
	}
	preCodes := assignCanonicalCodes(preLengths)

	for _, d := range deltas {
		w.writeBits(uint32(preCodes[d]), uint(preLengths[d]))
	}
}

// --- canonical code assignment and length-limited length construction ---

// assignCanonicalCodes returns, for each symbol with nonzero length, its
// canonical codeword (same algorithm buildDecodeTable uses internally).
func assignCanonicalCodes(lengths []byte) []uint16 {
	var blCount [maxCodeLen + 1]int
	for _, l := range lengths {
		blCount[l]++
	}
	blCount[0] = 0
	var nextCode [maxCodeLen + 1]uint16
	var code uint16
	for bits := 1; bits <= maxCodeLen; bits++ {
		code = (code + uint16(blCount[bits-1])) << 1
		nextCode[bits] = code
	}
	codes := make([]uint16, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = nextCode[l]
		nextCode[l]++
	}
	return codes
}

type huffNode struct {
	freq        int
	sym         int // -1 for internal nodes
	left, right *huffNode
}

type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].sym < h[j].sym
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x any)        { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// buildLengthLimitedLengths derives Huffman code lengths from symbol
// frequencies, then, through limitLengths, clamps any length exceeding
// maxLen to maxLen and lengthens the shortest codes until the Kraft
// inequality holds. Symbols with zero frequency get length 0.
func buildLengthLimitedLengths(freq []int, maxLen int) []byte {
	n := len(freq)
	lengths := make([]byte, n)

	used := 0
	for _, f := range freq {
		if f > 0 {
			used++
		}
	}
	if used == 0 {
		return lengths
	}
	if used == 1 {
		for i, f := range freq {
			if f > 0 {
				lengths[i] = 1
			}
		}
		return lengths
	}

	h := &huffHeap{}
	heap.Init(h)
	for sym, f := range freq {
		if f > 0 {
			heap.Push(h, &huffNode{freq: f, sym: sym})
		}
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		heap.Push(h, &huffNode{freq: a.freq + b.freq, sym: -1, left: a, right: b})
	}
	root := heap.Pop(h).(*huffNode)

	var walk func(node *huffNode, depth int)
	walk = func(node *huffNode, depth int) {
		if node.left == nil && node.right == nil {
			lengths[node.sym] = byte(depth)
			return
		}
		walk(node.left, depth+1)
		walk(node.right, depth+1)
	}
	walk(root, 0)

	limitLengths(lengths, maxLen)
	return lengths
}

// limitLengths enforces the Kraft inequality under a hard max length by
// shortening the longest codes and lengthening enough of the shortest
// ones to compensate, in place.
func limitLengths(lengths []byte, maxLen int) {
	overflow := false
	for _, l := range lengths {
		if int(l) > maxLen {
			overflow = true
			break
		}
	}
	if !overflow {
		return
	}
	for i, l := range lengths {
		if int(l) > maxLen {
			lengths[i] = byte(maxLen)
		}
	}
	for {
		var k int64
		for _, l := range lengths {
			if l > 0 {
				k += 1 << (maxLen - int(l))
			}
		}
		target := int64(1) << maxLen
		if k <= target {
			break
		}
		// Find the shortest nonzero length and make it one bit longer;
		// this reduces k and terminates because at least one length is
		// below maxLen whenever k > target for a valid symbol count.
		best := -1
		for i, l := range lengths {
			if l > 0 && int(l) < maxLen {
				if best == -1 || lengths[i] < lengths[best] {
					best = i
				}
			}
		}
		if best == -1 {
			break
		}
		lengths[best]++
	}
}
