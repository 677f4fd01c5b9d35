package lzx

import "encoding/binary"

// translateE8Block applies (or reverses) the call-offset translation
// filter to a single block's plain bytes in place. curPos is the
// absolute offset of mem[0] in the decompressed stream (the running
// byte count the original decoder/encoder call instr_pos); fileSize
// bounds which operands are plausibly translatable addresses at all.
//
// The scan is bounded to mem[:len(mem)-6]: the trailing 6 bytes of the
// block are temporarily overwritten with 0xE8 sentinels so the scan
// loop always terminates inside the block, then restored before
// returning. Every call operates on exactly one block, never across a
// block boundary, so an 0xE8 within 6 bytes of the end of a block is
// never mistaken for a translatable instruction.
func translateE8Block(mem []byte, curPos uint32, fileSize uint32, encode bool) {
	bytes := len(mem)
	if bytes <= 6 {
		return
	}

	var tail [6]byte
	copy(tail[:], mem[bytes-6:])
	for i := bytes - 6; i < bytes; i++ {
		mem[i] = 0xE8
	}

	instrPos := curPos
	end := curPos + uint32(bytes) - 10
	i := 0
	for {
		for mem[i] != 0xE8 {
			i++
			instrPos++
		}
		i++
		if instrPos >= end {
			break
		}

		operand := binary.LittleEndian.Uint32(mem[i:])
		if encode {
			absolute := int32(instrPos) + int32(operand)
			if absolute >= 0 {
				absU := uint32(absolute)
				if absU < fileSize+instrPos {
					if absU >= fileSize {
						absU = uint32(int32(operand) - int32(fileSize))
					}
					binary.LittleEndian.PutUint32(mem[i:], absU)
				}
			}
		} else {
			if operand < fileSize {
				binary.LittleEndian.PutUint32(mem[i:], operand-instrPos)
			} else if uint32(-int32(operand)) <= instrPos {
				binary.LittleEndian.PutUint32(mem[i:], operand+fileSize)
			}
		}

		i += 4
		instrPos += 5
	}

	copy(mem[bytes-6:], tail[:])
}
