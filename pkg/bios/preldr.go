package bios

import (
	"encoding/binary"

	"github.com/xboxdev/xbiostool/pkg/tea"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// PublicKeyBlockSize is pubkey.RecordSize restated here: the size of the
// encrypted public-key blob a preldr carries, immediately after its
// 12-byte PRELDR_PARAMS header (jmp_opcode, jmp_offset, pad, func_block_ptr).
const PublicKeyBlockSize = 284

// preldrParamsSize is the size of the unencrypted PRELDR_PARAMS header
// (jmp_opcode + jmp_offset + 3 pad bytes + func_block_ptr) that precedes
// the encrypted public-key blob; it must stay untouched so the jmp_opcode
// byte DecryptPublicKey's caller used to detect the preldr stays valid.
const preldrParamsSize = 12

// DecryptPublicKey decrypts the preldr's embedded public-key blob in
// place using TEA with key, mirroring preldrDecryptPublicKey. The
// original source guards every call site to this behind a disabled
// build flag, so pkg/bios never invokes it from Load automatically: a
// caller reaches it only by calling this method explicitly. TEA works on
// 8-byte blocks, so the first 280 bytes of the 284-byte blob are
// decrypted and its last 4 bytes are left as they are.
func (p Preldr) DecryptPublicKey(key [16]byte) error {
	const op = "bios.Preldr.DecryptPublicKey"
	if len(p.buf) < preldrParamsSize+PublicKeyBlockSize {
		return xberrors.New(op, xberrors.InvalidArgs, "preldr buffer too small for a public key blob")
	}
	blob := p.buf[preldrParamsSize : preldrParamsSize+PublicKeyBlockSize]

	var k [4]uint32
	for i := 0; i < 4; i++ {
		k[i] = binary.LittleEndian.Uint32(key[i*4:])
	}

	for off := 0; off+8 <= len(blob); off += 8 {
		var v [2]uint32
		v[0] = binary.LittleEndian.Uint32(blob[off:])
		v[1] = binary.LittleEndian.Uint32(blob[off+4:])
		tea.Decrypt(&v, &k)
		binary.LittleEndian.PutUint32(blob[off:], v[0])
		binary.LittleEndian.PutUint32(blob[off+4:], v[1])
	}
	return nil
}
