package bios

import (
	"crypto/sha1"

	"github.com/xboxdev/xbiostool/pkg/rc4"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// DerivePreldrKey computes the 20-byte RC4 key a preldr derives to
// decrypt the 2BL block: SHA1(sbKey || last16 || (sbKey XOR 0x5C*16)).
// sbKey is MCPX rev 1's 16-byte secret-boot key; last16 is the final 16
// bytes of the (still encrypted) 2BL block.
func DerivePreldrKey(sbKey, last16 []byte) ([]byte, error) {
	const op = "bios.DerivePreldrKey"
	if len(sbKey) != KeySize {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "sbKey must be %d bytes, got %d", KeySize, len(sbKey))
	}
	if len(last16) != KeySize {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "last16 must be %d bytes, got %d", KeySize, len(last16))
	}

	var pad [KeySize]byte
	for i := range pad {
		pad[i] = sbKey[i] ^ 0x5C
	}

	h := sha1.New()
	h.Write(sbKey)
	h.Write(last16)
	h.Write(pad[:])
	sum := h.Sum(nil)
	return sum[:], nil
}

// decryptBlock is a thin rc4.EncDec wrapper kept here so every 2BL/kernel
// decrypt call site in this package goes through one name.
func decryptBlock(buf, key []byte) error {
	return rc4.EncDec(buf, key)
}

// keyAllZero and keyAllOnes recognize the two sentinel kernel-key values
// the original treats as "no key": an all-zero key means the field was
// never populated, and an all-0xFF key is the pattern a blank/erased
// EEPROM region reads back as.
func keyAllZero(k []byte) bool {
	for _, b := range k {
		if b != 0x00 {
			return false
		}
	}
	return true
}

func keyAllOnes(k []byte) bool {
	for _, b := range k {
		if b != 0xFF {
			return false
		}
	}
	return true
}
