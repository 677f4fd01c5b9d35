// Package rc4 implements the symmetric stream cipher used to encrypt and
// decrypt the 2BL block and the kernel image. RC4 is its own inverse, so a
// single EncDec call serves both directions.
package rc4

import (
	stdrc4 "crypto/rc4"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// EncDec XORs buf in place with the RC4 keystream derived from key. Calling
// it twice with the same key reproduces the original buf (RC4 involution).
// An empty buf is a no-op. key must be 1..256 bytes.
func EncDec(buf []byte, key []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if len(key) == 0 || len(key) > 256 {
		return xberrors.New("rc4.EncDec", xberrors.InvalidArgs, "key length %d out of range [1,256]", len(key))
	}
	c, err := stdrc4.NewCipher(key)
	if err != nil {
		return xberrors.Wrap("rc4.EncDec", xberrors.InvalidArgs, err)
	}
	c.XORKeyStream(buf, buf)
	return nil
}
