// Package tea implements the Tiny Encryption Algorithm
// (https://en.wikipedia.org/wiki/Tiny_Encryption_Algorithm): a 32-round
// Feistel cipher over a 64-bit block with a 128-bit key.
//
// xbiostool only reaches this package from the preldr public-key
// decryption path (pkg/bios), which legitimate ROMs rarely exercise; it is
// ported because some ROMs do rely on it, even though the original source
// guards the call site behind a disabled build flag.
package tea

const (
	delta       = 0x9E3779B9
	decryptSum  = 0xC6EF3720
	rounds      = 32
	blockWords  = 2
	keyWords    = 4
)

// Encrypt encrypts the 64-bit block v (two uint32 words) in place using the
// 128-bit key k (four uint32 words).
func Encrypt(v *[blockWords]uint32, k *[keyWords]uint32) {
	var sum uint32
	for i := 0; i < rounds; i++ {
		sum += delta
		v[0] += ((v[1] << 4) + k[0]) ^ (v[1] + sum) ^ ((v[1] >> 5) + k[1])
		v[1] += ((v[0] << 4) + k[2]) ^ (v[0] + sum) ^ ((v[0] >> 5) + k[3])
	}
}

// Decrypt reverses Encrypt.
func Decrypt(v *[blockWords]uint32, k *[keyWords]uint32) {
	sum := uint32(decryptSum)
	for i := 0; i < rounds; i++ {
		v[1] -= ((v[0] << 4) + k[2]) ^ (v[0] + sum) ^ ((v[0] >> 5) + k[3])
		v[0] -= ((v[1] << 4) + k[0]) ^ (v[1] + sum) ^ ((v[1] >> 5) + k[1])
		sum -= delta
	}
}
