// Package mcpx classifies a 512-byte MCPX mask-ROM dump and locates its
// embedded secret-boot (SB) key.
package mcpx

import (
	"bytes"
	"crypto/sha1"

	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// BlockSize is the fixed size of an MCPX ROM dump.
const BlockSize = 512

// Revision identifies which MCPX hardware revision a dump belongs to.
type Revision int

const (
	// RevUnknown means the dump matched no known digest.
	RevUnknown Revision = iota
	// Rev0 is MCPX v1.0 (and the "mouse" rev.0 boot ROMs).
	Rev0
	// Rev1 is MCPX v1.1 (and the "mouse" rev.1 boot ROMs).
	Rev1
)

func (r Revision) String() string {
	switch r {
	case Rev0:
		return "v1.0"
	case Rev1:
		return "v1.1"
	default:
		return "unknown"
	}
}

// knownDigest pairs a SHA-1 hash with the revision and SB-key offset it
// identifies.
type knownDigest struct {
	hash      [sha1.Size]byte
	revision  Revision
	sbKeyOff  int
}

// The four digests the original tool ships. MCPX v1.0/v1.1 are the
// retail mask-ROM dumps; the "mouse" dumps are early development boot
// ROMs. Both mouse dumps keep the SB key at 0x19C, where retail v1.1 does
// and retail v1.0 (0x1A5) does not.
var knownDigests = []knownDigest{
	{
		hash:     [sha1.Size]byte{0x5d, 0x27, 0x06, 0x75, 0xb5, 0x4e, 0xb8, 0x07, 0x1b, 0x48, 0x0e, 0x42, 0xd2, 0x2a, 0x30, 0x15, 0xac, 0x21, 0x1c, 0xef},
		revision: Rev0,
		sbKeyOff: 0x1A5,
	},
	{
		hash:     [sha1.Size]byte{0x6c, 0x87, 0x5f, 0x17, 0xf7, 0x73, 0xaa, 0xec, 0x51, 0xeb, 0x43, 0x40, 0x68, 0xbb, 0x6c, 0x65, 0x7c, 0x43, 0x43, 0xc0},
		revision: Rev1,
		sbKeyOff: 0x19C,
	},
	{
		hash:     [sha1.Size]byte{0xb9, 0xe8, 0x8e, 0x37, 0x50, 0x40, 0xbf, 0xaf, 0x90, 0x28, 0x15, 0xbe, 0x99, 0x16, 0x8c, 0x8b, 0x05, 0x14, 0x71, 0x37},
		revision: Rev0,
		sbKeyOff: 0x19C,
	},
	{
		hash:     [sha1.Size]byte{0x15, 0x13, 0xab, 0xcb, 0x6b, 0x97, 0x9f, 0x79, 0x53, 0x6f, 0xcf, 0x0e, 0xd9, 0x67, 0xf3, 0x77, 0x55, 0xe0, 0x7f, 0x9b},
		revision: Rev1,
		sbKeyOff: 0x19C,
	},
}

// KeySize is the length of the secret-boot key embedded in an MCPX dump.
const KeySize = 16

// Mcpx is a classified 512-byte MCPX dump: its revision and a view of its
// secret-boot key. It owns no buffer of its own; SBKey is a slice into the
// buffer the caller passed to Load.
type Mcpx struct {
	Revision Revision
	Hash     [sha1.Size]byte
	SBKey    []byte
}

// Load classifies a 512-byte MCPX dump by SHA-1 digest and returns a view
// of its secret-boot key. It returns InvalidMcpx if the dump matches none
// of the four known digests, or InvalidArgs if buf is not exactly
// BlockSize bytes.
func Load(buf []byte) (*Mcpx, error) {
	const op = "mcpx.Load"
	if len(buf) != BlockSize {
		return nil, xberrors.New(op, xberrors.InvalidArgs, "mcpx dump must be %d bytes, got %d", BlockSize, len(buf))
	}

	digest := sha1.Sum(buf)

	for _, kd := range knownDigests {
		if bytes.Equal(digest[:], kd.hash[:]) {
			return &Mcpx{
				Revision: kd.revision,
				Hash:     digest,
				SBKey:    buf[kd.sbKeyOff : kd.sbKeyOff+KeySize],
			}, nil
		}
	}

	return nil, xberrors.New(op, xberrors.InvalidMcpx, "unknown mcpx dump (sha1 %x)", digest)
}
