package bios

import (
	"crypto/sha1"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xboxdev/xbiostool/pkg/lzx"
	"github.com/xboxdev/xbiostool/pkg/pubkey"
	"github.com/xboxdev/xbiostool/pkg/xberrors"
)

// canonicalKeyFixture builds a byte-exact RSA1 record (header + modulus)
// suitable for embedding in a plaintext fixture.
func canonicalKeyFixture() []byte {
	rec := make([]byte, pubkey.RecordSize)
	copy(rec[0:4], pubkey.Magic)
	binary.LittleEndian.PutUint32(rec[4:8], uint32(pubkey.ModSizeFld))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(pubkey.Bits))
	binary.LittleEndian.PutUint32(rec[12:16], uint32(pubkey.MaxBytes))
	binary.LittleEndian.PutUint32(rec[16:20], uint32(pubkey.Exponent))
	for i := 0; i < pubkey.ModulusSize; i++ {
		rec[pubkey.HeaderSize+i] = byte(i)
	}
	return rec
}

func fill(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i) + seed
	}
	return b
}

func buildParams(romSize int) BuildParams {
	bldr := make([]byte, BldrBlockSize)
	// A minimal, unencrypted 2BL: loader params at the front with a
	// plausible entry point, zeroed otherwise (no BldrEntry/BldrKeys or
	// preldr present in this fixture).
	lp := newLoaderParams(bldr[0:LoaderParamSize])
	lp.setEntryPoint(BldrEntryPointMin)

	return BuildParams{
		RomSize:          romSize,
		InitTable:        fill(InitTblHdrSize+18, 0x11),
		Bldr:             bldr,
		CompressedKernel: fill(256, 0x22),
		KernelDataTail:   fill(64, 0x33),
	}
}

func TestBuildLoadRoundTrip(t *testing.T) {
	parts := buildParams(SizeSmall)
	b, err := Build(parts)
	require.NoError(t, err)

	bp := b.BootParams()
	require.Equal(t, uint32(len(parts.KernelDataTail)), bp.UncompressedKernelDataSize())
	require.Equal(t, uint32(len(parts.InitTable)), bp.InitTblSize())
	require.Equal(t, uint32(BootSignature), bp.Signature())
	require.Equal(t, uint32(len(parts.CompressedKernel)), bp.CompressedKernelSize())

	loaded, err := Load(b.Image(), LoadParams{})
	require.NoError(t, err)
	require.Equal(t, parts.CompressedKernel, loaded.CompressedKernel())
	require.Equal(t, parts.KernelDataTail, loaded.KernelDataTail())
}

func TestBuildLoadRoundTripEncrypted(t *testing.T) {
	parts := buildParams(SizeSmall)
	key := []byte("0123456789abcdef")
	parts.EncryptBldrKey = key
	parts.EncryptKrnlKey = key

	b, err := Build(parts)
	require.NoError(t, err)
	require.True(t, b.BldrDecrypted)
	require.True(t, b.KrnlDecrypted)
	require.Equal(t, parts.CompressedKernel, b.CompressedKernel())
}

func TestBootParamsInvalidSignatureAndSize(t *testing.T) {
	parts := buildParams(SizeSmall)
	b, err := Build(parts)
	require.NoError(t, err)

	bp := b.BootParams()
	bp.setSignature(0)
	bp.setInitTblSize(uint32(SizeSmall) + 10)

	_, err = Load(b.Image(), LoadParams{})
	require.Error(t, err)
	require.Equal(t, xberrors.InvalidBldr, xberrors.KindOf(err))
	require.Contains(t, err.Error(), "signature")
}

func TestReplicate(t *testing.T) {
	small := fill(SizeSmall, 0x7)
	big, err := Replicate(small, SizeLarge)
	require.NoError(t, err)
	require.Len(t, big, SizeLarge)

	for i := 0; i < SizeLarge/SizeSmall; i++ {
		require.Equal(t, small, big[i*SizeSmall:(i+1)*SizeSmall])
	}
	firstHash := sha1.Sum(big[0:SizeSmall])
	lastHash := sha1.Sum(big[SizeLarge-SizeSmall : SizeLarge])
	require.Equal(t, firstHash, lastHash)
}

func TestSplitCombineInverse(t *testing.T) {
	image := fill(SizeLarge, 0x55)
	banks, err := Split(image, SizeSmall)
	require.NoError(t, err)
	require.Len(t, banks, 4)

	combined, err := Combine(banks)
	require.NoError(t, err)
	require.Equal(t, image, combined)
}

func TestDerivePreldrKey(t *testing.T) {
	sbKey := fill(16, 0xA0)
	last16 := fill(16, 0xB0)

	var pad [16]byte
	for i := range pad {
		pad[i] = sbKey[i] ^ 0x5C
	}
	h := sha1.New()
	h.Write(sbKey)
	h.Write(last16)
	h.Write(pad[:])
	want := h.Sum(nil)

	got, err := DerivePreldrKey(sbKey, last16)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecompressKernelAndFindPublicKey(t *testing.T) {
	plain := make([]byte, 4096)
	keyOff := 1000
	copy(plain[keyOff:], canonicalKeyFixture())

	parts := buildParams(SizeSmall)
	parts.CompressedKernel = lzx.Compress(plain, false)
	parts.KernelDataTail = nil

	b, err := Build(parts)
	require.NoError(t, err)

	out, err := b.DecompressKernel()
	require.NoError(t, err)
	require.Equal(t, plain, out)

	found, offset, err := b.FindPublicKey()
	require.NoError(t, err)
	require.Equal(t, keyOff, offset)
	require.Equal(t, canonicalKeyFixture()[pubkey.HeaderSize:], []byte(found.Modulus))

	newModulus := fill(pubkey.ModulusSize, 0x99)
	require.NoError(t, b.PatchPublicKeyModulus(newModulus))
	_, offset2, err := b.FindPublicKey()
	require.NoError(t, err)
	require.Equal(t, keyOff, offset2)
	require.Equal(t, newModulus, b.DecompressedKernel()[offset+pubkey.HeaderSize:offset+pubkey.RecordSize])
}
