package ls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xboxdev/xbiostool/pkg/bios"
)

func fixtureImage(t *testing.T) string {
	t.Helper()
	bldr := make([]byte, bios.BldrBlockSize)
	parts := bios.BuildParams{
		RomSize:          bios.SizeSmall,
		InitTable:        make([]byte, bios.InitTblHdrSize+8),
		Bldr:             bldr,
		CompressedKernel: make([]byte, 64),
		KernelDataTail:   make([]byte, 16),
	}
	b, err := bios.Build(parts)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	require.NoError(t, os.WriteFile(path, b.Image(), 0o644))
	return path
}

func TestLsExecuteOnValidImage(t *testing.T) {
	cmd := &Command{ImagePath: fixtureImage(t)}
	require.NoError(t, cmd.Execute(nil))
}

func TestLsExecuteRejectsPositionalArgs(t *testing.T) {
	cmd := &Command{ImagePath: fixtureImage(t)}
	require.Error(t, cmd.Execute([]string{"extra"}))
}
