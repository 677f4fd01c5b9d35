package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xboxdev/xbiostool/pkg/bios"
)

func TestBuildExecuteWritesImage(t *testing.T) {
	dir := t.TempDir()

	initPath := filepath.Join(dir, "init.bin")
	bldrPath := filepath.Join(dir, "bldr.bin")
	krnlPath := filepath.Join(dir, "krnl.lzx")
	outPath := filepath.Join(dir, "out.bin")

	require.NoError(t, os.WriteFile(initPath, make([]byte, bios.InitTblHdrSize+8), 0o644))
	require.NoError(t, os.WriteFile(bldrPath, make([]byte, bios.BldrBlockSize), 0o644))
	require.NoError(t, os.WriteFile(krnlPath, make([]byte, 64), 0o644))

	cmd := &Command{
		OutPath:       outPath,
		RomSize:       bios.SizeSmall,
		InitTablePath: initPath,
		BldrPath:      bldrPath,
		KrnlPath:      krnlPath,
	}
	require.NoError(t, cmd.Execute(nil))

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Len(t, out, bios.SizeSmall)
}

func TestBuildExecuteRejectsPositionalArgs(t *testing.T) {
	cmd := &Command{}
	require.Error(t, cmd.Execute([]string{"extra"}))
}
