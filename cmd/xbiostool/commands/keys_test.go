package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xboxdev/xbiostool/pkg/bios"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadParamsReadsOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTemp(t, dir, "key.bin", make([]byte, bios.KeySize))

	o := KeyOpts{KeyBldr: keyPath}
	p, err := o.LoadParams()
	require.NoError(t, err)
	require.Len(t, p.KeyBldr, bios.KeySize)
	require.Nil(t, p.KeyKrnl)
	require.Nil(t, p.Mcpx0)
	require.Nil(t, p.Mcpx1)
}

func TestLoadParamsMissingFileErrors(t *testing.T) {
	o := KeyOpts{KeyBldr: "/nonexistent/path/key.bin"}
	_, err := o.LoadParams()
	require.Error(t, err)
}
