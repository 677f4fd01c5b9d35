package split

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xboxdev/xbiostool/pkg/bios"
)

func TestSplitExecuteWritesBanks(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "big.bin")
	image := make([]byte, bios.SizeLarge)
	for i := range image {
		image[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(imgPath, image, 0o644))

	cmd := &Command{
		ImagePath: imgPath,
		RomSize:   bios.SizeSmall,
		OutPrefix: filepath.Join(dir, "bank"),
	}
	require.NoError(t, cmd.Execute(nil))

	for i := 0; i < 4; i++ {
		bank, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("bank.%d", i)))
		require.NoError(t, err)
		require.Equal(t, image[i*bios.SizeSmall:(i+1)*bios.SizeSmall], bank)
	}
}
