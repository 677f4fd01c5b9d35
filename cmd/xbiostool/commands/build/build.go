// Package build implements "xbiostool build": assembling a fresh image
// from its component files.
package build

import (
	"fmt"
	"os"

	"github.com/xboxdev/xbiostool/cmd/xbiostool/commands"
	"github.com/xboxdev/xbiostool/pkg/bios"
	"github.com/xboxdev/xbiostool/pkg/rc4"
)

var _ commands.Command = (*Command)(nil)

// Command is "xbiostool build -o OUT --init ... --bldr ... --krnl ... --tail ...".
type Command struct {
	OutPath string `short:"o" long:"out" description:"path to write the assembled image to" required:"true"`
	RomSize int    `short:"r" long:"romsize" description:"whole-image size in bytes" default:"1048576"`

	InitTablePath string `long:"init" description:"path to the init-table header + xcode stream" required:"true"`
	BldrPath      string `long:"bldr" description:"path to the 24576-byte 2BL block" required:"true"`
	KrnlPath      string `long:"krnl" description:"path to the LZX-compressed kernel" required:"true"`
	TailPath      string `long:"tail" description:"path to the uncompressed kernel data tail"`

	HasPreldr bool `long:"preldr" description:"the 2BL block's trailer is a preldr stage"`
	SetBFM    bool `long:"bfm" description:"set the boot-from-media flag in the init table"`

	EncryptBldrKeyPath string `long:"encrypt-bldr-key" description:"RC4-encrypt the 2BL block with this 16-byte key after assembly"`
	EncryptKrnlKeyPath string `long:"encrypt-krnl-key" description:"RC4-encrypt the kernel with this 16-byte key after assembly"`
}

func (cmd *Command) ShortDescription() string { return "assemble a fresh image from component files" }

func (cmd *Command) LongDescription() string {
	return "build lays out the given init table, 2BL block, compressed kernel, and kernel data tail " +
		"at their fixed positions inside a --romsize image, fixes up the boot-params fields, and " +
		"optionally RC4-encrypts the kernel and 2BL block."
}

func readFileOrEmpty(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("build takes no positional arguments")}
	}

	initTable, err := os.ReadFile(cmd.InitTablePath)
	if err != nil {
		return fmt.Errorf("reading --init: %w", err)
	}
	bldr, err := os.ReadFile(cmd.BldrPath)
	if err != nil {
		return fmt.Errorf("reading --bldr: %w", err)
	}
	krnl, err := os.ReadFile(cmd.KrnlPath)
	if err != nil {
		return fmt.Errorf("reading --krnl: %w", err)
	}
	tail, err := readFileOrEmpty(cmd.TailPath)
	if err != nil {
		return fmt.Errorf("reading --tail: %w", err)
	}
	bldrKey, err := readFileOrEmpty(cmd.EncryptBldrKeyPath)
	if err != nil {
		return fmt.Errorf("reading --encrypt-bldr-key: %w", err)
	}
	krnlKey, err := readFileOrEmpty(cmd.EncryptKrnlKeyPath)
	if err != nil {
		return fmt.Errorf("reading --encrypt-krnl-key: %w", err)
	}

	b, err := bios.Build(bios.BuildParams{
		RomSize:          cmd.RomSize,
		InitTable:        initTable,
		Bldr:             bldr,
		CompressedKernel: krnl,
		KernelDataTail:   tail,
		HasPreldr:        cmd.HasPreldr,
		SetBFM:           cmd.SetBFM,
		EncryptBldrKey:   bldrKey,
		EncryptKrnlKey:   krnlKey,
	})
	if err != nil {
		return err
	}

	// Build returns the image as Load sees it, decrypted in place;
	// re-apply RC4 so the written file holds the encrypted bytes.
	if b.KrnlDecrypted {
		if err := rc4.EncDec(b.CompressedKernel(), b.KrnlKeyUsed); err != nil {
			return err
		}
	}
	if b.BldrDecrypted {
		if err := rc4.EncDec(b.BldrBlock(), b.BldrKeyUsed); err != nil {
			return err
		}
	}

	if err := os.WriteFile(cmd.OutPath, b.Image(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cmd.OutPath, err)
	}
	fmt.Println(cmd.OutPath)
	return nil
}
