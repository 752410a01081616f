package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/stickerpack"
	"github.com/steveyegge/autoprompter/internal/style"
)

var (
	packOutput    string
	packOutputDir string
)

var packCmd = &cobra.Command{
	Use:     "pack <image-dir>",
	GroupID: GroupTools,
	Short:   "Zip resized sticker images for upload",
	Long: `Bundle a folder of resized sticker images into an upload zip.

The folder must hold main.png and tab.png plus at least one of
01.png..40.png. Entries are written in that order. Without --output the
zip is named line_stamp_YYYYMMDD_HHMMSS.zip.

Examples:
  ap pack ./resized
  ap pack ./resized --output-dir ./dist
  ap pack ./resized -o stickers.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "Zip file to write")
	packCmd.Flags().StringVar(&packOutputDir, "output-dir", ".", "Folder for the auto-named zip")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	var (
		pack *stickerpack.Pack
		err  error
	)
	if packOutput != "" {
		pack, err = stickerpack.Create(args[0], packOutput)
	} else {
		pack, err = stickerpack.CreateAutoNamed(args[0], packOutputDir, time.Now())
	}
	if err != nil {
		return fmt.Errorf("creating sticker pack: %w", err)
	}

	style.FprintSuccess(os.Stdout, "Created %s (%d stickers)", pack.Path, len(pack.Stickers))
	fmt.Printf("  %s\n", style.Dim.Render(strings.Join(pack.Stickers, " ")))
	return nil
}
