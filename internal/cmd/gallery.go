package cmd

import (
	"github.com/spf13/cobra"

	"github.com/foxstudiohua/AsynKingfisher/internal/config"
	"github.com/foxstudiohua/AsynKingfisher/internal/tui"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery <url>...",
	Short: "Open an interactive gallery of display slots",
	Long: `Gallery opens a grid of display slots bound to the given image URLs.
Cells can be rebound, refreshed, and cancelled while loads are in flight,
which makes the stale-suppression behavior of the coordinator visible:
however fast you rebind, a cell only ever shows its latest content.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	manager, cleanup, err := buildManager(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := tui.New(tui.Config{
		Manager:                      manager,
		Logger:                       logger,
		URLs:                         args,
		KeepCurrentImageWhileLoading: cfg.Binding.KeepCurrentImageWhileLoading,
	})
	if err != nil {
		return err
	}
	return app.Run()
}
