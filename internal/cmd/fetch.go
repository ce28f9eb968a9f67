package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxstudiohua/AsynKingfisher/binder"
	"github.com/foxstudiohua/AsynKingfisher/fetch"
	"github.com/foxstudiohua/AsynKingfisher/internal/config"
	"github.com/foxstudiohua/AsynKingfisher/runloop"
)

// slotTarget is a headless display slot for one-shot CLI fetches.
type slotTarget struct {
	binding binder.Binding
	img     image.Image
}

func (t *slotTarget) Slot() image.Image        { return t.img }
func (t *slotTarget) SetSlot(img image.Image)  { t.img = img }
func (t *slotTarget) Binding() *binder.Binding { return &t.binding }

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a single image through the load coordinator",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringP("output", "o", "image.png", "output file (PNG)")
	fetchCmd.Flags().Bool("force-refresh", false, "bypass the cache")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	loop := runloop.NewLoop()
	loop.Start()
	defer loop.Stop()

	coordinator, err := binder.New(
		binder.Config{Fetcher: manager, Loop: loop},
		binder.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")
	target := &slotTarget{}
	done := make(chan binder.Result, 1)

	loop.Post(func() {
		coordinator.Bind(target, binder.Request{
			Source:     fetch.URLSource{URL: args[0]},
			Options:    binder.Options{ForceRefresh: forceRefresh},
			OnComplete: func(r binder.Result) { done <- r },
		})
	})

	var res binder.Result
	select {
	case res = <-done:
	case <-cmd.Context().Done():
		loop.Post(func() { coordinator.Cancel(target) })
		res = <-done
	}
	if res.Err != nil {
		return res.Err
	}

	output, _ := cmd.Flags().GetString("output")
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, res.Image); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	return nil
}
