package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/stepwise/pkg/corpus"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the corpus directory and hot-reload changed articles",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, err := corpus.Open(corpusDir)
	if err != nil {
		return err
	}

	w, err := corpus.NewWatcher(store)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("Watching %s (%d articles). Ctrl+C to stop.\n", corpusDir, store.Len())

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nWatch stopped.")
			return nil
		case ev := <-w.Events():
			ts := time.Now().Format("15:04:05")
			switch {
			case ev.Err != nil && ev.Path != "":
				fmt.Printf("%s  ✗ %s: %v\n", ts, filepath.Base(ev.Path), ev.Err)
			case ev.Err != nil:
				fmt.Printf("%s  ! watch error: %v\n", ts, ev.Err)
			default:
				fmt.Printf("%s  ✓ reloaded %s (%s)\n", ts, ev.Article.ID, filepath.Base(ev.Path))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
