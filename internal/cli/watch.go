package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/service"
	"github.com/hppanpaliya/FairShare-AI/internal/watcher"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	MaxReconnects uint
	Clear         bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch EVENT_ID",
		Short: "Follow an event live and re-print shares on every change",
		Long: `Subscribe to an event over the websocket endpoint. The current state is
fetched once on connect, then every committed change is rendered as it
arrives. Dropped connections are retried with exponential backoff.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0])
		},
	}
	cmd.Flags().UintVar(&opts.MaxReconnects, "max-reconnects", 0, "consecutive failed connection attempts before giving up (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", true, "clear the terminal before each render")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions, eventID string) error {
	out := cmd.OutOrStdout()
	render := func(agg *models.Aggregate, shares *service.GetSharesResponse) {
		if opts.Clear {
			io.WriteString(out, "\033[H\033[2J")
		}
		if err := watcher.Render(out, agg, shares); err != nil {
			slog.Warn("Render failed", "event_id", eventID, "error", err)
		}
	}

	w, err := watcher.New(opts.Server, opts.Client(), render, watcher.Options{MaxReconnects: opts.MaxReconnects})
	if err != nil {
		return err
	}
	if err := w.Run(cmd.Context(), eventID); err != nil {
		return fmt.Errorf("watch %s: %w", eventID, err)
	}
	return nil
}
