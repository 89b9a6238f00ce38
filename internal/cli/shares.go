package cli

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/hppanpaliya/FairShare-AI/internal/service"
	"github.com/hppanpaliya/FairShare-AI/internal/watcher"
)

// SharesOptions holds flags for the shares command.
type SharesOptions struct {
	*RootOptions
	JSON bool
}

// NewSharesCommand creates the shares command.
func NewSharesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SharesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shares EVENT_ID",
		Short: "Print what everyone owes for an event",
		Example: `  fairshare shares 3f2a...
  fairshare shares 3f2a... --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShares(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the raw GetShares response")

	return cmd
}

func runShares(cmd *cobra.Command, opts *SharesOptions, eventID string) error {
	ctx := cmd.Context()
	client := opts.Client()

	shares, err := client.GetShares(ctx, connect.NewRequest(&service.GetSharesRequest{EventID: eventID}))
	if err != nil {
		return fmt.Errorf("get shares: %w", err)
	}
	if opts.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(shares.Msg)
	}

	ev, err := client.GetEvent(ctx, connect.NewRequest(&service.GetEventRequest{EventID: eventID}))
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	return watcher.Render(cmd.OutOrStdout(), &ev.Msg.Aggregate, shares.Msg)
}
