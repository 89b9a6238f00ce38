// Package cli implements the fairshare command line client.
package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/hppanpaliya/FairShare-AI/internal/service"
	"github.com/hppanpaliya/FairShare-AI/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	LogLevel string
	Timeout  time.Duration
}

// Client returns an EventService client for the configured server.
func (o *RootOptions) Client() *service.EventServiceClient {
	return service.NewEventServiceClient(&http.Client{Timeout: o.Timeout}, o.Server)
}

// NewRootCommand creates the root command of the fairshare CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fairshare",
		Short: "Follow and inspect shared bills",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(opts.Server)
			if err != nil || u.Host == "" {
				return fmt.Errorf("invalid --server %q", opts.Server)
			}
			logging.Setup(opts.LogLevel)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "server base URL")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-request timeout")

	cmd.AddCommand(NewSharesCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}
