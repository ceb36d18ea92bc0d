package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lead-intake/internal/client"
	"lead-intake/internal/schema"
)

// globalOptions are the flags every subcommand shares.
type globalOptions struct {
	apiURL string
	token  string
	source string
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.apiURL, client.WithToken(o.token), client.WithSource(o.source))
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	registry := schema.Default()

	root := &cobra.Command{
		Use:   "intake-cli",
		Short: "Apply for a loan, insurance or consultancy, and work the staff feed",
		Long: `intake-cli walks an applicant through the same multi-step forms the web
front-ends use and submits the result to the intake API. Staff can list the
feed and move applications between statuses.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("INTAKE_API_URL", "http://localhost:8080"), "intake API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("INTAKE_TOKEN"), "staff bearer token for admin commands")
	root.PersistentFlags().StringVar(&opts.source, "source", "cli", "lead source tag sent with submissions")

	root.AddCommand(variantsCmd(registry))
	root.AddCommand(stepsCmd(registry))
	root.AddCommand(applyCmd(registry, opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(statusCmd(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
