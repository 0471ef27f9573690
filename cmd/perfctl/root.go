package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vshulcz/Perfwatch/internal/adapters/transport/gzjson"
	"github.com/vshulcz/Perfwatch/internal/misc"
	"github.com/vshulcz/Perfwatch/pkg/util"
)

type rootOptions struct {
	addr    string
	key     string
	timeout time.Duration
	asJSON  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "perfctl",
		Short: "Query a Perfwatch server",
		Long: `perfctl reads scores, suggestions and reports from a Perfwatch server.

PULL
  score               Overall score and per-component points
  suggestions         Ranked optimization suggestions
  snapshot            Current metrics snapshot
  warnings            Stored warnings, optionally filtered
  history             Recorded snapshots and the FPS trend
  report              Text report, or JSON with --json

REPORTS
  reports list        Persisted reports, newest first
  reports get <id>    One persisted report
  reports save        Render and persist a report now`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.addr, "addr", "a", misc.Getenv("PERFWATCH_ADDR", "http://localhost:8080"), "server address (env PERFWATCH_ADDR)")
	f.StringVarP(&opts.key, "key", "k", misc.Getenv("KEY", ""), "secret key for HashSHA256 signatures")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	f.BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	cmd.AddCommand(
		newScoreCmd(opts),
		newSuggestionsCmd(opts),
		newSnapshotCmd(opts),
		newWarningsCmd(opts),
		newHistoryCmd(opts),
		newReportCmd(opts),
		newReportsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				util.PrintBuildInfo(cmd.OutOrStdout(), util.BuildInfo{Version: buildVersion, Date: buildDate, Commit: buildCommit})
			},
		},
	)
	return cmd
}

func (o *rootOptions) client() (*gzjson.Client, error) {
	return gzjson.New(o.addr, &http.Client{Timeout: o.timeout}, o.key, gzjson.WithBackoff(nil))
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// fetch decodes GET path into out.
func (o *rootOptions) fetch(cmd *cobra.Command, path string, out any) error {
	cli, err := o.client()
	if err != nil {
		return err
	}
	ctx, cancel := o.context(cmd)
	defer cancel()
	if err := cli.Get(ctx, path, out); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
