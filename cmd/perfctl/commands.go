package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func newScoreCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Show the overall score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sc domain.Score
			if err := o.fetch(cmd, "/api/v1/score", &sc); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.asJSON {
				return printJSON(out, sc)
			}
			fmt.Fprintf(out, "Score: %d/100 (%s)\n", sc.Total, sc.Grade)
			rows := []struct {
				name string
				pts  int
			}{
				{"fps", sc.FPS}, {"memory", sc.Memory}, {"rebuilds", sc.Rebuilds}, {"jank", sc.Jank},
				{"warnings", sc.Warnings}, {"setState", sc.SetState}, {"depth", sc.Depth},
			}
			for _, r := range rows {
				fmt.Fprintf(out, "  %-10s %3d\n", r.name, r.pts)
			}
			return nil
		},
	}
}

func newSuggestionsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggestions",
		Short: "List optimization suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var ss []domain.Suggestion
			if err := o.fetch(cmd, "/api/v1/suggestions", &ss); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.asJSON {
				return printJSON(out, ss)
			}
			if len(ss) == 0 {
				fmt.Fprintln(out, "No suggestions.")
				return nil
			}
			for i, s := range ss {
				fmt.Fprintf(out, "%d. [%s/%s] %s\n", i+1, s.Impact, s.Category, s.Title)
				if s.Description != "" {
					fmt.Fprintf(out, "   %s\n", s.Description)
				}
			}
			return nil
		},
	}
}

func newSnapshotCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the current metrics snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap domain.MetricsSnapshot
			if err := o.fetch(cmd, "/api/v1/snapshot", &snap); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newWarningsCmd(o *rootOptions) *cobra.Command {
	var kind, severity string
	cmd := &cobra.Command{
		Use:   "warnings",
		Short: "List stored warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if kind != "" {
				q.Set("kind", kind)
			}
			if severity != "" {
				q.Set("severity", severity)
			}
			path := "/api/v1/warnings"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var ws []domain.Warning
			if err := o.fetch(cmd, path, &ws); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.asJSON {
				return printJSON(out, ws)
			}
			for _, w := range ws {
				fmt.Fprintf(out, "%-8s %-20s %s\n", w.Severity, w.Kind, w.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only this warning kind")
	cmd.Flags().StringVar(&severity, "severity", "", "only this severity")
	return cmd
}

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var record bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded snapshots and the FPS trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/v1/history"
			if record {
				path += "?record=1"
			}
			var h struct {
				Trend     string                   `json:"trend"`
				Snapshots []domain.MetricsSnapshot `json:"snapshots"`
			}
			if err := o.fetch(cmd, path, &h); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.asJSON {
				return printJSON(out, h)
			}
			fmt.Fprintf(out, "Trend: %s (%d snapshots)\n", h.Trend, len(h.Snapshots))
			for _, s := range h.Snapshots {
				fmt.Fprintf(out, "  %s  fps=%.1f mem=%.1fMB jank=%d warnings=%d\n",
					s.Timestamp.Format("15:04:05"), s.FPS, s.MemoryMB, s.JankFrames, s.WarningCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "record a snapshot before reading")
	return cmd
}

func newReportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the performance report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if o.asJSON {
				var r domain.Report
				if err := o.fetch(cmd, "/api/v1/report.json", &r); err != nil {
					return err
				}
				return printJSON(out, r)
			}
			cli, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			txt, err := cli.GetText(ctx, "/api/v1/report")
			if err != nil {
				return fmt.Errorf("GET /api/v1/report: %w", err)
			}
			fmt.Fprint(out, txt)
			if !strings.HasSuffix(txt, "\n") {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newReportsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Work with persisted reports",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List persisted reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rs []domain.StoredReport
			if err := o.fetch(cmd, "/api/v1/reports?limit="+strconv.Itoa(limit), &rs); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if o.asJSON {
				return printJSON(out, rs)
			}
			for _, r := range rs {
				fmt.Fprintf(out, "%s  %s  score=%d warnings=%d\n",
					r.ID, r.SavedAt.Format("2006-01-02 15:04:05"), r.Report.Score, len(r.Report.Warnings))
			}
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one persisted report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r domain.Report
			if err := o.fetch(cmd, "/api/v1/reports/"+url.PathEscape(args[0]), &r); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Render and persist a report on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := o.client()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			var stored domain.StoredReport
			if err := cli.Post(ctx, "/api/v1/report.json", struct{}{}, &stored); err != nil {
				return fmt.Errorf("POST /api/v1/report.json: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (score %d)\n", stored.ID, stored.Report.Score)
			return nil
		},
	}

	cmd.AddCommand(list, get, save)
	return cmd
}
