package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/healthcheck"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/newsfilter"
)

var reportZone = time.FixedZone("Asia/Taipei", 8*60*60)

func newRankCmd() *cobra.Command {
	var date string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rank [file|-]",
		Short: "Score and rank fetched feed items for the report of a given day",
		Long: "Reads a JSON array of feed items ({title, content, link, source, isoDate}) and keeps\n" +
			"the most relevant items published the day before --date.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetDate := time.Now().In(reportZone)
			if date != "" {
				var err error
				targetDate, err = time.ParseInLocation(time.DateOnly, date, reportZone)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
			}

			var raw []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read items: %w", err)
			}
			var items []newsfilter.Item
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("failed to decode items: %w", err)
			}

			ranked := newsfilter.New(newsfilter.DefaultRules()).Rank(cmd.Context(), items, targetDate)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ranked)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, item := range ranked {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", item.RelevanceScore, item.SourceLabel, item.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date as YYYY-MM-DD, defaults to today in Taipei")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

var errUnhealthy = errors.New("health check failed")

func newHealthCmd() *cobra.Command {
	var network, asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the bot configuration and, with --network, its upstream services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			result := healthcheck.New(&settings, nil).Run(cmd.Context(), network)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printHealth(cmd.OutOrStdout(), result)
			}
			if !result.Healthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&network, "network", false, "also check the news feed, LINE API and Supabase")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printHealth(w io.Writer, result healthcheck.Result) {
	names := make([]string, 0, len(result.Checks))
	for name := range result.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%-10s %s\n", name, result.Checks[name])
	}
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, warning := range result.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
