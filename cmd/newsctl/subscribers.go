package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/supabase"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
)

const formatCSV = "csv"

// reportTopics are the interests offered on the subscription form.
var reportTopics = []string{"AI開發", "團隊協作", "學習方法", "工具應用"}

func loadSettings() (config.Settings, error) {
	settings, err := env.ParseAs[config.Settings]()
	if err != nil {
		return settings, fmt.Errorf("failed to read settings from the environment: %w", err)
	}
	settings.SetDefaults()
	return settings, nil
}

func newSupabaseClient() (*supabase.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if !settings.SubscriptionsEnabled() {
		return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY must be set")
	}
	return supabase.New(settings.SupabaseURL, settings.SupabaseAnonKey, nil)
}

func newSubscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage e-mail subscribers stored in Supabase",
	}
	cmd.AddCommand(
		newSubscribersListCmd(),
		newSubscribersCountCmd(),
		newSubscribersUnsubscribeCmd(),
		newSubscribersMarkSentCmd(),
		newSubscribersExportCmd(),
	)
	return cmd
}

func newSubscribersListCmd() *cobra.Command {
	var status, interest string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribers, optionally filtered by status and interest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newSupabaseClient()
			if err != nil {
				return err
			}
			subscribers, err := client.ListSubscribers(cmd.Context())
			if err != nil {
				return err
			}
			subscribers = supabase.FilterSubscribers(subscribers, status, interest)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), subscribers)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "EMAIL\tNAME\tSTATUS\tSUBSCRIBED\tINTERESTS")
			for _, sub := range subscribers {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					sub.Email, sub.Name, sub.Status,
					sub.SubscriptionDate.Format(time.DateOnly),
					strings.Join(sub.InterestedTopics, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", supabase.StatusActive, "only list subscribers with this status, empty for all")
	cmd.Flags().StringVar(&interest, "interest", "", "only list subscribers interested in this topic")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newSubscribersCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print subscriber totals and the active subscribers per topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newSupabaseClient()
			if err != nil {
				return err
			}
			subscribers, err := client.ListSubscribers(cmd.Context())
			if err != nil {
				return err
			}
			stats := supabase.CountSubscribers(subscribers)
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "total: %d\nactive: %d\ninactive: %d\n", stats.Total, stats.Active, stats.Inactive)
			for _, topic := range reportTopics {
				n := len(supabase.FilterSubscribers(subscribers, supabase.StatusActive, topic))
				_, _ = fmt.Fprintf(w, "%s: %d\n", topic, n)
			}
			return nil
		},
	}
}

func newSubscribersUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <email>",
		Short: "Mark every active subscription of an address as unsubscribed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSupabaseClient()
			if err != nil {
				return err
			}
			n, err := client.Unsubscribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "unsubscribed %s (%d rows)\n", args[0], n)
			return err
		},
	}
}

func newSubscribersMarkSentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-sent <email>",
		Short: "Record that today's report was sent to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSupabaseClient()
			if err != nil {
				return err
			}
			n, err := client.MarkSent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "marked %s as sent (%d rows)\n", args[0], n)
			return err
		},
	}
}

func newSubscribersExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export active subscribers for an e-mail service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatCSV && format != formatJSON {
				return fmt.Errorf("unknown format %q", format)
			}
			client, err := newSupabaseClient()
			if err != nil {
				return err
			}
			subscribers, err := client.ListSubscribers(cmd.Context())
			if err != nil {
				return err
			}
			active := supabase.FilterSubscribers(subscribers, supabase.StatusActive, "")
			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), active)
			}
			return writeSubscribersCSV(cmd.OutOrStdout(), active)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatCSV, "output format: csv or json")
	return cmd
}

func writeSubscribersCSV(w io.Writer, subscribers []supabase.Subscriber) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Email", "Name", "Subscription Date", "Interests"}); err != nil {
		return err
	}
	for _, sub := range subscribers {
		record := []string{
			sub.Email,
			sub.Name,
			sub.SubscriptionDate.Format(time.RFC3339),
			strings.Join(sub.InterestedTopics, ", "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
