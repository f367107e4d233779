package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/news"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/commands"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/signature"
)

const (
	formatLine = "line"
	formatJSON = "json"
	formatURL  = "url"
)

func newRootCmd() *cobra.Command {
	var feedURL string

	rootCmd := &cobra.Command{
		Use:          "newsctl",
		Short:        "Operator tools for the Thinker News LINE bot",
		SilenceUsage: true,
	}
	defaultFeed := os.Getenv("NEWS_FEED_URL")
	if defaultFeed == "" {
		defaultFeed = config.DefaultNewsFeedURL
	}
	rootCmd.PersistentFlags().StringVar(&feedURL, "feed", defaultFeed, "URL of the latest.json news feed")

	rootCmd.AddCommand(
		newLatestCmd(&feedURL),
		newCommandCmd(&feedURL),
		newSignCmd(),
		newSubscribersCmd(),
		newRankCmd(),
		newHealthCmd(),
	)
	return rootCmd
}

func newLatestCmd(feedURL *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Fetch and print the latest daily report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := news.New(*feedURL, nil)
			if err != nil {
				return err
			}
			latest, err := client.FetchLatestNews(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch latest news: %w", err)
			}
			return printLatest(cmd.OutOrStdout(), latest, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatLine, "output format: line, json or url")
	return cmd
}

func printLatest(w io.Writer, latest *news.LatestNews, format string) error {
	switch format {
	case formatLine:
		_, err := fmt.Fprintln(w, latest.LineContent)
		return err
	case formatURL:
		_, err := fmt.Fprintln(w, latest.WebsiteURL)
		return err
	case formatJSON:
		return writeJSON(w, latest)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func newCommandCmd(feedURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "command <text>",
		Short: "Print what the bot would reply to a chat message, without calling LINE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := news.New(*feedURL, nil)
			if err != nil {
				return err
			}
			table := commands.NewTable(client)
			found, ok := table.Lookup(args[0])
			if !ok {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no reply: %q is not a command\n", args[0])
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), found.Reply(cmd.Context()))
			return err
		},
	}
}

func newSignCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "sign [file|-]",
		Short: "Print the X-Line-Signature value for a webhook body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("LINE_CHANNEL_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("a channel secret is required, pass --secret or set LINE_CHANNEL_SECRET")
			}

			var body []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), signature.Sign(body, secret))
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "LINE channel secret (defaults to LINE_CHANNEL_SECRET)")
	return cmd
}
