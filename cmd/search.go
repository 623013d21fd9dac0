package cmd

import (
	"encoding/json"
	"fmt"

	"sentiment-producer/internal/twitter"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run the configured query once and print matching posts as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		timeout, _ := cfg.RequestTimeout()
		req, err := twitter.NewSearchRequest(cfg.Twitter.Query, cfg.Twitter.TweetFields, cfg.Twitter.BearerToken)
		if err != nil {
			return err
		}

		res, err := twitter.NewClient(cfg.Twitter.BaseURL, timeout).SearchRecent(cmd.Context(), req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		for _, p := range res.Data {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "result_count: %d\n", res.Meta.ResultCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
