package cmd

import (
	"context"
	"fmt"
	"time"

	"sentiment-producer/internal/stream"

	"github.com/spf13/cobra"
)

// streamCmd groups stream-related subcommands.
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream backend utilities",
}

// streamPingCmd describes the configured stream.
var streamPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect to the configured stream backend and print its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		a, err := stream.Open(ctx, cfg.Stream)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Describe(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s partitions=%d records=%d\n",
			info.Backend, info.Name, info.Status, info.Partitions, info.Records)
		return nil
	},
}

func init() {
	streamCmd.AddCommand(streamPingCmd)
	rootCmd.AddCommand(streamCmd)
}
