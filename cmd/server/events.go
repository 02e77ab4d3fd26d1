package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"pdf-chat-go/pkg/kafka"
	"pdf-chat-go/pkg/tasks"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print document events from Kafka as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Kafka.Enabled {
			return errors.New("kafka is disabled; set kafka.enabled and kafka.brokers")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		return kafka.Consume(cmd.Context(), cfg.Kafka, func(_ context.Context, event tasks.DocumentIndexedEvent) error {
			return enc.Encode(event)
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
