package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/spf13/cobra"
)

var eventsGroup string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the domain event stream",
}

// campusctl events tail --group campusctl
var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print every event published to the Kafka topic until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if len(cfg.Kafka.Brokers) == 0 {
			return errors.New("KAFKA_BROKERS is not set")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker := events.NewKafkaBroker(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer broker.Close()

		out := cmd.OutOrStdout()
		return broker.Consume(ctx, eventsGroup, func(_ context.Context, payload []byte) error {
			_, err := fmt.Fprintln(out, formatEvent(payload))
			return err
		})
	},
}

func init() {
	eventsTailCmd.Flags().StringVar(&eventsGroup, "group", "campusctl", "Kafka consumer group")
	eventsCmd.AddCommand(eventsTailCmd)
}

// formatEvent renders a payload as one line: "<type> <key> <payload json>".
// Payloads that are not events are printed verbatim.
func formatEvent(payload []byte) string {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil || event.Type == "" {
		return string(bytes.TrimSpace(payload))
	}
	body, _ := json.Marshal(event.Payload)
	return fmt.Sprintf("%s %s %s %s", event.OccurredAt.Format("15:04:05"), event.Type, event.Key, body)
}
