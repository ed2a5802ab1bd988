package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"honeytrap/internal/intel"
	"honeytrap/internal/streaming"
)

func watchCmd() *cobra.Command {
	var (
		categories []string
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream newly discovered identifiers from NATS",
		Long: `Subscribe to the intelligence event stream and print each event as a JSON
line until interrupted.`,
		Example: `  extract watch --category upiIds --category phoneNumbers`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			filter := &streaming.Filter{SessionID: sessionID}
			for _, name := range categories {
				c, err := intel.ParseCategory(name)
				if err != nil {
					return err
				}
				filter.Categories = append(filter.Categories, c)
			}

			ctx := cmd.Context()
			publisher, err := streaming.NewIntelPublisher(ctx, cfg.NATS, newLogger())
			if err != nil {
				return fmt.Errorf("failed to connect to event stream: %w", err)
			}
			defer publisher.Close()

			events, err := publisher.Subscribe(ctx, filter)
			if err != nil {
				return err
			}
			for event := range events {
				if err := writeJSON(cmd.OutOrStdout(), event); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "only print these categories (repeatable)")
	cmd.Flags().StringVar(&sessionID, "session", "", "only print events of this session")
	return cmd
}
