package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/internal/intel"
)

// scanResult is printed by the scan command
type scanResult struct {
	SessionID    string        `json:"sessionId"`
	Messages     int           `json:"messages"`
	Reply        string        `json:"reply"`
	Intelligence intel.Record  `json:"intelligence"`
	Report       models.Report `json:"report"`
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <conversation.json>",
		Short: "Replay a conversation and print its aggregate and report",
		Long: `Replay a honeypot request (sessionId, message, conversationHistory) through
the turn handler with an in-memory session, then print the accumulated
intelligence and the report that would be sent to the callback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var req models.IncomingRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if req.SessionID == "" {
				req.SessionID = "scan"
			}

			log := newLogger()
			svc := services.NewHoneypotService(services.HoneypotDeps{
				Extractor: newExtractor(cfg, log),
			}, log)

			ctx := cmd.Context()
			reply, err := svc.HandleTurn(ctx, &req)
			if err != nil {
				return fmt.Errorf("failed to replay conversation: %w", err)
			}

			result := scanResult{
				SessionID: req.SessionID,
				Messages:  len(req.Messages()),
				Reply:     reply.Reply,
			}
			// an empty conversation never creates a session
			if result.Messages == 0 {
				result.Intelligence = intel.EmptyRecord()
				return writeJSON(cmd.OutOrStdout(), result)
			}

			if result.Intelligence, err = svc.SessionIntelligence(ctx, req.SessionID); err != nil {
				return err
			}
			if result.Report, err = svc.SessionReport(ctx, req.SessionID); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}
