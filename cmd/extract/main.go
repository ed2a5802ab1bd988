package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"honeytrap/internal/config"
	"honeytrap/internal/intel"
	"honeytrap/pkg/logger"
)

var (
	cfgFile  string
	pretty   bool
	logLevel string
	textFile string

	rootCmd = &cobra.Command{
		Use:   "extract [message...]",
		Short: "Pull scam intelligence out of text and conversations",
		Long: `extract runs the honeytrap intelligence extractor outside the API server.

Given a message as arguments, through --file or on stdin, it prints the
extracted phone numbers, bank accounts, UPI handles, links and other
identifiers as JSON.`,
		Example: `  extract "Send Rs 5000 to fraud@ybl or call 9876543210"
  echo "visit bit.ly/kyc-update" | extract --pretty`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runText,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&textFile, "file", "f", "", "read the message from a file")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(watchCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when one is present. The CLI works
// without any configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func newLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: os.Stderr,
	})
}

func newExtractor(cfg *config.Config, log *logger.Logger) *intel.Extractor {
	return intel.NewExtractor(log,
		intel.WithMaxInputBytes(cfg.Extraction.MaxInputBytes),
		intel.WithNoiseStripping(cfg.Extraction.StripNoise),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
