// Package main is the pdf-chat-go command line: the HTTP server, a one-shot
// ingest of local PDFs and a tail of the document event stream.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Chat with uploaded PDF documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := log.Init(loaded.Log.Level, loaded.Log.Format, loaded.Log.OutputPath); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		log.Sync()
	},
	// serve is the default
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "path to the YAML configuration file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
