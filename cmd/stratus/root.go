// File: cmd/stratus/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"stratus/internal/flags"
	"stratus/internal/logger"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		debug   bool
		envFile string
	)

	rootCmd := &cobra.Command{
		Use:   "stratus",
		Short: "Stratus is a command-line tool for object storage across clouds.",
		Long: `A unified CLI for buckets and blobs on Google Cloud Storage, Amazon S3,
Azure Blob Storage, MinIO and the local filesystem. Configure your providers
once and work with every backend through the same commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLogger(debug)
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}

			app, err := newApp(log, envFile, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app, err := appFromContext(cmd.Context()); err == nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, flags.EnvFile, "", "Load credential variables (e.g. AWS_ACCESS_KEY_ID) from a dotenv file")
	rootCmd.PersistentFlags().StringP(flags.Output, flags.OutputShort, "table", "Output format: table or yaml")

	rootCmd.AddCommand(newConfigCmd(), newBucketCmd(), newBlobCmd())
	return rootCmd
}

func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
