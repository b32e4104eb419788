package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/umeshrajanna/deepship-api/pkg/config"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

var cfgFile string

// errReported exits non-zero without printing; the command already told the
// user what went wrong.
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:   "deepship",
	Short: "Terminal client for the deepship research assistant",
	Long: `Chat with the deepship assistant from the terminal.

Run without a subcommand to open the interactive chat. Use "ask" for a
one-shot answer on stdout.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
	RunE:              runChat,
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.deepship/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("api-url", "", "backend base URL")
	viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))

	addChatFlags(rootCmd)
}

func initConfig() error {
	if _, err := config.Load(cfgFile); err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	if used := config.GetConfigFileUsed(); used != "" {
		logger.Debug("Using config file", "path", used)
	}
	return nil
}
