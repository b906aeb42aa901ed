package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atikulmunna/logdeck/internal/config"
	"github.com/atikulmunna/logdeck/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	outputFmt string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logdeck",
	Short: "logdeck, a viewer for rolled log files",
	Long: `logdeck discovers rotated log families (app.log, app.log.1, ...) across
folders, merges each family into one ordered stream, and follows the live file
as it grows. Run it as a terminal viewer or as an HTTP/WebSocket service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(viper.GetViper(), cfgFile); err != nil {
			return err
		}
		observability.InitLogger(viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFile))
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debug().Str("file", used).Msg("config loaded")
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logdeck.yaml)")
	flags.StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	flags.String("log-level", "info", "diagnostic log level: debug, info, warn, error")
	flags.String("log-file", "", "also append diagnostic logs to this file")

	cobra.CheckErr(viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag(config.KeyLogFile, flags.Lookup("log-file")))
}

// loadConfig resolves the configuration after flags have been parsed.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
