package cmd

import (
	"fmt"

	"github.com/atikulmunna/logdeck/internal/aggregator"
	"github.com/atikulmunna/logdeck/internal/config"
	"github.com/atikulmunna/logdeck/internal/parser"
	"github.com/atikulmunna/logdeck/internal/server"
	"github.com/atikulmunna/logdeck/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and WebSocket tail channel",
	Long: `Serve the scan, browse, read and merge endpoints plus a WebSocket
session channel for live tailing.

Examples:
  logdeck serve
  logdeck serve --listen 127.0.0.1:9000 --folder /var/log/app`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "address to listen on")
	serveCmd.Flags().StringSlice("folder", nil, "folder to scan (repeatable); replaces the stored list")
	serveCmd.Flags().String("db", "", "path of the folder database")

	cobra.CheckErr(viper.BindPFlag(config.KeyListen, serveCmd.Flags().Lookup("listen")))
	cobra.CheckErr(viper.BindPFlag(config.KeyFolders, serveCmd.Flags().Lookup("folder")))
	cobra.CheckErr(viper.BindPFlag(config.KeyDBPath, serveCmd.Flags().Lookup("db")))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	folders, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer folders.Close()

	if err := seedFolders(folders, cfg.Folders); err != nil {
		return fmt.Errorf("failed to store folders: %w", err)
	}

	agg := aggregator.New(parser.NewClassifier())
	go agg.Start(ctx)

	srv := server.New(agg, server.Options{
		Addr:         cfg.Listen,
		Tail:         cfg.TailOptions(),
		MaxReadBytes: cfg.MaxReadBytes,
		Folders:      folders,
	})
	return srv.Start(ctx)
}

// seedFolders replaces the stored list when folders were configured explicitly.
func seedFolders(st *store.FolderStore, folders []string) error {
	if len(folders) == 0 {
		return nil
	}
	if err := st.Replace(folders); err != nil {
		return err
	}
	log.Info().Strs("folders", folders).Msg("folder list updated from configuration")
	return nil
}
