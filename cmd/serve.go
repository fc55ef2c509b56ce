package cmd

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"cardtable/config"
	"cardtable/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sandbox server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, nil))

		db, err := server.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		repo, err := server.NewRepository(db)
		if err != nil {
			return err
		}

		broker := server.NewMemoryBroker()
		defer broker.Close()

		srv := server.New(repo, broker, server.Options{
			TokenSecret:    cfg.TokenSecret,
			Debounce:       cfg.Debounce(),
			ImageBaseURL:   cfg.ImageBaseURL,
			MaxImportBytes: cfg.MaxImportBytes,
			Logger:         log,
		})

		log.Info("listening", "addr", cfg.Addr, "db", cfg.DBPath)
		return http.ListenAndServe(cfg.Addr, srv.Routes())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
