package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cardtable",
	Short: "Card-game sandbox server and deck tools",
	Long: `cardtable runs the card-game sandbox backend and ships the deck
import tooling: validate a JSON deck file, or preview what a JSON or TTS
import would produce before loading it into a session.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
}
