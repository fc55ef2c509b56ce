package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cardtable/config"
	"cardtable/deck"
)

var validateCmd = &cobra.Command{
	Use:   "validate <deck.json>",
	Short: "Validate a JSON deck file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		raw, err := deck.ParseJSON(data, cfg.MaxImportBytes)
		if err != nil {
			color.Red("✗ %v", err)
			os.Exit(1)
		}
		res := deck.ValidateDeckImport(raw)
		for _, w := range res.Warnings {
			color.Yellow("⚠ %s", w)
		}
		for _, e := range res.Errors {
			color.Red("✗ %s", e)
		}
		if !res.Valid {
			fmt.Printf("%s is not a valid deck (%d error(s))\n", args[0], len(res.Errors))
			os.Exit(1)
		}
		color.Green("✓ %s is a valid deck", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
