package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cardtable/config"
	"cardtable/deck"
	"cardtable/game"
)

var (
	importTTS    bool
	importDedupe bool
	importSort   bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Preview a deck import",
	Long: `Parse a deck file the way the server would and print the cards it
produces. With --tts the file is read as whitespace-separated TTS codes
(SET-NUMBER-QUANTITY) instead of JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var name string
		var cards []game.Card
		if importTTS {
			opts := []deck.TTSOption{deck.WithMaxImportBytes(cfg.MaxImportBytes)}
			if cfg.ImageBaseURL != "" {
				opts = append(opts, deck.WithImageBaseURL(cfg.ImageBaseURL))
			}
			res := deck.NewTTSParser(opts...).Parse(string(data))
			for _, w := range res.Warnings {
				color.Yellow("⚠ %s", w)
			}
			fmt.Printf("%d token(s) found, %d valid\n", res.TotalFound, len(res.Codes))
			name = deck.DeckNameFromCodes(res.Codes)
			cards = deck.CardsFromCodes(res.Codes)
		} else {
			raw, err := deck.ParseJSON(data, cfg.MaxImportBytes)
			if err != nil {
				return err
			}
			res := deck.ValidateDeckImport(raw)
			for _, w := range res.Warnings {
				color.Yellow("⚠ %s", w)
			}
			if !res.Valid {
				for _, e := range res.Errors {
					color.Red("✗ %s", e)
				}
				os.Exit(1)
			}
			imp, err := deck.DecodeDeckImport(raw)
			if err != nil {
				return err
			}
			name = imp.Name
			cards = deck.CardsFromImport(imp)
		}

		if importDedupe {
			cards = deck.DedupeByName(cards)
		}
		if importSort {
			deck.SortByName(cards)
		}

		fmt.Printf("%s: %d card(s)\n", name, len(cards))
		for _, c := range cards {
			fmt.Printf("  %s  %s\n", c.ID, c.Name)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importTTS, "tts", false, "parse input as TTS codes")
	importCmd.Flags().BoolVar(&importDedupe, "dedupe", false, "drop cards with duplicate names")
	importCmd.Flags().BoolVar(&importSort, "sort", false, "sort cards by name")
	rootCmd.AddCommand(importCmd)
}
