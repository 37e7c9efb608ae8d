package commands

import (
	"encoding/json"

	"flat-scraper/storage"
	"flat-scraper/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "Parses one search page and stores the listings that are new.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		// logs go to stderr so stdout carries only the JSON result
		utils.SetOutput(cmd.ErrOrStderr())

		store, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		pipeline, err := newPipeline(store)
		if err != nil {
			return err
		}

		result, err := pipeline.ParseURL(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}
