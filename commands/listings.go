package commands

import (
	"fmt"
	"os"

	"flat-scraper/services"
	"flat-scraper/storage"

	"github.com/spf13/cobra"
)

func init() {
	trackCmd.AddCommand(trackAddCmd, trackListCmd)
	rootCmd.AddCommand(listingsCmd, trackCmd)
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Prints stored listings, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		listings, err := store.ListListings(cmd.Context())
		if err != nil {
			return err
		}
		services.PrintListings(os.Stdout, listings)
		return nil
	},
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manages the list of tracked search URLs.",
}

var trackAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Adds a URL unless it is tracked already.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		added, err := store.AddTrackedURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		status := "exists"
		if added {
			status = "added"
		}
		fmt.Printf("%s\t%s\n", status, args[0])
		return nil
	},
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists tracked URLs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		urls, err := store.ListTrackedURLs(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Printf("%d\t%s\n", u.ID, u.URL)
		}
		return nil
	},
}
