package commands

import (
	"os"

	"flat-scraper/services"
	"flat-scraper/storage"
	"flat-scraper/utils"

	"github.com/spf13/cobra"
)

var (
	scrapePages   int
	scrapeBaseURL string
	scrapeOut     string
	scrapeNoStore bool
)

func init() {
	scrapeCmd.Flags().IntVarP(&scrapePages, "pages", "p", 0, "number of search pages (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeBaseURL, "base-url", "", "search URL template with {page} (default from config)")
	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "CSV output path (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeNoStore, "no-store", false, "only write the CSV, skip the database")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--pages N] [--out flats.csv]",
	Short: "Scrapes a range of search pages into the database and a CSV file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pages := cfg.Scraper.MaxPages
		if scrapePages > 0 {
			pages = scrapePages
		}
		baseURL := cfg.Scraper.BaseURL
		if scrapeBaseURL != "" {
			baseURL = scrapeBaseURL
		}
		out := cfg.Scraper.CSVPath
		if scrapeOut != "" {
			out = scrapeOut
		}

		utils.Info("Scraper starting | pages=%d delay=%v renderer=%s", pages, cfg.Scraper.PageDelay, cfg.Scraper.Renderer)

		var store storage.Store
		if !scrapeNoStore {
			s, err := storage.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			store = s
		}

		pipeline, err := newPipeline(store)
		if err != nil {
			return err
		}

		utils.Section("SCRAPING")
		result := pipeline.RunBulk(ctx, baseURL, pages)

		// the CSV is written even when every page failed
		if err := storage.NewCSVWriter(out).Write(result.Rows); err != nil {
			return err
		}

		services.PrintReport(os.Stdout, services.GenerateReport(result))
		return nil
	},
}
