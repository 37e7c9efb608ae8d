package commands

import (
	"context"
	"fmt"
	"os"

	"flat-scraper/config"
	"flat-scraper/scraper/cian"
	"flat-scraper/scraper/render"
	"flat-scraper/storage"
	"flat-scraper/utils"

	"github.com/spf13/cobra"
)

var (
	configPath string
	noColor    bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "flat-scraper",
	Short:         "flat-scraper collects rental listings from cian.ru into a database and CSV.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.SetColor(!noColor)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured log output")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
}

// newPipeline wires the renderer and, when store is not nil, the sink.
func newPipeline(store storage.Store) (*cian.Pipeline, error) {
	factory, err := render.NewFactory(cfg)
	if err != nil {
		return nil, err
	}

	var sink *storage.Sink
	if store != nil {
		sink = storage.NewSink(store)
	}
	return cian.NewPipeline(cfg.Scraper, factory, sink), nil
}
