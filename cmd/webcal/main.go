// webcal downloads a web page, asks a language model to extract the
// event listings from it, and writes the result as an iCalendar file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webcal/internal/config"
	"webcal/internal/extract"
	"webcal/internal/fetch"
	"webcal/internal/ics"
	"webcal/internal/llm"
	appLog "webcal/internal/log"
	"webcal/internal/pipeline"
)

const version = "0.2.0"

var rootFlags struct {
	configPath string
	render     bool
	overwrite  bool
	maxChars   int
	timeout    int
	verbose    bool
	dateOrder  string
}

func main() {
	root := newRootCmd()
	root.AddCommand(newDownloadCmd(), newListCmd(), newBatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "webcal: %s: %v\n", stageFor(err), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webcal <url> [output.ics] [model] [api_key]",
		Short:   "Extract events from a web page into an iCalendar file",
		Version: version,
		Args:    cobra.RangeArgs(1, 4),
		RunE:    runRoot,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", config.DefaultPath(), "path to config file")
	cmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&rootFlags.render, "render", false, "fetch via headless Chromium (for JavaScript-rendered pages)")
	cmd.Flags().BoolVar(&rootFlags.overwrite, "overwrite", false, "overwrite the output file instead of picking a free numbered name")
	cmd.Flags().IntVar(&rootFlags.maxChars, "max-chars", 0, "page text character budget for the prompt (0 = config default)")
	cmd.Flags().IntVar(&rootFlags.timeout, "timeout", 0, "HTTP timeout in seconds (0 = config default)")
	cmd.Flags().StringVar(&rootFlags.dateOrder, "date-order", "", "ambiguous numeric date order: mdy or dmy (default from config)")

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := args[0]
	outputPath := "events.ics"
	modelName := cfg.Model
	apiKeyArg := ""
	if len(args) > 1 {
		outputPath = args[1]
	}
	if len(args) > 2 {
		modelName = args[2]
	}
	if len(args) > 3 {
		apiKeyArg = args[3]
	}

	// Credential resolution happens before anything touches the
	// network.
	apiKey, err := config.ResolveAPIKey(apiKeyArg, cfg.APIKeyEnv)
	if err != nil {
		return err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if rootFlags.timeout > 0 {
		timeout = time.Duration(rootFlags.timeout) * time.Second
	}
	maxChars := cfg.MaxChars
	if rootFlags.maxChars > 0 {
		maxChars = rootFlags.maxChars
	}
	dayFirst := cfg.DateOrder == "dmy"
	if rootFlags.dateOrder != "" {
		dayFirst = rootFlags.dateOrder == "dmy"
	}

	fetcher := fetch.NewFetcher(timeout, cfg.UserAgent)
	client := llm.NewClient(cfg.Endpoint, apiKey, timeout)

	fetchText := fetcher.Fetch
	if rootFlags.render {
		fetchText = func(ctx context.Context, u string) (string, error) {
			return fetch.RenderText(ctx, fetch.RenderOptions{URL: u, Timeout: timeout})
		}
	}

	summary, err := pipeline.Run(cmd.Context(), pipeline.Options{
		URL:        url,
		OutputPath: outputPath,
		Model:      modelName,
		MaxChars:   maxChars,
		DayFirst:   dayFirst,
		Overwrite:  rootFlags.overwrite,
	}, pipeline.Deps{
		FetchText: fetchText,
		Complete:  client.Complete,
	})
	if err != nil {
		return err
	}

	if summary.EventCount == 0 {
		fmt.Printf("No events found; wrote empty calendar to %s\n", summary.OutputPath)
	} else {
		fmt.Printf("Wrote %d event(s) to %s\n", summary.EventCount, summary.OutputPath)
	}
	return nil
}

func setupLogging() {
	if rootFlags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
}

// loadConfig loads the YAML config, tolerating a failed first-run save
// (the defaults are still usable).
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		if cfg != nil {
			appLog.Warn("could not save default config", "path", rootFlags.configPath, "err", err)
			return cfg, nil
		}
		return nil, &config.ConfigurationError{Msg: fmt.Sprintf("load %s: %v", rootFlags.configPath, err)}
	}
	return cfg, nil
}

// stageFor names the pipeline stage an error came from, for the
// one-line diagnostic.
func stageFor(err error) string {
	var (
		fetchErr  *fetch.FetchError
		unavail   *llm.UnavailableError
		respErr   *llm.ResponseError
		parseErr  *extract.ParseError
		configErr *config.ConfigurationError
		serErr    *ics.SerializationError
		writeErr  *pipeline.WriteError
	)
	switch {
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &unavail), errors.As(err, &respErr):
		return "model"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &serErr):
		return "serialize"
	case errors.As(err, &writeErr):
		return "write"
	default:
		return "error"
	}
}
