package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webcal/internal/config"
	"webcal/internal/fetch"
	"webcal/internal/llm"
	appLog "webcal/internal/log"
	"webcal/internal/pipeline"
)

// maxBatchSites caps how many website links one batch run processes.
const maxBatchSites = 4

func newBatchCmd() *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "batch <links.json>",
		Short: "Process a JSON list of links: one file download plus up to four site extractions",
		Long: `Batch reads a JSON array of links. The first entry is downloaded as a
file; the remaining entries (up to four) are scraped and converted to
ICS. Without --execute the planned actions are printed and nothing
touches the network. Per-link failures are logged and skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			links, err := loadLinks(args[0])
			if err != nil {
				return err
			}
			if len(links) < 2 {
				return &config.ConfigurationError{Msg: "expected at least 2 links: 1 file link and 1 website link"}
			}

			fileLink := links[0]
			siteLinks := links[1:]
			if len(siteLinks) > maxBatchSites {
				siteLinks = siteLinks[:maxBatchSites]
			}

			if !execute {
				fmt.Println("Dry run; planned actions:")
				fmt.Printf("- download file from %s\n", fileLink)
				for i, u := range siteLinks {
					fmt.Printf("- convert website %d to ICS: %s\n", i+1, u)
				}
				fmt.Println("Re-run with --execute to perform them.")
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiKey, err := config.ResolveAPIKey("", cfg.APIKeyEnv)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
			fetcher := fetch.NewFetcher(timeout, cfg.UserAgent)
			client := llm.NewClient(cfg.Endpoint, apiKey, timeout)

			if name, err := fetcher.Download(cmd.Context(), fileLink, ""); err != nil {
				appLog.Error("file download failed, continuing with websites", err, "url", fileLink)
			} else {
				fmt.Printf("Downloaded %s\n", name)
			}

			var failed int
			for _, u := range siteLinks {
				summary, err := pipeline.Run(cmd.Context(), pipeline.Options{
					URL:        u,
					OutputPath: "events.ics",
					Model:      cfg.Model,
					MaxChars:   cfg.MaxChars,
					DayFirst:   cfg.DateOrder == "dmy",
				}, pipeline.Deps{
					FetchText: fetcher.Fetch,
					Complete:  client.Complete,
				})
				if err != nil {
					failed++
					appLog.Error("site conversion failed, continuing", err, "url", u)
					continue
				}
				fmt.Printf("Wrote %d event(s) to %s\n", summary.EventCount, summary.OutputPath)
			}

			if failed == len(siteLinks) {
				return fmt.Errorf("all %d site conversions failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "perform the network actions instead of printing the plan")

	return cmd
}

// loadLinks reads a JSON array of link strings.
func loadLinks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, &config.ConfigurationError{Msg: fmt.Sprintf("%s must contain a JSON array of links: %v", path, err)}
	}
	return links, nil
}
