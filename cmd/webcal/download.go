package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"webcal/internal/fetch"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <url> [output]",
		Short: "Download a file (e.g. an exported .ics) from a URL",
		Long: `Download saves the file at the given URL locally. The output name
defaults to the one in the Content-Disposition header, then the URL
path, then canvas.ics.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			output := ""
			if len(args) > 1 {
				output = args[1]
			}

			fetcher := fetch.NewFetcher(time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.UserAgent)
			name, err := fetcher.Download(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}

			fmt.Printf("Downloaded %s\n", name)
			return nil
		},
	}
}
