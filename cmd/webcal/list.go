package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"webcal/internal/ics"
	appLog "webcal/internal/log"
)

func newListCmd() *cobra.Command {
	var (
		fromStr string
		days    int
	)

	cmd := &cobra.Command{
		Use:   "list <file-or-dir>",
		Short: "List occurrences from local .ics files",
		Long: `List parses the given .ics file, or every .ics file in the given
directory, expands recurring events, and prints one line per
occurrence inside the window.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			from := time.Now()
			if fromStr != "" {
				t, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --from date %q: %w", fromStr, err)
				}
				from = t
			}

			files, err := icsFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .ics files under %s", args[0])
			}

			var events []ics.ParsedEvent
			for _, file := range files {
				body, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				parsed, err := ics.ReadCalendar(file, body)
				if err != nil {
					appLog.Warn("skipping unparseable calendar", "file", file, "err", err)
					continue
				}
				events = append(events, parsed...)
			}

			occurrences, err := ics.Expand(events, ics.Window{
				Start: from,
				End:   from.AddDate(0, 0, days),
			})
			if err != nil {
				return err
			}

			for _, occ := range occurrences {
				line := fmt.Sprintf("%s %s %s",
					occ.Start.Format("2006-01-02 15:04"),
					formatDuration(occ.End.Sub(occ.Start)),
					occ.Summary,
				)
				if occ.Location != "" {
					line += " (" + occ.Location + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "window start date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 30, "window length in days")

	return cmd
}

// icsFiles resolves path to the .ics files to read: the file itself,
// or every .ics directly inside the directory.
func icsFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".ics") {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("+%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
