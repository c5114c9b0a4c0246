package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/banux/tcg-kiosk/internal/backend/fs"
)

// gameSummary aggregates the report lines of one game.
type gameSummary struct {
	Game       string `json:"game"`
	Loaded     int    `json:"loaded"`
	Excluded   int    `json:"excluded"`
	Malformed  int    `json:"malformed"`
	Unreadable int    `json:"unreadable"`
	Cards      int    `json:"cards"`
	Dropped    int    `json:"dropped"`
}

func summarize(rep fs.Report) []gameSummary {
	var out []gameSummary
	index := make(map[string]int)
	for _, f := range rep.Files {
		i, ok := index[f.Game]
		if !ok {
			i = len(out)
			index[f.Game] = i
			out = append(out, gameSummary{Game: f.Game})
		}
		s := &out[i]
		switch f.Outcome {
		case fs.OutcomeLoaded:
			s.Loaded++
		case fs.OutcomeExcluded:
			s.Excluded++
		case fs.OutcomeMalformed:
			s.Malformed++
		case fs.OutcomeUnreadable:
			s.Unreadable++
		}
		s.Cards += f.Cards
		s.Dropped += f.Dropped
	}
	return out
}

func newScanCmd(a *app) *cobra.Command {
	var (
		showFiles bool
		asJSON    bool
		noBar     bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Walk the data directory and report what would be loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.loaderOptions()

			var bar *progressbar.ProgressBar
			if !noBar && !asJSON {
				bar = progressbar.NewOptions(fs.CountCardFiles(a.cfg.DataDir),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("Scanning card files"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetItsString("files"),
					progressbar.OptionClearOnFinish(),
				)
				opts.OnFile = func(string) { _ = bar.Add(1) }
			}

			cat, rep := fs.NewLoader(opts).Load(a.cfg.DataDir)
			if bar != nil {
				_ = bar.Finish()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"games":        summarize(rep),
					"files":        rep.Files,
					"cards":        cat.CardCount(),
					"lastModified": cat.LastModified,
				})
			}
			if err := writeSummaryTable(out, rep); err != nil {
				return err
			}
			if showFiles {
				if err := writeFilesTable(out, rep); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(out, "%d games, %d cards, %d files skipped\n",
				len(cat.Groups), cat.CardCount(),
				rep.Count(fs.OutcomeMalformed)+rep.Count(fs.OutcomeUnreadable))
			return err
		},
	}
	cmd.Flags().BoolVar(&showFiles, "files", false, "list every card file with its outcome")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "disable the progress bar")
	return cmd
}

func writeSummaryTable(w io.Writer, rep fs.Report) error {
	table := tablewriter.NewTable(w)
	table.Header("Game", "Loaded", "Excluded", "Malformed", "Unreadable", "Cards", "Dropped")
	for _, s := range summarize(rep) {
		if err := table.Append(s.Game,
			strconv.Itoa(s.Loaded), strconv.Itoa(s.Excluded),
			strconv.Itoa(s.Malformed), strconv.Itoa(s.Unreadable),
			strconv.Itoa(s.Cards), strconv.Itoa(s.Dropped)); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeFilesTable(w io.Writer, rep fs.Report) error {
	table := tablewriter.NewTable(w)
	table.Header("Path", "Outcome", "Cards", "Dropped", "Error")
	for _, f := range rep.Files {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if err := table.Append(f.Path, string(f.Outcome), strconv.Itoa(f.Cards), strconv.Itoa(f.Dropped), msg); err != nil {
			return err
		}
	}
	return table.Render()
}
