package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/banux/tcg-kiosk/internal/catalog"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		q      catalog.Query
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one catalog query and print the result",
		Example: `  tcg-kiosk query --game pokemon --set "Base" --page 2
  tcg-kiosk query --game one-piece --type red --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.snapshot()
			if err != nil {
				return err
			}
			if q.GameSlug != "" {
				if _, err := cat.Group(q.GameSlug); err != nil {
					return fmt.Errorf("game %q: %w", q.GameSlug, err)
				}
			}
			if q.PageSize <= 0 {
				q.PageSize = a.cfg.PageSize
			}
			res := a.engine().Evaluate(cat, q)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			table := tablewriter.NewTable(out)
			table.Header("ID", "Name", "Game", "Set", "Type")
			for _, c := range res.Items {
				if err := table.Append(c.ID, c.Name, c.Game, c.Set, strings.Join(c.TypeValues, ", ")); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			status := a.tr.T("No cards match your filters.")
			if res.Total > 0 {
				status = a.tr.T("Page %d of %d", res.Page, res.TotalPages)
			}
			_, err = fmt.Fprintf(out, "%s (%d)\n", status, res.Total)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.GameSlug, "game", "", "game directory slug")
	f.StringVar(&q.SetName, "set", "", "exact set display name")
	f.StringVar(&q.TypeValue, "type", "", "type filter value")
	f.StringVarP(&q.SearchText, "search", "q", "", "case-insensitive name substring")
	f.IntVar(&q.Page, "page", 1, "1-based page number")
	f.IntVar(&q.PageSize, "size", 0, "cards per page (default: page_size)")
	f.BoolVar(&asJSON, "json", false, "print the result page as JSON")
	return cmd
}
