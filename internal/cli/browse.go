package cli

import (
	"github.com/spf13/cobra"

	"github.com/banux/tcg-kiosk/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.snapshot()
			if err != nil {
				return err
			}
			return tui.Run(cat, tui.Options{
				Engine:     a.engine(),
				Translator: a.tr,
				PageSize:   a.cfg.PageSize,
				ImageProxy: a.imageProxy(),
			})
		},
	}
}
