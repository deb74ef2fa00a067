package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"KabuScout/internal/watchlist"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List the watchlist sectors and their tickers",
	Run: func(cmd *cobra.Command, args []string) {
		wl := watchlist.New(cfg.Watchlist)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, sec := range wl.SectorTickers() {
			fmt.Fprintf(tw, "%s (%d)\n", sec.Name, len(sec.Tickers))
			for _, t := range sec.Tickers {
				fmt.Fprintf(tw, "  %s\t%s\n", t.Symbol, t.Name)
			}
		}
		tw.Flush()
	},
}
