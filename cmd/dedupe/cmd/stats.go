package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/localindex/dedupe/pkg/dedup"
)

// countCmd prints the fast approximate duplicate-group count.
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print a fast approximate duplicate-group count",
	Long: `Count uses only the exact-title strategy, so it is cheap enough for a
dashboard badge but undercounts relative to a full find.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		count, err := eng.finder.Count(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"count": count})
		}
		fmt.Fprintln(cmd.OutOrStdout(), count)
		return nil
	},
}

// statsCmd prints aggregate statistics over the duplicate groups.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics over the detected duplicate groups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		stats, err := eng.finder.Statistics(cmd.Context(), nil)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(stats)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Groups:     %d\n", stats.TotalGroups)
		fmt.Fprintf(out, "Duplicates: %d\n\n", stats.TotalDuplicates)

		var rows [][]string
		for _, method := range dedup.AllowedMethods() {
			if count := stats.ByMethod[method]; count > 0 {
				rows = append(rows, []string{method.Label(), strconv.Itoa(count)})
			}
		}
		if len(rows) > 0 {
			fmt.Fprintln(out, renderTable(
				[]string{"Method", "Groups"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
		}

		confidenceRows := [][]string{
			{"high", strconv.Itoa(stats.ByConfidence[dedup.ConfidenceHigh])},
			{"medium", strconv.Itoa(stats.ByConfidence[dedup.ConfidenceMedium])},
			{"low", strconv.Itoa(stats.ByConfidence[dedup.ConfidenceLow])},
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Confidence", "Groups"},
			confidenceRows,
			[]columnAlignment{alignLeft, alignRight},
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(statsCmd)
}
