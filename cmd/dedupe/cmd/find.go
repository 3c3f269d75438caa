package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localindex/dedupe/pkg/dedup"
)

var (
	findMethods []string
	findNoCache bool
)

// findCmd runs duplicate detection and prints the groups.
var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find groups of likely duplicate records",
	Long: `Find runs the detection strategies and prints the resulting duplicate
groups, highest confidence first. Restrict detection with --method:

  exact_title, normalized_title, title_city, title_address, phone, website`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		var opts []dedup.FindOption
		if len(findMethods) > 0 {
			methods := make([]dedup.Method, 0, len(findMethods))
			for _, name := range findMethods {
				method := dedup.Method(strings.TrimSpace(name))
				if !method.Valid() {
					return fmt.Errorf("unknown detection method %q", name)
				}
				methods = append(methods, method)
			}
			opts = append(opts, dedup.WithMethods(methods...))
		}
		if findNoCache {
			opts = append(opts, dedup.WithoutCache())
		}

		groups, err := eng.finder.Find(cmd.Context(), opts...)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(groups)
		}
		if len(groups) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No duplicate groups found.")
			return nil
		}

		rows := make([][]string, 0, len(groups))
		for _, group := range groups {
			labels := make([]string, len(group.Methods))
			for i, method := range group.Methods {
				labels[i] = method.Label()
			}
			ids := make([]string, len(group.RecordIDs))
			for i, id := range group.RecordIDs {
				ids[i] = strconv.FormatInt(id, 10)
			}
			rows = append(rows, []string{
				group.MatchKey,
				string(group.Confidence),
				strings.Join(labels, ", "),
				strings.Join(ids, ", "),
				strconv.Itoa(group.Count),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Match", "Confidence", "Methods", "Record IDs", "Count"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		))
		fmt.Fprintf(cmd.OutOrStdout(), "%d duplicate groups\n", len(groups))
		return nil
	},
}

func init() {
	findCmd.Flags().StringSliceVar(&findMethods, "method", nil, "restrict detection to these methods")
	findCmd.Flags().BoolVar(&findNoCache, "no-cache", false, "skip cached results and recompute")
	rootCmd.AddCommand(findCmd)
}
