package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// detailsCmd prints the admin view of one duplicate group's members.
var detailsCmd = &cobra.Command{
	Use:   "details <record-id>...",
	Short: "Show display details for a group of records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		details, err := eng.finder.GroupDetails(cmd.Context(), ids)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(details)
		}
		if len(details) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records found.")
			return nil
		}

		rows := make([][]string, 0, len(details))
		for _, detail := range details {
			claimed := ""
			if detail.IsClaimed {
				claimed = "yes"
			}
			rating := ""
			if detail.ReviewCount > 0 {
				rating = fmt.Sprintf("%.1f (%d)", detail.AvgRating, detail.ReviewCount)
			}
			rows = append(rows, []string{
				strconv.FormatInt(detail.ID, 10),
				detail.Title,
				detail.Status,
				detail.Address,
				detail.City,
				detail.Phone,
				strings.Join(detail.Categories, ", "),
				rating,
				claimed,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Title", "Status", "Address", "City", "Phone", "Categories", "Rating", "Claimed"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
		return nil
	},
}

// parseIDs converts positional arguments to record ids.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}
