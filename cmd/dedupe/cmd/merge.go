package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/merge"
)

var (
	mergeAction     string
	mergeActor      int64
	skipReviews     bool
	skipPhotos      bool
	skipMeta        bool
	skipCategories  bool
	skipTags        bool
	skipClaims      bool
)

// mergeCmd consolidates duplicates into a primary record.
var mergeCmd = &cobra.Command{
	Use:   "merge <primary-id> <duplicate-id>...",
	Short: "Merge duplicate records into a primary",
	Long: `Merge moves reviews, photos, taxonomy terms, and missing fields from
the duplicates onto the primary record, transfers ownership claims, then
disposes of the duplicates.

The disposition action defaults to disable, the only action that can be
undone. Redirect keeps the duplicates as pointers at the primary; delete
removes them permanently.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		primaryID, duplicateIDs := ids[0], ids[1:]

		action := directory.Action(mergeAction)
		if !action.Valid() {
			return fmt.Errorf("invalid action %q: must be delete, disable, or redirect", mergeAction)
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.close()

		opts := []merge.MergeOption{merge.WithAction(action)}
		if mergeActor != 0 {
			opts = append(opts, merge.WithActor(mergeActor))
		}
		if skipReviews {
			opts = append(opts, merge.WithoutReviews())
		}
		if skipPhotos {
			opts = append(opts, merge.WithoutPhotos())
		}
		if skipMeta {
			opts = append(opts, merge.WithoutMeta())
		}
		if skipCategories {
			opts = append(opts, merge.WithoutCategories())
		}
		if skipTags {
			opts = append(opts, merge.WithoutTags())
		}
		if skipClaims {
			opts = append(opts, merge.WithoutClaims())
		}

		result, err := eng.merger.Merge(cmd.Context(), primaryID, duplicateIDs, opts...)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Summary())
		fmt.Fprintf(out, "  reviews moved:      %d\n", result.Outcome.ReviewsMoved)
		fmt.Fprintf(out, "  photos merged:      %d\n", result.Outcome.PhotosMerged)
		fmt.Fprintf(out, "  fields filled:      %d\n", len(result.Outcome.FieldsFilled))
		fmt.Fprintf(out, "  categories added:   %d\n", result.Outcome.CategoriesAdded)
		fmt.Fprintf(out, "  tags added:         %d\n", result.Outcome.TagsAdded)
		fmt.Fprintf(out, "  claims transferred: %d\n", result.Outcome.ClaimsTransferred)
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "  FAILED %d: %s\n", failure.DuplicateID, failure.Message)
		}
		return nil
	},
}

// previewCmd shows what a merge would do without writing anything.
var previewCmd = &cobra.Command{
	Use:   "preview <primary-id> <duplicate-id>...",
	Short: "Preview a merge without applying it",
	Args:  cobra.MinimumNArgs(2),
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

		diff, err := eng.merger.Preview(cmd.Context(), ids[0], ids[1:])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(diff)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Merging %d records into %q (#%d)\n\n",
			len(diff.Duplicates), diff.Primary.Title, diff.Primary.ID)
		if len(diff.Changes) == 0 {
			fmt.Fprintln(out, "Nothing to merge: only the duplicates' status would change.")
			return nil
		}

		rows := make([][]string, 0, len(diff.Changes))
		for _, change := range diff.Changes {
			count := ""
			if change.Count > 0 {
				count = strconv.Itoa(change.Count)
			}
			from := ""
			if change.FromID > 0 {
				from = strconv.FormatInt(change.FromID, 10)
			}
			rows = append(rows, []string{
				string(change.Category), change.Field, change.Value, count, from,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Change", "Field", "Value", "Count", "From"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		))
		return nil
	},
}

// undoCmd reverses the most recent merge's disposal step.
var undoCmd = &cobra.Command{
	Use:   "undo <primary-id>",
	Short: "Undo the most recent merge on a primary record",
	Long: `Undo restores the duplicates disabled by the primary's most recent
merge to their prior status. Only merges that used the disable action can
be undone. Reviews, fields, and taxonomy merged into the primary stay
merged.`,
	Args: cobra.ExactArgs(1),
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

		result, err := eng.merger.Undo(cmd.Context(), ids[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Restored %d records: %v\n", len(result.Restored), result.Restored)
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "  FAILED %d: %s\n", failure.DuplicateID, failure.Message)
		}
		fmt.Fprintln(out, result.Note)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeAction, "action", string(directory.ActionDisable),
		"disposition for the duplicates: delete, disable, or redirect")
	mergeCmd.Flags().Int64Var(&mergeActor, "actor", 0, "user id recorded in the merge log")
	mergeCmd.Flags().BoolVar(&skipReviews, "skip-reviews", false, "do not reassign reviews")
	mergeCmd.Flags().BoolVar(&skipPhotos, "skip-photos", false, "do not merge photo galleries")
	mergeCmd.Flags().BoolVar(&skipMeta, "skip-fields", false, "do not fill empty fields from duplicates")
	mergeCmd.Flags().BoolVar(&skipCategories, "skip-categories", false, "do not union categories")
	mergeCmd.Flags().BoolVar(&skipTags, "skip-tags", false, "do not union tags")
	mergeCmd.Flags().BoolVar(&skipClaims, "skip-claims", false, "do not transfer ownership claims")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(undoCmd)
}
