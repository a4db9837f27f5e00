// =============================================================================
// Contpaq Normalizer - Concepts Command
// =============================================================================
//
// This file defines the 'concepts' command group, the CLI surface of the
// concept maintenance features: listing the concept inventory and mass-editing
// the resolved concept of stored records.
//
// COMMAND USAGE:
//   normalizer concepts list --dataset apk
//   normalizer concepts replace --dataset apk --from "OBRA EN PROC" --to "OBRA CIVIL"
//   normalizer concepts rename --id <uuid> --text "OBRA CIVIL"
//   normalizer concepts delete --id <uuid>
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/store"
)

// conceptsDataset is the dataset partition to list or edit.
var conceptsDataset string

// conceptsReplaceFrom holds the concept labels to replace (repeatable).
var conceptsReplaceFrom []string

// conceptsReplaceTo is the replacement concept label.
var conceptsReplaceTo string

// conceptsID is the concept list entry to rename or delete.
var conceptsID string

// conceptsText is the new text for a renamed concept.
var conceptsText string

// conceptsCmd represents the 'concepts' command group.
var conceptsCmd = &cobra.Command{
	Use:   "concepts",
	Short: "Inspect and edit concepts",
	Long: `The concepts command group maintains the concept vocabulary. 'list' shows
the reusable concept list and, with --dataset, the distinct concepts found in
one stored dataset. 'replace' rewrites the concept of every stored record
whose current concept matches one of the given labels. 'rename' and 'delete'
edit entries of the reusable concept list by ID.`,
}

// conceptsListCmd represents 'concepts list'.
var conceptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the concept list, or the distinct concepts of a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConceptsList()
	},
}

// conceptsReplaceCmd represents 'concepts replace'.
var conceptsReplaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Rewrite matching concepts across a dataset's records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConceptsReplace()
	},
}

// conceptsRenameCmd represents 'concepts rename'.
var conceptsRenameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename a concept list entry by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConceptsRename()
	},
}

// conceptsDeleteCmd represents 'concepts delete'.
var conceptsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a concept list entry by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConceptsDelete()
	},
}

func init() {
	rootCmd.AddCommand(conceptsCmd)
	conceptsCmd.AddCommand(conceptsListCmd)
	conceptsCmd.AddCommand(conceptsReplaceCmd)
	conceptsCmd.AddCommand(conceptsRenameCmd)
	conceptsCmd.AddCommand(conceptsDeleteCmd)

	conceptsListCmd.Flags().StringVar(
		&conceptsDataset,
		"dataset",
		"",
		"Also list the distinct concepts stored in this dataset (apk, epk, gg, prorrateo)",
	)

	conceptsReplaceCmd.Flags().StringVar(
		&conceptsDataset,
		"dataset",
		"",
		"Dataset whose records to edit (apk, epk, gg, prorrateo)",
	)
	conceptsReplaceCmd.Flags().StringSliceVar(
		&conceptsReplaceFrom,
		"from",
		nil,
		"Concept label(s) to replace (repeatable)",
	)
	conceptsReplaceCmd.Flags().StringVar(
		&conceptsReplaceTo,
		"to",
		"",
		"Replacement concept label",
	)
	conceptsReplaceCmd.MarkFlagRequired("dataset")
	conceptsReplaceCmd.MarkFlagRequired("from")
	conceptsReplaceCmd.MarkFlagRequired("to")

	conceptsRenameCmd.Flags().StringVar(&conceptsID, "id", "", "Concept ID to rename")
	conceptsRenameCmd.Flags().StringVar(&conceptsText, "text", "", "New concept text")
	conceptsRenameCmd.MarkFlagRequired("id")
	conceptsRenameCmd.MarkFlagRequired("text")

	conceptsDeleteCmd.Flags().StringVar(&conceptsID, "id", "", "Concept ID to delete")
	conceptsDeleteCmd.MarkFlagRequired("id")
}

// runConceptsList prints the concept list and, optionally, a dataset's
// distinct concepts.
func runConceptsList() error {
	st, err := openConfiguredStore()
	if err != nil {
		return err
	}

	concepts, err := st.Concepts()
	if err != nil {
		return err
	}
	fmt.Printf("Concept list (%d):\n", len(concepts))
	for _, c := range concepts {
		fmt.Printf("  %s  %s\n", c.ID, c.Text)
	}

	if conceptsDataset == "" {
		return nil
	}
	if !store.ValidDataset(conceptsDataset) {
		return fmt.Errorf("unknown dataset %q (expected apk, epk, gg or prorrateo)", conceptsDataset)
	}
	unique, err := st.UniqueConcepts(conceptsDataset)
	if err != nil {
		return err
	}
	fmt.Printf("\nDistinct concepts in %s (%d):\n", conceptsDataset, len(unique))
	for _, c := range unique {
		fmt.Printf("  %s\n", c)
	}
	return nil
}

// runConceptsReplace mass-edits record concepts in one dataset.
func runConceptsReplace() error {
	if !store.ValidDataset(conceptsDataset) {
		return fmt.Errorf("unknown dataset %q (expected apk, epk, gg or prorrateo)", conceptsDataset)
	}
	if conceptsReplaceTo == "" {
		return fmt.Errorf("--to must not be empty")
	}

	st, err := openConfiguredStore()
	if err != nil {
		return err
	}

	changed, err := st.ReplaceConcept(conceptsDataset, conceptsReplaceFrom, conceptsReplaceTo)
	if err != nil {
		return fmt.Errorf("failed to replace concepts: %w", err)
	}

	fmt.Printf("✓ Updated %d record(s) in %s to %q\n", changed, conceptsDataset, conceptsReplaceTo)
	return nil
}

// runConceptsRename rewrites the text of a concept list entry.
func runConceptsRename() error {
	st, err := openConfiguredStore()
	if err != nil {
		return err
	}
	if err := st.UpdateConcept(conceptsID, conceptsText); err != nil {
		return err
	}
	fmt.Printf("✓ Renamed concept %s to %q\n", conceptsID, conceptsText)
	return nil
}

// runConceptsDelete removes a concept list entry.
func runConceptsDelete() error {
	st, err := openConfiguredStore()
	if err != nil {
		return err
	}
	if err := st.DeleteConcept(conceptsID); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted concept %s\n", conceptsID)
	return nil
}

// openConfiguredStore loads the config and opens the store it points at.
func openConfiguredStore() (*store.Store, error) {
	mainConfig, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return openStore(mainConfig)
}
