// =============================================================================
// Contpaq Normalizer - Prorate Command
// =============================================================================
//
// This file defines the 'prorate' command, which distributes the stored
// general-expense totals across the production segments by weight and stores
// the resulting proration records.
//
// COMMAND USAGE:
//   normalizer prorate [flags]
//
// FLAGS:
//   --dry-run : Print the generated records without persisting them
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/proration"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
)

// prorateDryRun prints the generated records without persisting them.
var prorateDryRun bool

// prorateCmd represents the 'prorate' command.
var prorateCmd = &cobra.Command{
	Use:   "prorate",
	Short: "Distribute general expenses across segments by weight",
	Long: `The prorate command aggregates the stored general-expense records by
concept, distributes each concept total across the configured segments in
proportion to their weights, and stores the resulting records in the
proration dataset.

Segment weights are maintained with 'normalizer seed' or by editing the
store; a segment with zero weight receives a zero share. The previous
proration dataset is replaced.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProrate()
	},
}

func init() {
	rootCmd.AddCommand(prorateCmd)

	prorateCmd.Flags().BoolVar(
		&prorateDryRun,
		"dry-run",
		false,
		"Print the generated records without persisting them",
	)
}

// runProrate generates and stores the proration dataset.
func runProrate() error {
	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openStore(mainConfig)
	if err != nil {
		return err
	}

	expenses, err := st.Records(store.DatasetGG)
	if err != nil {
		return fmt.Errorf("failed to read general expenses: %w", err)
	}
	if len(expenses) == 0 {
		return fmt.Errorf("no general-expense records in the store; ingest a GG workbook first")
	}

	segments, err := st.Segments()
	if err != nil {
		return fmt.Errorf("failed to read segments: %w", err)
	}

	engine := proration.New()
	records, err := engine.Generate(expenses, segments)
	if err != nil {
		return fmt.Errorf("failed to generate prorations: %w", err)
	}

	fmt.Printf("Generated %d proration record(s) from %d expense(s) across %d segment(s)\n",
		len(records), len(expenses), len(segments))

	// Per-concept totals, in emission order.
	var conceptOrder []string
	conceptTotals := make(map[string]float64)
	for _, r := range records {
		if _, seen := conceptTotals[r.Concept]; !seen {
			conceptOrder = append(conceptOrder, r.Concept)
		}
		conceptTotals[r.Concept] += r.Amount
	}
	for _, concept := range conceptOrder {
		fmt.Printf("  %-40s %12.2f\n", concept, conceptTotals[concept])
	}

	if prorateDryRun {
		for _, r := range records {
			fmt.Printf("  %s  %-30s %-12s %12.2f\n", r.Date, r.Concept, r.Segment, r.Amount)
		}
		return nil
	}

	if err := st.SaveRecords(store.DatasetProrrateo, records); err != nil {
		return fmt.Errorf("failed to persist prorations: %w", err)
	}

	fmt.Println("Proration dataset updated.")
	return nil
}
