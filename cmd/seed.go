// =============================================================================
// Contpaq Normalizer - Seed Command
// =============================================================================
//
// This file defines the 'seed' command, which loads reference data into the
// store from a YAML seed file: concept mappings (code tier), text mappings
// (text tier), segment weights, and the concept list.
//
// COMMAND USAGE:
//   normalizer seed --file ./seeds/mappings.yaml
//
// SEED FILE FORMAT:
//   concept_mappings:
//     - account_code: "020"
//       source_text: "OBRA EN PROCESO"
//       target_concept: "OBRA CIVIL"
//       scope: both
//   text_mappings:
//     - pattern: "GRANJ"
//       match_mode: prefix
//       target_concept: "SUELDOS Y SALARIOS"
//       scope: apk
//       priority: 10
//   segments:
//     - label: APK
//       weight: 30
//   concepts:
//     - "OBRA CIVIL"
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// seedFile is the path to the YAML seed file.
var seedFile string

// seedList prints the current reference tables instead of loading.
var seedList bool

// seedData is the on-disk shape of a seed file.
type seedData struct {
	ConceptMappings []types.ConceptMapping     `yaml:"concept_mappings"`
	TextMappings    []types.TextConceptMapping `yaml:"text_mappings"`
	Segments        []types.Segment            `yaml:"segments"`
	Concepts        []string                   `yaml:"concepts"`
}

// seedCmd represents the 'seed' command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load mappings, segments and concepts from a YAML seed file",
	Long: `The seed command loads reference data into the store: the code-tier and
text-tier concept mappings the resolver consults, the segment weights the
proration engine distributes by, and the reusable concept list.

Mappings and segments replace the existing tables; concepts append. Records
already stored in the datasets are not touched.

With --list, the command prints the current reference tables instead of
loading anything.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if seedList {
			return runSeedList()
		}
		if seedFile == "" {
			return fmt.Errorf("either --file or --list is required")
		}
		return runSeed()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(
		&seedFile,
		"file",
		"",
		"Path to the YAML seed file",
	)

	seedCmd.Flags().BoolVar(
		&seedList,
		"list",
		false,
		"Print the current mappings, segments and concepts",
	)
}

// runSeed loads a seed file into the store.
func runSeed() error {
	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	st, err := openStore(mainConfig)
	if err != nil {
		return err
	}

	if len(seed.ConceptMappings) > 0 {
		if err := st.SaveConceptMappings(seed.ConceptMappings); err != nil {
			return fmt.Errorf("failed to save concept mappings: %w", err)
		}
	}
	if len(seed.TextMappings) > 0 {
		if err := st.SaveTextMappings(seed.TextMappings); err != nil {
			return fmt.Errorf("failed to save text mappings: %w", err)
		}
	}
	if len(seed.Segments) > 0 {
		if err := st.SaveSegments(seed.Segments); err != nil {
			return fmt.Errorf("failed to save segments: %w", err)
		}
	}
	for _, text := range seed.Concepts {
		if _, err := st.AddConcept(text); err != nil {
			return fmt.Errorf("failed to add concept %q: %w", text, err)
		}
	}

	fmt.Printf("Seeded %d concept mapping(s), %d text mapping(s), %d segment(s), %d concept(s)\n",
		len(seed.ConceptMappings), len(seed.TextMappings), len(seed.Segments), len(seed.Concepts))

	return nil
}

// runSeedList prints the current reference tables.
func runSeedList() error {
	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openStore(mainConfig)
	if err != nil {
		return err
	}

	codeMappings, err := st.CodeMappings()
	if err != nil {
		return err
	}
	textMappings, err := st.TextMappings()
	if err != nil {
		return err
	}
	segments, err := st.Segments()
	if err != nil {
		return err
	}
	concepts, err := st.Concepts()
	if err != nil {
		return err
	}

	fmt.Printf("Concept mappings (%d):\n", len(codeMappings))
	for _, m := range codeMappings {
		fmt.Printf("  %-8s -> %-30s [%s]\n", m.AccountCode, m.TargetConcept, m.Scope)
	}

	fmt.Printf("\nText mappings (%d):\n", len(textMappings))
	for _, m := range textMappings {
		fmt.Printf("  %-20s (%s, priority %d) -> %-30s [%s]\n",
			m.Pattern, m.MatchMode, m.Priority, m.TargetConcept, m.Scope)
	}

	fmt.Printf("\nSegments (%d):\n", len(segments))
	for _, s := range segments {
		fmt.Printf("  %-20s weight %d\n", s.Label, s.Weight)
	}

	fmt.Printf("\nConcepts (%d):\n", len(concepts))
	for _, c := range concepts {
		fmt.Printf("  %s\n", c.Text)
	}

	return nil
}
