package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prepwise/interview-intel/internal/config"
	"github.com/prepwise/interview-intel/internal/domain/taxonomy"
	"github.com/prepwise/interview-intel/pkg/insight"
	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

// NewTaxonomyCmd creates the taxonomy command group.
func NewTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect and validate the topic taxonomy",
	}

	cmd.AddCommand(
		newTaxonomyShowCmd(),
		newTaxonomyValidateCmd(),
	)

	return cmd
}

func newTaxonomyShowCmd() *cobra.Command {
	var categoryName string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the taxonomy the engine is configured with",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			tax := cliCtx.Engine.Taxonomy()
			categories := tax.Categories()
			if categoryName != "" {
				cat, ok := types.ParseCategory(categoryName)
				if !ok {
					return fmt.Errorf("unknown category %q", categoryName)
				}
				categories = []types.Category{cat}
			}

			return PrintResult(cmd, taxonomyView(tax, categories))
		},
	}

	cmd.Flags().StringVar(&categoryName, "category", "", "show only this category")
	return cmd
}

func newTaxonomyValidateCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a standalone taxonomy YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := insight.BuildTaxonomy(config.TaxonomyConfig{Path: filePath})
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("%s: %d terms across %d categories",
				filePath, tax.Size(), len(tax.Categories())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "taxonomy YAML file to validate (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// taxonomyView builds the printable representation of selected categories.
func taxonomyView(tax *taxonomy.Taxonomy, categories []types.Category) taxonomyTable {
	view := taxonomyTable{}
	for _, cat := range categories {
		for _, fam := range tax.FamiliesIn(cat) {
			view.rows = append(view.rows, []string{
				string(cat),
				strconv.FormatFloat(tax.MultiplierFor(cat), 'f', 2, 64),
				fam.Canonical,
				strings.Join(fam.Terms, ", "),
			})
		}
	}
	return view
}

type taxonomyTable struct {
	rows [][]string
}

func (t taxonomyTable) TableHeaders() []string {
	return []string{"CATEGORY", "MULTIPLIER", "CANONICAL", "TERMS"}
}

func (t taxonomyTable) TableRows() [][]string {
	return t.rows
}

// MarshalJSON renders the same rows as structured objects for -o json.
func (t taxonomyTable) MarshalJSON() ([]byte, error) {
	type familyJSON struct {
		Category   string `json:"category"`
		Multiplier string `json:"multiplier"`
		Canonical  string `json:"canonical"`
		Terms      string `json:"terms"`
	}
	out := make([]familyJSON, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, familyJSON{row[0], row[1], row[2], row[3]})
	}
	return json.Marshal(out)
}
