package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/pace-projection-api/internal/scheduler"
	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
	"github.com/noah-isme/pace-projection-api/pkg/export"
)

// planFile is the on-disk subject list. YAML is a superset of JSON so both parse
// through the same decoder.
type planFile struct {
	Subjects []planSubject `yaml:"subjects" validate:"required,min=1,max=6,dive"`
}

type planSubject struct {
	SubSubjectID string   `yaml:"subSubjectId" validate:"required"`
	StartPace    int      `yaml:"startPace" validate:"required,min=1"`
	EndPace      int      `yaml:"endPace" validate:"required,min=1,gtefield=StartPace"`
	SkipPaces    []int    `yaml:"skipPaces" validate:"omitempty,dive,min=1"`
	NotPairWith  []string `yaml:"notPairWith" validate:"omitempty,dive,required"`
	Difficulty   *int     `yaml:"difficulty" validate:"omitempty,min=1,max=5"`
}

type generateOutput struct {
	Strategy    scheduler.Strategy         `json:"strategy"`
	TotalPaces  int                        `json:"totalPaces"`
	Assignments []scheduler.PaceAssignment `json:"assignments"`
}

func newGenerateCmd() *cobra.Command {
	var input string
	var format string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a pace projection from a YAML or JSON subject list",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := loadPlanFile(input)
			if err != nil {
				return err
			}
			result, err := scheduler.Generate(plan.toInput())
			if err != nil {
				return describeError(err)
			}
			return writeResult(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to the subject list (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func loadPlanFile(path string) (*planFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var plan planFile
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validator.New().Struct(plan); err != nil {
		return nil, fmt.Errorf("invalid subject list: %w", err)
	}
	return &plan, nil
}

func (p *planFile) toInput() scheduler.Input {
	input := scheduler.Input{Subjects: make([]scheduler.SubjectInput, 0, len(p.Subjects))}
	for _, s := range p.Subjects {
		input.Subjects = append(input.Subjects, scheduler.SubjectInput{
			SubSubjectID: s.SubSubjectID,
			StartPace:    s.StartPace,
			EndPace:      s.EndPace,
			SkipPaces:    s.SkipPaces,
			NotPairWith:  s.NotPairWith,
			Difficulty:   s.Difficulty,
		})
	}
	return input
}

func describeError(err error) error {
	appErr := appErrors.FromError(err)
	return fmt.Errorf("%s: %s", appErr.Code, appErr.Message)
}

func writeResult(w io.Writer, format string, result *scheduler.Result) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(generateOutput{
			Strategy:    result.Strategy,
			TotalPaces:  result.TotalPaces,
			Assignments: result.Assignments,
		})
	case "csv":
		payload, err := export.NewCSVExporter().Render(toDataset(result))
		if err != nil {
			return err
		}
		_, err = w.Write(payload)
		return err
	case "table", "":
		return writeTable(w, result)
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}

func toDataset(result *scheduler.Result) export.Dataset {
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Pace Projection (%s)", result.Strategy),
		Headers: []string{"Quarter", "Week", "Sub-Subject", "Pace"},
	}
	for _, a := range result.Assignments {
		name := fmt.Sprintf("Quarter %d", a.Quarter)
		if n := len(dataset.Sections); n == 0 || dataset.Sections[n-1].Name != name {
			dataset.Sections = append(dataset.Sections, export.Section{Name: name})
		}
		section := &dataset.Sections[len(dataset.Sections)-1]
		section.Rows = append(section.Rows, []string{
			strconv.Itoa(a.Quarter),
			strconv.Itoa(a.Week),
			a.SubSubjectID,
			strconv.Itoa(a.PaceCode),
		})
	}
	return dataset
}

// writeTable prints one line per week with that week's paces side by side.
func writeTable(w io.Writer, result *scheduler.Result) error {
	fmt.Fprintf(w, "strategy: %s  paces: %d\n\n", result.Strategy, result.TotalPaces)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUARTER\tWEEK\tPACES")
	var line []string
	quarter, week := 0, 0
	flush := func() {
		if quarter != 0 {
			fmt.Fprintf(tw, "%d\t%d\t%s\n", quarter, week, strings.Join(line, ", "))
		}
	}
	for _, a := range result.Assignments {
		if a.Quarter != quarter || a.Week != week {
			flush()
			quarter, week, line = a.Quarter, a.Week, line[:0]
		}
		line = append(line, fmt.Sprintf("%s %d", a.SubSubjectID, a.PaceCode))
	}
	flush()
	return tw.Flush()
}
