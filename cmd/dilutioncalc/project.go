package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dilutionlab/dilution-engine/internal/form"
	"github.com/dilutionlab/dilution-engine/internal/model"
	"github.com/dilutionlab/dilution-engine/internal/report"
	"github.com/dilutionlab/dilution-engine/internal/scenario"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the pessimistic, base and optimistic scenarios",
	Long: `Project founder dilution across three pre-money valuation scenarios.

The form starts from the calculator defaults, is overlaid with --file (YAML,
same keys as "dilutioncalc defaults" prints) and then with any field flags.
Values are typed as in the calculator: "20m", "100k", "40%".`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

var projectArgs struct {
	file     string
	floorCap bool
	spread   string
	json     bool
}

// fieldFlags binds one string flag per form field.
var fieldFlags = []struct {
	name  string
	usage string
	value func(*form.Values) *string
}{
	{"pre-money", "pre-money valuation (millions unless suffixed)", func(v *form.Values) *string { return &v.PreMoneyValuation }},
	{"shares", "current number of shares (thousands unless suffixed)", func(v *form.Values) *string { return &v.NumberOfShares }},
	{"ownership", "founder ownership before the round, in percent", func(v *form.Values) *string { return &v.CurrentOwnership }},
	{"raise", "amount to raise (millions unless suffixed)", func(v *form.Values) *string { return &v.AmountToRaise }},
	{"exercise-price", "fixed warrant exercise price", func(v *form.Values) *string { return &v.ExercisePrice }},
	{"discount", "floor & cap discount to the round price, in percent", func(v *form.Values) *string { return &v.DiscountPrice }},
	{"floor", "floor & cap minimum exercise price", func(v *form.Values) *string { return &v.FloorPrice }},
	{"cap", "floor & cap maximum exercise price", func(v *form.Values) *string { return &v.CapPrice }},
	{"warrants", "number of warrants (thousands unless suffixed)", func(v *form.Values) *string { return &v.NumberOfWarrants }},
	{"warrant-amount", "cash amount of warrants, used when --warrants is empty", func(v *form.Values) *string { return &v.AmountOfWarrants }},
}

var flagValues = make(map[string]*string, len(fieldFlags))

func init() {
	f := projectCmd.Flags()
	f.StringVarP(&projectArgs.file, "file", "f", "", "YAML form file")
	f.BoolVar(&projectArgs.floorCap, "floor-cap", false, "price the warrant with a discount clamped to floor and cap")
	f.StringVar(&projectArgs.spread, "spread", scenario.DefaultSpread.String(), "relative pre-money spread of the outer scenarios")
	f.BoolVar(&projectArgs.json, "json", false, "print the scenario set as JSON")
	for _, ff := range fieldFlags {
		flagValues[ff.name] = f.String(ff.name, "", ff.usage)
	}
}

func runProject(cmd *cobra.Command, _ []string) error {
	v, err := loadForm(projectArgs.file)
	if err != nil {
		return err
	}
	for _, ff := range fieldFlags {
		if cmd.Flags().Changed(ff.name) {
			*ff.value(&v) = *flagValues[ff.name]
		}
	}
	if cmd.Flags().Changed("floor-cap") {
		v.WarrantType = model.WarrantFixed
		if projectArgs.floorCap {
			v.WarrantType = model.WarrantFloorCap
		}
	}

	spread, err := decimal.NewFromString(projectArgs.spread)
	if err != nil {
		return fmt.Errorf("--spread: %w: %q", model.ErrInvalidFormat, projectArgs.spread)
	}

	in, err := form.Capture(v)
	if err != nil {
		return err
	}
	set, err := scenario.Project(in, spread)
	if err != nil {
		return err
	}
	slog.Debug("projected", "warrant_type", in.WarrantType, "spread", spread.String())

	out := cmd.OutOrStdout()
	if projectArgs.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}
	return renderGrid(out, set)
}

// loadForm returns the default form, overlaid with the YAML file at path
// when one is given. Keys missing from the file keep their defaults.
func loadForm(path string) (form.Values, error) {
	v := form.Defaults()
	if path == "" {
		return v, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read form: %w", err)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse form %s: %w", path, err)
	}
	return v, nil
}

// renderGrid prints the scenario grid as an aligned table, followed by the
// warrant advisory when it applies.
func renderGrid(w io.Writer, set model.ScenarioSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Metric\t")
	for _, s := range model.Scenarios {
		fmt.Fprintf(tw, "%s\t", s)
	}
	fmt.Fprintln(tw)
	for _, row := range report.Grid(set) {
		fmt.Fprintf(tw, "%s\t", row.Label)
		for _, s := range model.Scenarios {
			fmt.Fprintf(tw, "%s\t", row.Values[s])
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if set.WarrantLikelyUnexercised {
		fmt.Fprintf(w, "\nWarning: %s\n", scenario.WarningMessage)
	}
	return nil
}

// describe renders an error with its code and offending fields.
func describe(err error) string {
	if !model.IsInputError(err) {
		return "error: " + err.Error()
	}
	msg := fmt.Sprintf("error [%s]: %v", model.ErrorCode(err), strings.ReplaceAll(err.Error(), "\n", "; "))
	if fields := model.ErrorFields(err); len(fields) > 0 {
		msg += " (fields: " + strings.Join(fields, ", ") + ")"
	}
	return msg
}
