package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/slfconversion/bpmigrate/internal/cmdtypes"
	"github.com/slfconversion/bpmigrate/internal/cmdutil"
	"github.com/slfconversion/bpmigrate/internal/orchestrator"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

type vetOptions struct {
	output string
}

// NewVetCmd creates the plan vet command.
func NewVetCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	opts := &vetOptions{}

	c := &cobra.Command{
		Use:   "vet <plan-file>...",
		Short: "Validate migration plans",
		Long: `Validate migration plan files against the plan schema and the plan
rules, without opening a workspace.

Files may be YAML, JSON or CUE. The normalised plans can be printed with
-o json or -o yaml.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runVet(c, args, opts)
		},
	}

	c.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json, yaml")
	return c
}

func runVet(c *cobra.Command, args []string, opts *vetOptions) error {
	format, ok := output.ParseOutputFormat(opts.output)
	if !ok {
		return &cmdtypes.ExitError{
			Err:  fmt.Errorf("invalid output format %q (valid: %v)", opts.output, output.ValidFormats()),
			Code: cmdtypes.ExitValidationError,
		}
	}

	plans, err := cmdutil.LoadPlans(args)
	if err != nil {
		return cmdutil.Fail(c.ErrOrStderr(), "plan validation failed", err)
	}

	out := c.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return writeJSON(out, plans)
	case output.FormatYAML:
		return writeYAML(out, plans)
	}

	tbl := output.NewTable("TARGET", "NEW PARENT", "DELETES", "COPIES", "PIN RULES", "DEPENDENTS")
	if !output.IsTTY() {
		tbl.SetStyle(output.PlainTableStyle())
	}
	for _, p := range plans {
		tbl.Row(
			string(p.Target()),
			string(p.NewParent()),
			strconv.Itoa(p.DeletedMemberCount()),
			strconv.Itoa(len(p.PropertyCopies())),
			strconv.Itoa(pinRuleCount(p)),
			strconv.Itoa(len(p.Dependents())),
		)
	}
	fmt.Fprintln(out, tbl.String())

	for _, w := range orchestrator.OrderingWarnings(plans) {
		output.Warn(w)
	}

	fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf("%d plans valid", len(plans))))
	return nil
}

func pinRuleCount(p *plan.Plan) int {
	n := 0
	for _, r := range p.PinRewrites() {
		n += len(r.Rules)
	}
	return n
}

func documents(plans []*plan.Plan) map[string]any {
	docs := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		docs = append(docs, p.Document())
	}
	return map[string]any{"plans": docs}
}

func writeJSON(w io.Writer, plans []*plan.Plan) error {
	data, err := json.MarshalIndent(documents(plans), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, plans []*plan.Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(documents(plans)); err != nil {
		return err
	}
	return enc.Close()
}
