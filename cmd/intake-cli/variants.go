package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lead-intake/internal/schema"
)

func variantsCmd(registry *schema.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List every form variant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, header("KEY", "CATEGORY", "LABEL", "STEPS"))
			for _, v := range registry.Variants() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", v.Key, v.Category, v.Label, len(v.Steps))
			}
			return w.Flush()
		},
	}
}

func stepsCmd(registry *schema.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "steps <variant>",
		Short: "Show the steps and fields of one variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := registry.Variant(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(v.Label), hintStyle.Render("("+v.Key+")"))
			for i, step := range v.Steps {
				fmt.Fprintf(out, "\n%d. %s\n", i+1, step.Title)
				for _, f := range step.Fields {
					fmt.Fprintf(out, "   %-22s %s\n", f.Name, describeField(f))
				}
			}
			return nil
		},
	}
}

func describeField(f schema.Field) string {
	parts := []string{f.Kind.String()}
	if f.Length > 0 && f.Kind != schema.KindText {
		parts = append(parts, fmt.Sprintf("%d chars", f.Length))
	}
	if f.MinLength > 0 || (f.Length > 0 && f.Kind == schema.KindText) {
		parts = append(parts, boundsText(f.MinLength, f.Length)+" chars")
	}
	if f.Min > 0 || f.Max > 0 {
		parts = append(parts, boundsText(f.Min, f.Max))
	}
	if len(f.Options) > 0 {
		parts = append(parts, strings.Join(f.Options, "|"))
	}
	if !f.Required {
		parts = append(parts, "optional")
	}
	if f.When != nil {
		parts = append(parts, fmt.Sprintf("when %s in %s", f.When.Field, strings.Join(f.When.Equals, ",")))
	}
	return f.Label + " [" + strings.Join(parts, ", ") + "]"
}

func boundsText(min, max int) string {
	switch {
	case max == 0:
		return fmt.Sprintf(">= %d", min)
	case min == 0:
		return fmt.Sprintf("<= %d", max)
	default:
		return fmt.Sprintf("%d-%d", min, max)
	}
}
