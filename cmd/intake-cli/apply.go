package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lead-intake/internal/schema"
	"lead-intake/internal/wizard"
)

// backToken typed at any prompt returns to the previous step.
const backToken = "<"

func applyCmd(registry *schema.Registry, opts *globalOptions) *cobra.Command {
	var (
		fieldsFile  string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "apply <variant>",
		Short: "Fill in a form variant and submit it",
		Long: `Fill in a form variant step by step and submit it to the intake API.

Answers can be preloaded from a YAML file of field: value pairs. With
--interactive, missing or invalid answers are prompted for; type "<" at any
prompt to return to the previous step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := registry.Variant(args[0])
			if err != nil {
				return err
			}

			c := wizard.New(variant, opts.client(), wizard.WithSource(opts.source))
			if fieldsFile != "" {
				answers, err := loadAnswers(fieldsFile)
				if err != nil {
					return err
				}
				if err := c.SetAll(answers); err != nil {
					return err
				}
			}

			session := &wizardSession{
				controller:  c,
				in:          bufio.NewReader(cmd.InOrStdin()),
				out:         cmd.OutOrStdout(),
				interactive: interactive,
			}
			id, err := session.run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Submitted %s. Reference number: %s", variant.Label, id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&fieldsFile, "fields", "", "YAML file of answers keyed by field name")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for missing or invalid answers")
	return cmd
}

// loadAnswers reads a flat YAML mapping. Scalars of any type become strings,
// as if typed into the form.
func loadAnswers(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return parseAnswers(raw)
}

func parseAnswers(raw []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}

	answers := make(map[string]string, len(doc))
	for k, v := range doc {
		switch v.(type) {
		case nil:
			answers[k] = ""
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("parse answers: %s must be a single value", k)
		default:
			answers[k] = fmt.Sprint(v)
		}
	}
	return answers, nil
}

type wizardSession struct {
	controller  *wizard.Controller
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func (s *wizardSession) run(ctx context.Context) (string, error) {
	c := s.controller
	revisit := false

	for {
		if s.interactive {
			back, err := s.promptStep(revisit)
			if err != nil {
				return "", err
			}
			if back {
				if !c.Back() {
					fmt.Fprintln(s.out, "Already at the first step.")
				}
				revisit = true
				continue
			}
		}
		revisit = false

		res, err := c.Next(ctx)
		var (
			stepErr  *wizard.StepError
			rejected *wizard.SubmissionRejected
			refused  *wizard.SubmissionRefused
		)
		switch {
		case err == nil && res.Submitted:
			return res.ID, nil
		case err == nil:
			continue
		case errors.As(err, &stepErr):
			s.printStepError(stepErr)
			if !s.interactive {
				return "", err
			}
		case errors.As(err, &rejected):
			fmt.Fprintln(s.out, "The application was rejected:")
			for _, msg := range rejected.Errors {
				fmt.Fprintf(s.out, "  - %s\n", problemStyle.Render(msg))
			}
			return "", err
		case errors.As(err, &refused):
			fmt.Fprintf(s.out, "The application was refused: %s\n", problemStyle.Render(refused.Message))
			return "", err
		default:
			return "", err
		}
	}
}

// promptStep asks for the current step's answers. On a first visit only blank
// and failing fields are asked; after going back every field is offered with
// its current value as the default.
func (s *wizardSession) promptStep(all bool) (back bool, err error) {
	c := s.controller
	step := c.Step()
	fmt.Fprintf(s.out, "\n%s\n", titleStyle.Render(fmt.Sprintf("[%d/%d] %s", c.Index()+1, len(c.Variant().Steps), step.Title)))

	for _, f := range step.Fields {
		fields := c.Fields()
		if !f.Applies(fields) {
			continue
		}
		current := strings.TrimSpace(fields[f.Name])
		if !all && current != "" && f.Check(fields) == nil {
			continue
		}

		for {
			fmt.Fprint(s.out, promptLabel(f, current))
			line, err := s.in.ReadString('\n')
			if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
				return false, fmt.Errorf("read answer for %s: %w", f.Name, err)
			}
			answer := strings.TrimSpace(line)
			if answer == backToken {
				return true, nil
			}
			if answer == "" {
				answer = current
			}
			if err := c.Set(f.Name, answer); err != nil {
				return false, err
			}

			if v := f.Check(c.Fields()); v != nil {
				fmt.Fprintf(s.out, "  %s\n", problemStyle.Render(v.Message))
				current = answer
				continue
			}
			break
		}
	}
	return false, nil
}

func promptLabel(f schema.Field, current string) string {
	var b strings.Builder
	b.WriteString(f.Label)
	if len(f.Options) > 0 {
		b.WriteString(" (" + strings.Join(f.Options, "/") + ")")
	}
	if !f.Required {
		b.WriteString(" (optional)")
	}
	if current != "" {
		b.WriteString(" [" + current + "]")
	}
	b.WriteString(": ")
	return b.String()
}

func (s *wizardSession) printStepError(err *wizard.StepError) {
	fmt.Fprintf(s.out, "Step %q is incomplete:\n", err.StepID)
	for _, v := range err.Violations {
		fmt.Fprintf(s.out, "  - %s\n", problemStyle.Render(v.String()))
	}
}
