package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookupdesk/internal/adapters/datasets"
	"lookupdesk/internal/core"
	"lookupdesk/pkg/query"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List dataset templates from the bundled plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tPARAMETERS\tFORMATS")
			for _, t := range svc.DatasetTemplates() {
				params := make([]string, 0, len(t.Parameters))
				for _, p := range t.Parameters {
					name := p.Name
					if p.Required {
						name += "*"
					}
					params = append(params, name)
				}
				formats := make([]string, 0, len(t.OutputFormats))
				for _, f := range t.OutputFormats {
					formats = append(formats, string(f))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Slug, t.Title, strings.Join(params, ","), strings.Join(formats, ","))
			}
			return tw.Flush()
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		params    []string
		format    string
		requestor string
	)
	cmd := &cobra.Command{
		Use:   "run <slug>",
		Short: "Run a dataset template and print the result",
		Example: `  lookupdesk run tourism/attractions@1.0.0 --param name="Galle Face Green"
  lookupdesk run travel/fares@1.0.0 --param from=colombo --param to=kandy --param passengers=2 --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			template, ok := svc.ResolveDatasetTemplate(args[0])
			if !ok {
				return fmt.Errorf("dataset template %s not found", args[0])
			}
			if !template.SupportsFormat(core.DatasetFormat(format)) {
				return fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, format)
			}
			result, paramErrs, err := template.Run(cmd.Context(), values, core.DatasetScope{Requestor: requestor}, core.DatasetFormat(format))
			if err != nil {
				return err
			}
			if len(paramErrs) > 0 {
				for _, pe := range paramErrs {
					errColor.Fprintln(cmd.ErrOrStderr(), pe.String())
				}
				return fmt.Errorf("%d invalid parameter(s)", len(paramErrs))
			}
			if err := datasets.Render(cmd.OutOrStdout(), core.DatasetFormat(format), template.Descriptor(), result); err != nil {
				return err
			}
			printOutcome(cmd.ErrOrStderr(), result.Metadata)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "template parameter as name=value (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", string(core.FormatJSON), "output format: json, csv or html")
	cmd.Flags().StringVar(&requestor, "requestor", "cli", "requestor recorded in the run scope")
	return cmd
}

// parseParams turns name=value pairs into raw template parameters. Coercion is
// left to the template's validator.
func parseParams(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q must be name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

func printOutcome(w io.Writer, metadata map[string]any) {
	msg, _ := metadata["message"].(string)
	if msg == "" {
		return
	}
	outcome, _ := metadata["outcome"].(string)
	switch outcome {
	case string(query.OutcomeMatched):
		okColor.Fprintln(w, msg)
	case string(query.OutcomeNoDataset), string(query.OutcomeTooNarrow):
		warnColor.Fprintln(w, msg)
	default:
		errColor.Fprintln(w, msg)
	}
}
