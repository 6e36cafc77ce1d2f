package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lookupdesk/internal/adapters/ledger"
	"lookupdesk/internal/core"
)

func newLedgerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Record and list plantation, inventory and incident entries",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Append an entry to a ledger log",
	}
	add.AddCommand(newAddPlantationCmd(a), newAddInventoryCmd(a), newAddIncidentCmd(a))
	cmd.AddCommand(add, newListCmd(a))
	return cmd
}

func newAddPlantationCmd(a *app) *cobra.Command {
	var p core.Plantation
	cmd := &cobra.Command{
		Use:   "plantation",
		Short: "Record a plantation and its production",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.appendEntry(cmd, core.EntityPlantation, func(ctx context.Context, svc *core.Service) (string, core.Result, error) {
				created, res, err := svc.AppendPlantation(ctx, p)
				return created.ID, res, err
			})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "plantation name")
	cmd.Flags().StringVar(&p.Region, "region", "", "growing region")
	cmd.Flags().IntVar(&p.ProductionKG, "production-kg", 0, "production in kilograms")
	return cmd
}

func newAddInventoryCmd(a *app) *cobra.Command {
	var item core.InventoryItem
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Record an inventory item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.appendEntry(cmd, core.EntityInventoryItem, func(ctx context.Context, svc *core.Service) (string, core.Result, error) {
				created, res, err := svc.AppendInventoryItem(ctx, item)
				return created.ID, res, err
			})
		},
	}
	cmd.Flags().StringVar(&item.Item, "item", "", "item name")
	cmd.Flags().IntVar(&item.Quantity, "quantity", 0, "quantity on hand")
	cmd.Flags().StringVar(&item.Unit, "unit", "", "unit of measure")
	cmd.Flags().StringVar(&item.Location, "location", "", "storage location")
	return cmd
}

func newAddIncidentCmd(a *app) *cobra.Command {
	var (
		incident core.Incident
		severity string
	)
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Report an incident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			incident.Severity = core.IncidentSeverity(severity)
			return a.appendEntry(cmd, core.EntityIncident, func(ctx context.Context, svc *core.Service) (string, core.Result, error) {
				created, res, err := svc.AppendIncident(ctx, incident)
				return created.ID, res, err
			})
		},
	}
	cmd.Flags().StringVar(&incident.Title, "title", "", "incident title")
	cmd.Flags().StringVar(&incident.Location, "location", "", "where it happened")
	cmd.Flags().StringVar(&severity, "severity", "low", "low, medium, high or critical")
	cmd.Flags().StringVar(&incident.Description, "description", "", "free-form details")
	return cmd
}

type appendFunc func(context.Context, *core.Service) (string, core.Result, error)

func (a *app) appendEntry(cmd *cobra.Command, entity core.EntityType, fn appendFunc) error {
	svc, closeStore, err := a.openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	id, res, err := fn(cmd.Context(), svc)
	var blocked core.RuleViolationError
	if errors.As(err, &blocked) {
		errColor.Fprintln(cmd.ErrOrStderr(), ledger.BlockedMessage(blocked))
		printViolations(cmd.ErrOrStderr(), blocked.Result.Violations)
		return fmt.Errorf("%s not recorded", entity)
	}
	if err != nil {
		return err
	}
	printViolations(cmd.ErrOrStderr(), res.Violations)
	okColor.Fprintf(cmd.OutOrStdout(), "Recorded %s %s\n", entity, id)
	return nil
}

func printViolations(w io.Writer, violations []core.Violation) {
	for _, v := range violations {
		c := warnColor
		if v.Severity == core.SeverityBlock {
			c = errColor
		}
		c.Fprintf(w, "[%s] %s: %s\n", v.Severity, v.Rule, v.Message)
	}
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:       "list <plantations|inventory|incidents>",
		Short:     "List a ledger log in insertion order",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"plantations", "inventory", "incidents"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			var (
				entries any
				header  string
				rows    [][]string
			)
			switch args[0] {
			case "plantations":
				list := svc.ListPlantations()
				entries, header = list, "ID\tNAME\tREGION\tPRODUCTION_KG"
				for _, p := range list {
					rows = append(rows, []string{p.ID, p.Name, p.Region, fmt.Sprint(p.ProductionKG)})
				}
			case "inventory":
				list := svc.ListInventory()
				entries, header = list, "ID\tITEM\tQUANTITY\tUNIT\tLOCATION"
				for _, item := range list {
					rows = append(rows, []string{item.ID, item.Item, fmt.Sprint(item.Quantity), item.Unit, item.Location})
				}
			default:
				list := svc.ListIncidents()
				entries, header = list, "ID\tTITLE\tLOCATION\tSEVERITY\tREPORTED"
				for _, incident := range list {
					rows = append(rows, []string{incident.ID, incident.Title, incident.Location, string(incident.Severity), incident.CreatedAt.UTC().Format("2006-01-02 15:04")})
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(rows) == 0 {
				warnColor.Fprintf(cmd.ErrOrStderr(), "No %s recorded yet.\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, header)
			for _, row := range rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}
