package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ipc/ipc/internal/config"
	"github.com/ipc/ipc/internal/domain/importbatch"
	"github.com/ipc/ipc/internal/extract/orders"
	"github.com/ipc/ipc/internal/extract/roster"
	"github.com/ipc/ipc/internal/ingest"
	"github.com/ipc/ipc/internal/platform/db"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

var documentKinds = []string{importbatch.KindRoster, importbatch.KindOrders}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract rows from census or order documents without a database",
	}
	for _, kind := range documentKinds {
		c := &cobra.Command{
			Use:   kind + " FILE...",
			Short: fmt.Sprintf("Parse %s documents (- reads stdin, .xlsx is flattened)", kind),
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				format, _ := cmd.Flags().GetString("format")
				if format != formatJSON && format != formatTable {
					return fmt.Errorf("unknown format %q (want json or table)", format)
				}
				logger, err := cliLogger(cmd)
				if err != nil {
					return err
				}
				docs, err := ingest.Load(kind, args, cmd.InOrStdin())
				if err != nil {
					return err
				}
				results, err := ingest.NewEngine(logger).ParseAll(cmd.Context(), docs)
				if err != nil {
					return err
				}
				writeStats(cmd.ErrOrStderr(), results)
				return writeRows(cmd.OutOrStdout(), kind, results, format)
			},
		}
		c.Flags().String("format", formatJSON, "Output format: json or table")
		cmd.AddCommand(c)
	}
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse documents and store the rows",
	}
	for _, kind := range documentKinds {
		cmd.AddCommand(&cobra.Command{
			Use:   kind + " FILE...",
			Short: fmt.Sprintf("Import %s documents (- reads stdin, .xlsx is flattened)", kind),
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				logger, err := cliLogger(cmd)
				if err != nil {
					return err
				}
				docs, err := ingest.Load(kind, args, cmd.InOrStdin())
				if err != nil {
					return err
				}

				pool, err := db.NewPool(cmd.Context(), cfg.PoolConfig())
				if err != nil {
					return err
				}
				defer pool.Close()
				a := newApp(pool, cfg, logger)

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				for _, d := range docs {
					var summary interface{}
					switch kind {
					case importbatch.KindRoster:
						summary, err = a.census.ImportRoster(cmd.Context(), d.Source, d.Text)
					default:
						summary, err = a.abx.ImportOrders(cmd.Context(), d.Source, d.Text)
					}
					if err != nil {
						return err
					}
					if err := enc.Encode(summary); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}
	return cmd
}

// writeStats prints one yield line per document.
func writeStats(w io.Writer, results []ingest.Parsed) {
	for _, p := range results {
		switch {
		case p.Roster != nil:
			s := p.Roster.Stats
			fmt.Fprintf(w, "%s: %d lines, %d residents, %d skipped, %d duplicates\n",
				p.Doc.Source, s.LinesSeen, s.RowsExtracted, s.Skipped, s.Duplicates)
		case p.Orders != nil:
			s := p.Orders.Stats
			fmt.Fprintf(w, "%s: %d lines, %d orders, %d headers, %d boilerplate, %d skipped, %d unattributed\n",
				p.Doc.Source, s.LinesSeen, s.RowsExtracted, s.Headers, s.Boilerplate, s.Skipped, s.Unattributed)
		}
	}
}

// writeRows prints the rows of every document as one JSON array or one
// table.
func writeRows(w io.Writer, kind string, results []ingest.Parsed, format string) error {
	var rosterRows []roster.Row
	var orderRows []orders.Row
	for _, p := range results {
		if p.Roster != nil {
			rosterRows = append(rosterRows, p.Roster.Rows...)
		}
		if p.Orders != nil {
			orderRows = append(orderRows, p.Orders.Rows...)
		}
	}

	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if kind == importbatch.KindRoster {
			if rosterRows == nil {
				rosterRows = []roster.Row{}
			}
			return enc.Encode(rosterRows)
		}
		if orderRows == nil {
			orderRows = []orders.Row{}
		}
		return enc.Encode(orderRows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if kind == importbatch.KindRoster {
		fmt.Fprintln(tw, "IDENTIFIER\tNAME\tUNIT\tROOM\tDOB\tSTATUS\tPAYOR")
		for _, r := range rosterRows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Identifier, r.Name, r.Unit, r.Room, r.DOBRaw, r.Status, r.Payor)
		}
	} else {
		fmt.Fprintln(tw, "IDENTIFIER\tNAME\tMEDICATION\tDOSE\tROUTE\tINDICATION\tSOURCE\tSTART\tEND\tDAYS\tINCLUDE")
		for _, r := range orderRows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				r.Identifier, r.Name, r.MedicationName, r.Dose, r.Route, r.Indication,
				r.InfectionSource, r.StartDate, r.EndDate, r.TreatmentDays, strconv.FormatBool(r.Include))
		}
	}
	return tw.Flush()
}
