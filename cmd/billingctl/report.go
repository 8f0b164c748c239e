package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/aging"
	"github.com/xuri/excelize/v2"
)

func newReportCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reportes de convenciones",
	}

	var asOf, output string
	agingCmd := &cobra.Command{
		Use:   "aging",
		Short: "Antigüedad de saldos por convención (0-29, 30-59, 60-89, 90+ días)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, closeFn, err := app.openAging(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := uc.BuildAgingReport(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case "table":
				return writeAgingTable(cmd.OutOrStdout(), report)
			case "xlsx":
				return writeAgingXLSX(cmd.OutOrStdout(), report)
			default:
				return fmt.Errorf("formato de salida %q (use table, json o xlsx)", output)
			}
		},
	}
	agingCmd.Flags().StringVar(&asOf, "as-of", "", "fecha de corte YYYY-MM-DD (por defecto hoy)")
	agingCmd.Flags().StringVarP(&output, "output", "o", "table", "formato: table | json | xlsx")

	cmd.AddCommand(agingCmd)
	return cmd
}

func writeAgingTable(w io.Writer, r *dto.AgingReportResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "CONVENCIÓN\tFACTURAS\tCORRIENTE\t30\t60\t90+\tTOTAL (%s)\t\n", r.Currency)
	for _, c := range r.PerCompany {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			c.CompanyName, strconv.Itoa(c.Totals.Invoices),
			c.Totals.Current.StringFixed(2), c.Totals.Days30.StringFixed(2),
			c.Totals.Days60.StringFixed(2), c.Totals.Days90.StringFixed(2),
			c.Totals.Total.StringFixed(2))
	}
	g := r.GrandTotals
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
		g.Invoices, g.Current.StringFixed(2), g.Days30.StringFixed(2),
		g.Days60.StringFixed(2), g.Days90.StringFixed(2), g.Total.StringFixed(2))
	fmt.Fprintf(tw, "al %s\t\t\t\t\t\t\t\n", r.AsOf.Format(dto.DateLayout))
	return tw.Flush()
}

// writeAgingXLSX escribe el libro para contabilidad: una fila por convención y la fila TOTAL.
func writeAgingXLSX(w io.Writer, r *dto.AgingReportResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Antigüedad"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := []string{"Convención", "Facturas", "Corriente", "30-59", "60-89", "90+", "Total " + r.Currency}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	put := func(name string, t aging.Totals) error {
		values := []any{
			name, t.Invoices,
			t.Current.InexactFloat64(), t.Days30.InexactFloat64(), t.Days60.InexactFloat64(),
			t.Days90.InexactFloat64(), t.Total.InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}
	for _, c := range r.PerCompany {
		if err := put(c.CompanyName, c.Totals); err != nil {
			return err
		}
	}
	if err := put("TOTAL", r.GrandTotals); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), "al "+r.AsOf.Format(dto.DateLayout)); err != nil {
		return err
	}
	return f.Write(w)
}
