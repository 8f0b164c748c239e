// Package pdf genera los documentos entregados a las convenciones: estado de cuenta
// y bordereau (factura agrupada), con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Clínica + título    │  Convención + fechas          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: movimientos (estado) o grupos + facturas (bordereau) │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES                                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: referencia + fecha límite de pago                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/pkg/currency"
)

var _ reporting.Renderer = (*MarotoRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const dateLayout = "02/01/2006"

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer implementa reporting.Renderer usando Maroto v2.
type MarotoRenderer struct {
	clinicName string
	money      *currency.Formatter
}

// NewMarotoRenderer construye el renderer. locale es una etiqueta BCP 47 (ej. "fr-CD").
func NewMarotoRenderer(clinicName, locale string) *MarotoRenderer {
	return &MarotoRenderer{clinicName: clinicName, money: currency.NewFormatter(locale)}
}

// RenderStatement genera el estado de cuenta de la convención.
func (r *MarotoRenderer) RenderStatement(st *dto.StatementResponse) ([]byte, error) {
	m := maroto.New(r.config("Relevé de compte " + st.CompanyName))

	m.AddRows(r.headerRow("RELEVÉ DE COMPTE", st.CompanyName, periodLabel(st.From, st.To), st.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow(
		heading{"Date", 2, align.Left},
		heading{"Facture", 2, align.Left},
		heading{"Patient / Réf.", 3, align.Left},
		heading{"Débit", 2, align.Right},
		heading{"Crédit", 1, align.Right},
		heading{"Solde", 2, align.Right},
	))
	for _, e := range st.Entries {
		who := e.PatientName
		if e.Type == dto.StatementCredit {
			who = nonEmpty(e.Reference, "Paiement")
		}
		m.AddRows(row.New(6).Add(
			cell(e.Date.Format(dateLayout), 2, align.Left),
			cell(e.InvoiceNumber, 2, align.Left),
			cell(who, 3, align.Left),
			cell(r.amountOrDash(e.Debit, st.Currency), 2, align.Right),
			cell(r.amountOrDash(e.Credit, st.Currency), 1, align.Right),
			cell(r.money.Format(e.Balance, st.Currency), 2, align.Right),
		))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(r.totalsRow(st.Currency,
		total{"Total débit:", st.Totals.Debit, false},
		total{"Total crédit:", st.Totals.Credit, false},
		total{"SOLDE DÛ:", st.Totals.Balance, true},
	))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(fmt.Sprintf("Paiement attendu avant le %s.", st.DueDate.Format(dateLayout))))

	return generate(m)
}

// RenderBatchInvoice genera el bordereau con un bloque por grupo.
func (r *MarotoRenderer) RenderBatchInvoice(b *dto.BatchInvoiceResponse) ([]byte, error) {
	m := maroto.New(r.config("Bordereau " + b.BatchReference))

	m.AddRows(r.headerRow("BORDEREAU "+b.BatchReference, b.CompanyName, periodLabel(b.From, b.To), b.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	for _, g := range b.Groups {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s (%d)", g.Label, g.InvoiceCount), props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
			}),
		)))
		m.AddRows(tableHeaderRow(
			heading{"Date", 2, align.Left},
			heading{"Facture", 2, align.Left},
			heading{"Patient", 3, align.Left},
			heading{"Total", 2, align.Right},
			heading{"Part convention", 3, align.Right},
		))
		for _, inv := range g.Invoices {
			m.AddRows(row.New(6).Add(
				cell(inv.DateIssued.Format(dateLayout), 2, align.Left),
				cell(inv.InvoiceNumber, 2, align.Left),
				cell(inv.PatientName, 3, align.Left),
				cell(r.money.Format(inv.Total, b.Currency), 2, align.Right),
				cell(r.money.Format(inv.CompanyShare, b.Currency), 3, align.Right),
			))
		}
		m.AddRows(row.New(6).Add(
			col.New(7),
			cell("Sous-total:", 2, align.Right),
			cell(r.money.Format(g.CompanyShare, b.Currency), 3, align.Right),
		))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(r.totalsRow(b.Currency,
		total{"Part convention:", b.Summary.CompanyShare, false},
		total{"Déjà payé:", b.Summary.PaidAmount, false},
		total{"MONTANT DÛ:", b.Summary.CompanyDue, true},
	))
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(fmt.Sprintf("%d facture(s), référence %s. Merci de rappeler la référence lors du paiement.",
		b.Summary.InvoiceCount, b.BatchReference)))

	return generate(m)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (r *MarotoRenderer) config(title string) *entity.Config {
	return config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		WithAuthor(r.clinicName, true).
		Build()
}

// headerRow: clínica + título (izq) y convención + período (der).
func (r *MarotoRenderer) headerRow(title, companyName, period string, generatedAt time.Time) core.Row {
	return row.New(20).Add(
		col.New(6).Add(
			text.New(r.clinicName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Top: 10}),
		),
		col.New(6).Add(
			text.New(companyName, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1}),
			text.New(period, props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
			text.New("Émis le "+generatedAt.Format(dateLayout), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

type heading struct {
	label string
	size  int
	align align.Type
}

func tableHeaderRow(cols ...heading) core.Row {
	r := row.New(7)
	for _, h := range cols {
		r.Add(col.New(h.size).Add(text.New(h.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: h.align, Color: colorPrimary, Top: 1.5, Left: 1, Right: 1,
		})))
	}
	return r
}

type total struct {
	label string
	value decimal.Decimal
	grand bool
}

// totalsRow: bloque de totales alineado a la derecha.
func (r *MarotoRenderer) totalsRow(code string, totals ...total) core.Row {
	labels, values := col.New(3), col.New(3)
	for i, t := range totals {
		p := props.Text{Size: 9, Align: align.Right, Top: float64(i * 6), Right: 1}
		if t.grand {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		labels.Add(text.New(t.label, p))
		values.Add(text.New(r.money.Format(t.value, code), p))
	}
	return row.New(float64(len(totals)*6+2)).Add(col.New(6), labels, values)
}

func footerRow(msg string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 7, Color: colorGray, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
}

func (r *MarotoRenderer) amountOrDash(v decimal.Decimal, code string) string {
	if v.IsZero() {
		return "-"
	}
	return r.money.Format(v, code)
}

func periodLabel(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return "Période du " + from.Format(dateLayout) + " au " + to.Format(dateLayout)
	case from != nil:
		return "Depuis le " + from.Format(dateLayout)
	case to != nil:
		return "Jusqu'au " + to.Format(dateLayout)
	default:
		return "Toutes périodes"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}
