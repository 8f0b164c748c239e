// seed_fees genera el SQL de un tarifario de convención a partir de la exportación CSV
// de la hoja de tarifas (Excel, Latin-1, separador ';', coma decimal).
//
// Uso: go run ./cmd/seed_fees <company_id> <tarifs.csv> [effective_from YYYY-MM-DD] > seed.sql
// Columnas esperadas: code;category;price;currency (la primera fila es encabezado).
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: seed_fees <company_id> <tarifs.csv> [effective_from YYYY-MM-DD]")
		os.Exit(2)
	}
	companyID := strings.TrimSpace(os.Args[1])
	effectiveFrom := time.Now().UTC().Truncate(24 * time.Hour)
	if len(os.Args) > 3 {
		t, err := time.Parse("2006-01-02", os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fecha de vigencia: %v\n", err)
			os.Exit(2)
		}
		effectiveFrom = t
	}

	f, err := os.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := parseFees(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer tarifas: %v\n", err)
		os.Exit(1)
	}
	schedule := entity.ConventionFeeSchedule{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		Name:          "Tarifs " + effectiveFrom.Format("2006-01-02"),
		EffectiveFrom: effectiveFrom,
		Items:         items,
	}
	if err := writeSQL(os.Stdout, schedule); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generado tarifario %s: %d actos\n", schedule.ID, len(items))
}

// parseFees lee las filas del CSV ya decodificado a UTF-8. Filas incompletas se omiten;
// un precio ilegible es un error con el número de línea.
func parseFees(r io.Reader) ([]entity.FeeScheduleItem, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var items []entity.FeeScheduleItem
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 || len(rec) < 3 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if code == "" {
			continue
		}
		price, err := parsePrice(rec[2])
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio %q: %w", line, rec[2], err)
		}
		item := entity.FeeScheduleItem{
			Code:     code,
			Category: strings.ToLower(strings.TrimSpace(rec[1])),
			Price:    price,
		}
		if len(rec) > 3 {
			item.Currency = strings.ToUpper(strings.TrimSpace(rec[3]))
		}
		items = append(items, item)
	}
	return items, nil
}

// parsePrice acepta "12 500,50" y "12500.50". Sin punto, la coma es separador decimal.
func parsePrice(raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(raw))
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("precio negativo")
	}
	return d, nil
}

func writeSQL(w io.Writer, s entity.ConventionFeeSchedule) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"-- Tarifario de convención %s (%d actos)\n"+
			"INSERT INTO convention_fee_schedules (id, company_id, name, effective_from, items)\n"+
			"VALUES ('%s', '%s', '%s', '%s', '%s'::jsonb);\n",
		escapeSQL(s.CompanyID), len(s.Items),
		s.ID, escapeSQL(s.CompanyID), escapeSQL(s.Name), s.EffectiveFrom.Format("2006-01-02"), escapeSQL(string(items)),
	)
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
