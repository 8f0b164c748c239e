package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestParseFees_Latin1(t *testing.T) {
	raw := "code;category;price;currency\n" +
		"con-01;Consultation;12 500,50;cdf\n" +
		"ECHO-01;Imagerie m\xe9dicale;45000;CDF\n" + // é en ISO-8859-1
		";surgery;1;CDF\n" +
		"incomplete;x\n"

	items, err := parseFees(transform.NewReader(strings.NewReader(raw), charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "CON-01", items[0].Code)
	assert.Equal(t, "consultation", items[0].Category)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("12500.50")))
	assert.Equal(t, "CDF", items[0].Currency)
	assert.Equal(t, "imagerie médicale", items[1].Category)
}

func TestParseFees_PrecioInvalido(t *testing.T) {
	_, err := parseFees(strings.NewReader("code;category;price\nX;y;abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 2")

	_, err = parseFees(strings.NewReader("code;category;price\nX;y;-5\n"))
	assert.Error(t, err)
}

func TestParsePrice_Separadores(t *testing.T) {
	for raw, want := range map[string]string{
		"1500":       "1500",
		"1 500,25":   "1500.25",
		"1,500.25":   "1500.25",
		"2\u00a0000": "2000",
	} {
		got, err := parsePrice(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), raw)
	}
}

func TestWriteSQL_EscapaComillas(t *testing.T) {
	var buf bytes.Buffer
	err := writeSQL(&buf, entity.ConventionFeeSchedule{
		ID:            "fs-1",
		CompanyID:     "c-1",
		Name:          "Tarifs d'été",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Items:         []entity.FeeScheduleItem{{Code: "CON-01", Category: "consultation", Price: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)

	sql := buf.String()
	assert.Contains(t, sql, "'Tarifs d''été'")
	assert.Contains(t, sql, "'2025-01-01'")
	assert.Contains(t, sql, `"code":"CON-01"`)
}
