package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/memory"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/config"
	"github.com/xtm888/medflow-clinic-sub000/pkg/jwt"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

func testApp(t *testing.T) *cliApp {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "c-1", Code: "ACME", Name: "ACME SARL", ContractStatus: entity.ContractStatusActive}))
	amount := decimal.NewFromInt(7000)
	require.NoError(t, store.Invoices().Create(ctx, &entity.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "F-001",
		PatientID:     "p-1",
		Items: []entity.InvoiceItem{{
			Code: "CON-01", Category: "consultation", Quantity: decimal.NewFromInt(1),
			UnitPrice: amount, Total: amount, EligibleCompanyShare: amount, CompanyShare: amount,
		}},
		CompanyBilling: &entity.CompanyBilling{CompanyID: "c-1", CompanyName: "ACME SARL", CompanyShare: amount, Status: entity.ConventionStatusSent},
		Total:          amount,
		Status:         entity.InvoiceStatusIssued,
		DateIssued:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}))

	clk := clock.NewFake(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	return &cliApp{
		cfg: &config.Config{
			JWT:     config.JWTConfig{Secret: "cli-secret", Expiration: 30, Issuer: "medflow-test"},
			Billing: config.BillingConfig{ClinicCurrency: "CDF"},
		},
		log: logger.NewNop(),
		openAging: func(context.Context) (*reporting.AgingUseCase, func(), error) {
			uc := reporting.NewAgingUseCase(store.Companies(), store.Invoices(), clk, reporting.Settings{Currency: "CDF"})
			return uc, func() {}, nil
		},
	}
}

func run(t *testing.T, app *cliApp, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestToken_EmiteJWTValido(t *testing.T) {
	app := testApp(t)
	out, err := run(t, app, "token", "--user", "u-1", "--clinic", "cl-1", "--role", "auditor")
	require.NoError(t, err)

	claims, err := jwt.Parse("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "cl-1", claims.ClinicID)
	assert.Equal(t, jwt.RoleAuditor, claims.Role)
}

func TestToken_RolDesconocido(t *testing.T) {
	_, err := run(t, testApp(t), "token", "--user", "u-1", "--role", "root")
	assert.Error(t, err)
}

func TestReportAging_TablaYJSON(t *testing.T) {
	app := testApp(t)

	out, err := run(t, app, "report", "aging", "--as-of", "2025-06-15")
	require.NoError(t, err)
	assert.Contains(t, out, "ACME SARL")
	assert.Contains(t, out, "7000.00")
	assert.Contains(t, out, "al 2025-06-15")

	out, err = run(t, app, "report", "aging", "--as-of", "2025-06-15", "-o", "json")
	require.NoError(t, err)
	var report dto.AgingReportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.PerCompany, 1)
	// 106 días desde la emisión
	assert.True(t, report.GrandTotals.Days90.Equal(decimal.NewFromInt(7000)))
}

func TestReportAging_Excel(t *testing.T) {
	out, err := run(t, testApp(t), "report", "aging", "--as-of", "2025-06-15", "-o", "xlsx")
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Antigüedad", "A2")
	require.NoError(t, err)
	assert.Equal(t, "ACME SARL", name)
	total, err := f.GetCellValue("Antigüedad", "G3")
	require.NoError(t, err)
	assert.Equal(t, "7000", total)
	days90, err := f.GetCellValue("Antigüedad", "F2")
	require.NoError(t, err)
	assert.Equal(t, "7000", days90)
}

func TestReportAging_FechaInvalida(t *testing.T) {
	_, err := run(t, testApp(t), "report", "aging", "--as-of", "15/06/2025")
	assert.Error(t, err)
}

func TestMigrateForce_VersionInvalida(t *testing.T) {
	_, err := run(t, testApp(t), "migrate", "force", "abc")
	assert.Error(t, err)
}
