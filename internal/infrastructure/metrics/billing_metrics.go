// Package metrics expone los contadores Prometheus del motor de convenciones.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
)

var _ billing.Metrics = (*BillingMetrics)(nil)

// BillingMetrics implementa billing.Metrics sobre un Registerer de Prometheus.
type BillingMetrics struct {
	previews          *prometheus.CounterVec
	warnings          *prometheus.CounterVec
	approvalGates     *prometheus.CounterVec
	paymentAllocated  prometheus.Counter
	paymentUnassigned prometheus.Counter
	paymentInvoices   prometheus.Histogram
	conflicts         *prometheus.CounterVec
}

// NewBillingMetrics crea y registra los colectores. Con registerer nil usa el DefaultRegisterer.
func NewBillingMetrics(registerer prometheus.Registerer, namespace string) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "medflow"
	}

	m := &BillingMetrics{
		previews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coverage_previews_total",
			Help:      "Cálculos de cobertura por resultado (can_proceed true/false).",
		}, []string{"can_proceed"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coverage_warnings_total",
			Help:      "Advertencias de cobertura emitidas por código.",
		}, []string{"code"}),
		approvalGates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_gate_decisions_total",
			Help:      "Decisiones del control de aprobación previa por estado.",
		}, []string{"status"}),
		paymentAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_allocated_amount_total",
			Help:      "Monto de pagos de convención imputado a facturas.",
		}),
		paymentUnassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_unallocated_amount_total",
			Help:      "Monto de pagos de convención sin imputar (remanente).",
		}),
		paymentInvoices: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_invoices_per_allocation",
			Help:      "Facturas tocadas por cada imputación de pago.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Escrituras rechazadas por versión desactualizada, por operación.",
		}, []string{"operation"}),
	}

	registerer.MustRegister(
		m.previews,
		m.warnings,
		m.approvalGates,
		m.paymentAllocated,
		m.paymentUnassigned,
		m.paymentInvoices,
		m.conflicts,
	)
	return m
}

func (m *BillingMetrics) ObserveCoverage(canProceed bool, warnings []coverage.Warning) {
	label := "true"
	if !canProceed {
		label = "false"
	}
	m.previews.WithLabelValues(label).Inc()
	for _, w := range warnings {
		m.warnings.WithLabelValues(w.Code).Inc()
	}
}

func (m *BillingMetrics) ObserveApprovalGate(status string) {
	m.approvalGates.WithLabelValues(status).Inc()
}

// ObservePayment los montos se registran en unidades de la moneda de la clínica.
func (m *BillingMetrics) ObservePayment(allocated, unallocated decimal.Decimal, invoices int) {
	m.paymentAllocated.Add(allocated.InexactFloat64())
	if unallocated.IsPositive() {
		m.paymentUnassigned.Add(unallocated.InexactFloat64())
	}
	m.paymentInvoices.Observe(float64(invoices))
}

func (m *BillingMetrics) ObserveConflict(operation string) {
	m.conflicts.WithLabelValues(operation).Inc()
}
