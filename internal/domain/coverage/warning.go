package coverage

import "strings"

// Severity gravedad de una advertencia.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Códigos de advertencia.
const (
	WarnContractInactive   = "contract_inactive"
	WarnContractExpired    = "contract_expired"
	WarnNotCovered         = "not_covered"
	WarnItemCap            = "item_cap"
	WarnAnnualCapExhausted = "annual_cap_exhausted"
	WarnAnnualCapPartial   = "annual_cap_partial"
	WarnApprovalRequired   = "approval_required"
	WarnVisitCap           = "visit_cap"
	WarnWaitingPeriod      = "waiting_period"
	WarnDiscountApplied    = "discount_applied"
)

// Warning advertencia estructurada. Blocking se fija al emitirla; canProceed nunca se deduce del texto.
type Warning struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	ItemCode string   `json:"item_code,omitempty"`
	Severity Severity `json:"severity"`
	Blocking bool     `json:"blocking"`
}

func blocking(code, msg string) Warning {
	return Warning{Code: code, Message: msg, Severity: SeverityBlocking, Blocking: true}
}

func itemWarning(code, itemCode, msg string) Warning {
	return Warning{Code: code, Message: msg, ItemCode: itemCode, Severity: SeverityWarning}
}

func info(code, itemCode, msg string) Warning {
	return Warning{Code: code, Message: msg, ItemCode: itemCode, Severity: SeverityInfo}
}

// CanProceed es falso solo si hay alguna advertencia bloqueante (contrato inactivo o vencido).
func CanProceed(warnings []Warning) bool {
	for _, w := range warnings {
		if w.Blocking {
			return false
		}
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
