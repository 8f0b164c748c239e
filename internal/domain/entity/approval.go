package entity

import (
	"strings"
	"time"
)

// Estados de una aprobación previa (délibération).
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval autorización previa de un acto para un paciente y una convención.
// Se crea en el flujo de deliberación (externo); aquí solo se lee.
type Approval struct {
	ID         string
	PatientID  string
	CompanyID  string
	ActCode    string
	Status     string
	ValidUntil *time.Time // nil = sin vencimiento
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Matches indica si la aprobación corresponde al acto (sin mayúsculas).
func (a *Approval) Matches(patientID, companyID, actCode string) bool {
	return a.PatientID == patientID &&
		a.CompanyID == companyID &&
		strings.EqualFold(strings.TrimSpace(a.ActCode), strings.TrimSpace(actCode))
}

// IsValidOn indica si la aprobación está aprobada y vigente en la fecha dada
// (sin vencimiento o vencimiento ≥ hoy).
func (a *Approval) IsValidOn(at time.Time) bool {
	if a.Status != ApprovalApproved {
		return false
	}
	if a.ValidUntil == nil {
		return true
	}
	today := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	until := time.Date(a.ValidUntil.Year(), a.ValidUntil.Month(), a.ValidUntil.Day(), 0, 0, 0, 0, at.Location())
	return !until.Before(today)
}
