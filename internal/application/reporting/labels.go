package reporting

import (
	"fmt"
	"time"
)

// monthLabel etiqueta del mes para los documentos enviados a la convención, ej: "Juin 2025".
func monthLabel(m time.Month, year int) string {
	months := [...]string{
		"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
		"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
	}
	return fmt.Sprintf("%s %d", months[m-1], year)
}
