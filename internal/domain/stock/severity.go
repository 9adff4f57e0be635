package stock

import "github.com/shopspring/decimal"

// Severidad de alertas de stock bajo mínimo.
const (
	SeverityCritical = "CRITICAL"
	SeverityLow      = "LOW"
)

// DefaultCriticalFactor es la fracción del mínimo bajo la cual la alerta pasa
// a CRITICAL. Configurable vía STOCK_CRITICAL_FACTOR.
var DefaultCriticalFactor = decimal.NewFromFloat(0.5)

// ClassifySeverity clasifica un saldo vendible contra su mínimo (servicio de dominio).
// CRITICAL si forSale < factor * minimum, LOW en el resto de casos bajo mínimo.
// Solo tiene sentido llamarla cuando forSale < minimum y minimum > 0.
func ClassifySeverity(forSale, minimum, criticalFactor decimal.Decimal) string {
	if forSale.LessThan(minimum.Mul(criticalFactor)) {
		return SeverityCritical
	}
	return SeverityLow
}
