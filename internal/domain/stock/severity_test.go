package stock_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

func TestClassifySeverity(t *testing.T) {
	factor := stock.DefaultCriticalFactor // 0.5

	cases := []struct {
		name    string
		forSale string
		minimum string
		want    string
	}{
		{"muy por debajo del corte", "2", "10", stock.SeverityCritical},
		{"justo bajo el corte", "4.99", "10", stock.SeverityCritical},
		{"exactamente en el corte es LOW", "5", "10", stock.SeverityLow},
		{"entre corte y mínimo", "7", "10", stock.SeverityLow},
		{"vendible negativo", "-1", "10", stock.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forSale, _ := decimal.NewFromString(tc.forSale)
			minimum, _ := decimal.NewFromString(tc.minimum)
			assert.Equal(t, tc.want, stock.ClassifySeverity(forSale, minimum, factor))
		})
	}
}

func TestClassifySeverity_FactorPersonalizado(t *testing.T) {
	factor := decimal.NewFromFloat(0.8)
	forSale := decimal.NewFromInt(7)
	minimum := decimal.NewFromInt(10)

	// 7 < 8 con factor 0.8: lo que con el factor por defecto era LOW pasa a CRITICAL.
	assert.Equal(t, stock.SeverityCritical, stock.ClassifySeverity(forSale, minimum, factor))
}
