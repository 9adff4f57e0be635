package stock

import "github.com/jhoicas/stock-ledger-api/internal/domain"

// ItemRef identifica el dueño de un saldo: un producto simple o una variante.
// Exactamente uno de los dos campos debe estar definido, nunca ambos ni ninguno.
type ItemRef struct {
	ProductID string
	VariantID string
}

// Validate verifica la regla XOR producto/variante.
func (r ItemRef) Validate() error {
	if (r.ProductID == "") == (r.VariantID == "") {
		return domain.ErrInvalidInput
	}
	return nil
}

// IsVariant indica si la referencia apunta a una variante.
func (r ItemRef) IsVariant() bool {
	return r.VariantID != ""
}

// Key devuelve el identificador canónico del ítem (para logs y orden de bloqueo).
func (r ItemRef) Key() string {
	if r.IsVariant() {
		return "variant:" + r.VariantID
	}
	return "product:" + r.ProductID
}
