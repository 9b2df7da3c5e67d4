package pricing

import "github.com/shopspring/decimal"

// Redondeo is the single rounding policy of the service. UI-facing totals are
// rounded to UIScale decimals, order wire line items to WireScale decimals.
// The asymmetry (2 vs 4) is required for compatibility with the pedidos
// backend, which re-validates the figures; keeping both scales in one place
// avoids scattered literal rounding.
type Redondeo struct {
	UIScale   int32
	WireScale int32
}

// Estandar is the policy used everywhere in this service.
var Estandar = Redondeo{UIScale: 2, WireScale: 4}

// UI rounds a monetary figure for display and aggregate totals.
func (r Redondeo) UI(v float64) float64 {
	return decimal.NewFromFloat(v).Round(r.UIScale).InexactFloat64()
}

// Wire rounds a monetary figure for order payload line items.
func (r Redondeo) Wire(v float64) float64 {
	return decimal.NewFromFloat(v).Round(r.WireScale).InexactFloat64()
}
