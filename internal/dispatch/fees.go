package dispatch

import "math"

// Fee rates applied at settlement: the payment gateway takes its cut off the
// top, the platform commission applies to what remains, the master keeps the
// rest.
const (
	gatewayFeeRate     = 0.02
	platformCommission = 0.25
)

// FeeSplit is the settlement decomposition of a gross amount.
type FeeSplit struct {
	GatewayFee         float64 `json:"gateway_fee"`
	PlatformCommission float64 `json:"platform_commission"`
	MasterEarnings     float64 `json:"master_earnings"`
}

// SplitFees computes the fee cascade for a gross amount. Each figure is
// rounded to two decimals independently, so the parts may drift from the
// rounded total by a kopeck; the settlement record keeps all three figures
// rather than deriving one from the others.
func SplitFees(amount float64) FeeSplit {
	gatewayFee := amount * gatewayFeeRate
	remaining := amount - gatewayFee
	commission := remaining * platformCommission
	earnings := remaining - commission

	return FeeSplit{
		GatewayFee:         round2(gatewayFee),
		PlatformCommission: round2(commission),
		MasterEarnings:     round2(earnings),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
