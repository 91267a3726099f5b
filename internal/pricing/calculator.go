package pricing

import "math"

// Quote is the priced output for one job. TotalPrice is always non-negative
// and a multiple of ten:
//
//	total = roundToTen((base + points) * product(multipliers) * (1 - discount))
//
// Multipliers holds only the factors that differ from 1.0, keyed by name.
type Quote struct {
	BasePrice   float64            `json:"base_price"`
	PointsPrice float64            `json:"points_price"`
	Subtotal    float64            `json:"subtotal"`
	TotalPrice  float64            `json:"total_price"`
	Multipliers map[string]float64 `json:"multipliers"`
	Discount    Discount           `json:"discount"`
	Breakdown   Breakdown          `json:"breakdown"`
}

// Discount is the applied volume discount.
type Discount struct {
	Percent float64 `json:"percent"` // 0-100
	Amount  float64 `json:"amount"`
}

// Breakdown is the display-oriented decomposition of the quote.
type Breakdown struct {
	BaseService        float64          `json:"base_service"`
	InstallationPoints *PointsBreakdown `json:"installation_points,omitempty"`
	MaterialsIncluded  bool             `json:"materials_included,omitempty"`
}

// PointsBreakdown itemizes the installation points priced into the quote.
type PointsBreakdown struct {
	Outlets    int     `json:"outlets"`
	Switches   int     `json:"switches"`
	Fixtures   int     `json:"fixtures"`
	TotalPrice float64 `json:"total_price"`
}

// Calculate prices the given factors. It never fails: unknown categories fall
// back to the default base rate so the caller always gets a quote.
func Calculate(f Factors) Quote {
	base := basePrice(f)
	points := pointsPrice(f)
	subtotal := base + points

	multipliers := collectMultipliers(f)
	multiplied := subtotal
	for _, m := range multipliers {
		multiplied *= m
	}

	totalPoints := f.Outlets + f.Switches + f.Fixtures
	discountPercent := volumeDiscount(totalPoints)
	discountAmount := multiplied * discountPercent

	total := roundToTen(multiplied - discountAmount)

	return Quote{
		BasePrice:   round2(base),
		PointsPrice: round2(points),
		Subtotal:    round2(subtotal),
		TotalPrice:  total,
		Multipliers: multipliers,
		Discount: Discount{
			Percent: discountPercent * 100,
			Amount:  round2(discountAmount),
		},
		Breakdown: breakdown(f, base, points),
	}
}

func basePrice(f Factors) float64 {
	base, ok := baseRates[f.Category]
	if !ok {
		base = defaultBaseRate
	}

	if f.Complexity > 1 {
		base *= 1 + float64(f.Complexity-1)*complexityStep
	}
	if f.EstimatedHours > 1 {
		base += (f.EstimatedHours - 1) * extraHourRate
	}

	// Surcharge order is part of the contract; see rates.go.
	if f.MaterialsNeeded {
		base *= materialsSurcharge
	}
	if f.HighVoltage {
		base *= highVoltageSurcharge
	}
	if f.HeightWork {
		base *= heightWorkSurcharge
	}
	if f.Outdoors {
		base *= outdoorsSurcharge
	}
	return base
}

// pointsPrice prices installation points. Only electrical jobs count them;
// for every other category the answer is zero regardless of the counts.
func pointsPrice(f Factors) float64 {
	if f.Category != CategoryElectrical {
		return 0
	}

	var total float64
	if f.Outlets > 0 {
		per := float64(outletInstallRate)
		if f.MaterialsNeeded {
			per += outletWiringRate
		}
		total += per * float64(f.Outlets)
	}
	if f.Switches > 0 {
		per := float64(switchInstallRate)
		if f.MaterialsNeeded {
			per += switchWiringRate
		}
		total += per * float64(f.Switches)
	}
	if f.Fixtures > 0 {
		total += fixtureInstallRate * float64(f.Fixtures)
	}
	return total
}

// collectMultipliers returns the non-unity multipliers in application order:
// urgency, time of day, district, distance.
func collectMultipliers(f Factors) map[string]float64 {
	multipliers := make(map[string]float64)

	if m, ok := urgencyMultipliers[f.Urgency]; ok && m != 1.0 {
		multipliers["urgency"] = m
	}
	if m, ok := timeMultipliers[f.TimeOfDay]; ok && m != 1.0 {
		multipliers["time_of_day"] = m
	}
	if m, ok := districtMultipliers[f.District]; ok && m != 1.0 {
		multipliers["district"] = m
	}
	if f.DistanceKM > freeDistanceKM {
		multipliers["distance"] = 1.0 + (f.DistanceKM-freeDistanceKM)*perKMSurcharge
	}
	return multipliers
}

func volumeDiscount(totalPoints int) float64 {
	for _, tier := range volumeDiscounts {
		if totalPoints >= tier.minPoints {
			return tier.percent
		}
	}
	return 0
}

func breakdown(f Factors, base, points float64) Breakdown {
	b := Breakdown{
		BaseService:       round2(base),
		MaterialsIncluded: f.MaterialsNeeded,
	}
	if points > 0 {
		b.InstallationPoints = &PointsBreakdown{
			Outlets:    f.Outlets,
			Switches:   f.Switches,
			Fixtures:   f.Fixtures,
			TotalPrice: round2(points),
		}
	}
	return b
}

// roundToTen rounds to the nearest ten rubles, halves away from zero.
// Pinned by tests: 45 -> 50, not 40.
func roundToTen(x float64) float64 {
	return math.Round(x/10) * 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
