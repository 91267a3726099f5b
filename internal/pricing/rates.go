package pricing

// Rate tables. Amounts are in rubles. Changing a number here changes quotes
// everywhere; the calculator itself carries no constants.

const defaultBaseRate = 1500

// baseRates is the per-category base charge for a one-hour, complexity-1 job.
var baseRates = map[Category]float64{
	CategoryElectrical: 1500,
	CategoryPlumbing:   1800,
	CategoryAppliance:  2000,
	CategoryGeneral:    1200,
	CategoryHVAC:       3000,
	CategoryEmergency:  2500,
}

// Electrical installation-point rates. The wiring rate is added per point
// when the job includes materials (new wiring is pulled, not just the
// fitting swapped).
const (
	outletInstallRate  = 350
	outletWiringRate   = 850
	switchInstallRate  = 300
	switchWiringRate   = 1500
	fixtureInstallRate = 1000
)

// extraHourRate is added for each estimated hour beyond the first.
const extraHourRate = 800

// complexityStep scales the base +20% per complexity level above 1.
const complexityStep = 0.20

// Flag surcharges compose multiplicatively on the base price, applied in the
// fixed order materials, high-voltage, height, outdoors so totals are
// reproducible.
const (
	materialsSurcharge   = 1.15
	highVoltageSurcharge = 1.30
	heightWorkSurcharge  = 1.25
	outdoorsSurcharge    = 1.20
)

var urgencyMultipliers = map[Urgency]float64{
	UrgencyNormal:    1.0,
	UrgencyUrgent:    1.5,
	UrgencyEmergency: 2.0,
}

var timeMultipliers = map[TimeOfDay]float64{
	TimeMorning: 1.0,
	TimeDay:     1.0,
	TimeEvening: 1.2,
	TimeNight:   1.5,
}

var districtMultipliers = map[District]float64{
	DistrictCenter:       1.0,
	DistrictLeningradsky: 1.05,
	DistrictMoskovsky:    1.05,
	DistrictOktyabrsky:   1.05,
	DistrictBaltika:      1.1,
	DistrictSvetlogorsk:  1.2,
}

// Distance surcharge: +2% per kilometer beyond the free 10 km radius.
const (
	freeDistanceKM  = 10.0
	perKMSurcharge  = 0.02
)

// volumeDiscounts is the tiered discount on the total installation-point
// count, checked top tier first.
var volumeDiscounts = []struct {
	minPoints int
	percent   float64
}{
	{21, 0.20},
	{11, 0.15},
	{6, 0.10},
	{3, 0.05},
}
