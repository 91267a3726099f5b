// Package pricing converts a structured description of requested work, or a
// free-text problem description, into a price quote. Everything in this
// package is a pure function of its inputs: no I/O, no clock, no state.
package pricing

// Category is the service category a job belongs to.
type Category string

const (
	CategoryElectrical Category = "electrical"
	CategoryPlumbing   Category = "plumbing"
	CategoryAppliance  Category = "appliance"
	CategoryGeneral    Category = "general"
	CategoryHVAC       Category = "hvac"
	CategoryEmergency  Category = "emergency"
)

// ParseCategory maps a raw string to a known category. Unknown values are
// reported but still usable: the calculator falls back to the default base
// rate rather than failing.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryElectrical, CategoryPlumbing, CategoryAppliance,
		CategoryGeneral, CategoryHVAC, CategoryEmergency:
		return Category(s), true
	}
	return Category(s), false
}

// Urgency is how soon the client needs the work done.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"    // within 1-2 days
	UrgencyUrgent    Urgency = "urgent"    // today
	UrgencyEmergency Urgency = "emergency" // within the hour
)

// TimeOfDay buckets the requested visit time.
type TimeOfDay string

const (
	TimeMorning TimeOfDay = "morning" // 08:00-12:00
	TimeDay     TimeOfDay = "day"     // 12:00-18:00
	TimeEvening TimeOfDay = "evening" // 18:00-22:00
	TimeNight   TimeOfDay = "night"   // 22:00-08:00
)

// District is the city district of the job address. Rates grow with distance
// from the center; svetlogorsk is the exurb tier.
type District string

const (
	DistrictCenter       District = "center"
	DistrictLeningradsky District = "leningradsky"
	DistrictMoskovsky    District = "moskovsky"
	DistrictOktyabrsky   District = "oktyabrsky"
	DistrictBaltika      District = "baltika"
	DistrictSvetlogorsk  District = "svetlogorsk"
)

// Factors describes one job's rateable attributes. Constructed fresh per
// pricing request and treated as immutable once priced.
type Factors struct {
	Category  Category  `json:"category"`
	Urgency   Urgency   `json:"urgency"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	District  District  `json:"district"`

	Description    string  `json:"description"`
	EstimatedHours float64 `json:"estimated_hours"`
	Complexity     int     `json:"complexity"` // 1-5

	MaterialsNeeded bool `json:"materials_needed"`
	HighVoltage     bool `json:"high_voltage"` // 380V instead of 220V
	HeightWork      bool `json:"height_work"`
	Outdoors        bool `json:"outdoors"`

	// Installation points; only priced for electrical jobs.
	Outlets  int `json:"outlets"`
	Switches int `json:"switches"`
	Fixtures int `json:"fixtures"` // fixed light fixtures (chandeliers)

	DistanceKM float64 `json:"distance_km"`
}

// DefaultFactors returns factors with the neutral defaults: normal urgency,
// daytime, city center, one hour of simple work.
func DefaultFactors(category Category) Factors {
	return Factors{
		Category:       category,
		Urgency:        UrgencyNormal,
		TimeOfDay:      TimeDay,
		District:       DistrictCenter,
		EstimatedHours: 1.0,
		Complexity:     1,
	}
}
