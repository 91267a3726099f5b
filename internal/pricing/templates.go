package pricing

// Quote templates for the most common jobs, keyed by name. Exposed through
// the pricing API so the client form can offer one-tap price checks.
var quickTemplates = map[string]Factors{
	"outlet_single": withPoints(DefaultFactors(CategoryElectrical),
		"Установка одной розетки", 1, 0, 0, false),
	"outlet_block_3": withPoints(DefaultFactors(CategoryElectrical),
		"Установка блока из 3 розеток", 3, 0, 0, true),
	"chandelier": withPoints(DefaultFactors(CategoryElectrical),
		"Установка люстры", 0, 0, 1, false),
	"washing_machine": {
		Category:       CategoryAppliance,
		Urgency:        UrgencyNormal,
		TimeOfDay:      TimeDay,
		District:       DistrictCenter,
		Description:    "Подключение стиральной машины",
		EstimatedHours: 1.5,
		Complexity:     1,
	},
	"ac_install": {
		Category:       CategoryHVAC,
		Urgency:        UrgencyNormal,
		TimeOfDay:      TimeDay,
		District:       DistrictCenter,
		Description:    "Установка кондиционера",
		EstimatedHours: 3.0,
		Complexity:     3,
		HeightWork:     true,
	},
	"emergency_electrical": {
		Category:       CategoryEmergency,
		Urgency:        UrgencyEmergency,
		TimeOfDay:      TimeDay,
		District:       DistrictCenter,
		Description:    "Экстренный вызов электрика",
		EstimatedHours: 1.0,
		Complexity:     1,
	},
}

// Template returns the named quote template.
func Template(name string) (Factors, bool) {
	f, ok := quickTemplates[name]
	return f, ok
}

// TemplateNames lists the available template names in no particular order.
func TemplateNames() []string {
	names := make([]string, 0, len(quickTemplates))
	for name := range quickTemplates {
		names = append(names, name)
	}
	return names
}

func withPoints(f Factors, description string, outlets, switches, fixtures int, materials bool) Factors {
	f.Description = description
	f.Outlets = outlets
	f.Switches = switches
	f.Fixtures = fixtures
	f.MaterialsNeeded = materials
	return f
}
