package pricing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Estimator derives price factors from a free-text problem description. The
// keyword implementation below is deliberately crude; the interface exists so
// it can be replaced by a real classifier without touching the price
// arithmetic.
type Estimator interface {
	Factors(description string, categoryHint Category) Factors
}

// Keyword stems, matched against the lowercased description. An optional
// numeric quantifier before an item stem sets the count ("3 розетки" counts
// as three outlets, a bare "розетка" as one).
var (
	reOutlets  = regexp.MustCompile(`(?:(\d+)\s*)?[а-яё]*розетк`)
	reSwitches = regexp.MustCompile(`(?:(\d+)\s*)?[а-яё]*выключател`)
	reFixtures = regexp.MustCompile(`(?:(\d+)\s*)?[а-яё]*люстр`)

	plumbingWords  = []string{"кран", "труба", "слив", "сантехника"}
	applianceWords = []string{"стиральная", "холодильник", "техника"}
	hvacWords      = []string{"кондиционер", "вентиляция"}

	urgencyWords   = []string{"срочно", "сейчас", "экстренно", "горит"}
	emergencyWords = []string{"экстренно", "горит"}

	highVoltageWords = []string{"щит", "автомат", "380", "трёхфазн"}
)

// KeywordEstimator classifies a description by keyword matching.
type KeywordEstimator struct{}

// Factors derives factors from the description. Deterministic: the same text
// always produces the same factors.
//
// Classification rules, in order:
//   - category: explicit plumbing/appliance/hvac hints or keywords override
//     the hint, otherwise electrical;
//   - urgency: emergency only on explicit emergency keywords, urgent on any
//     generic urgency keyword;
//   - item counts from quantified keyword stems;
//   - complexity from text length (>200 runes -> 3, >100 -> 2), escalated to
//     at least 4 when panel/breaker/three-phase keywords appear, which also
//     sets the high-voltage flag;
//   - hours: 2 when more than five outlets+switches, +1 when complexity >= 3;
//   - materials only for normal-urgency jobs (rushed jobs skip sourcing).
func (KeywordEstimator) Factors(description string, categoryHint Category) Factors {
	lower := strings.ToLower(description)

	category := CategoryElectrical
	switch {
	case categoryHint == CategoryPlumbing || containsAny(lower, plumbingWords):
		category = CategoryPlumbing
	case categoryHint == CategoryAppliance || containsAny(lower, applianceWords):
		category = CategoryAppliance
	case categoryHint == CategoryHVAC || containsAny(lower, hvacWords):
		category = CategoryHVAC
	}

	urgency := UrgencyNormal
	if containsAny(lower, urgencyWords) {
		urgency = UrgencyUrgent
		if containsAny(lower, emergencyWords) {
			urgency = UrgencyEmergency
		}
	}

	outlets := countItems(reOutlets, lower)
	switches := countItems(reSwitches, lower)
	fixtures := countItems(reFixtures, lower)

	complexity := 1
	switch length := utf8.RuneCountInString(description); {
	case length > 200:
		complexity = 3
	case length > 100:
		complexity = 2
	}

	highVoltage := containsAny(lower, highVoltageWords)
	if highVoltage && complexity < 4 {
		complexity = 4
	}

	hours := 1.0
	if outlets+switches > 5 {
		hours = 2.0
	}
	if complexity >= 3 {
		hours++
	}

	f := DefaultFactors(category)
	f.Description = description
	f.Urgency = urgency
	f.Complexity = complexity
	f.EstimatedHours = hours
	f.Outlets = outlets
	f.Switches = switches
	f.Fixtures = fixtures
	f.HighVoltage = highVoltage
	f.MaterialsNeeded = urgency == UrgencyNormal
	return f
}

// Estimate is the free-text pricing entrypoint: derive factors with the
// default keyword estimator and price them. Like Calculate it never fails.
func Estimate(description string, categoryHint Category) Quote {
	return Calculate(KeywordEstimator{}.Factors(description, categoryHint))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// countItems sums stem matches, honoring an optional leading quantity.
func countItems(re *regexp.Regexp, lower string) int {
	total := 0
	for _, m := range re.FindAllStringSubmatch(lower, -1) {
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				total += n
				continue
			}
		}
		total++
	}
	return total
}
