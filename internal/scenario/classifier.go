// Package scenario provides scenario classification and the scripted response
// templates for caregiver support messages.
//
// Classification is a fixed-priority keyword match over the caller's message
// and stated reason; it always yields exactly one category.
package scenario

import (
	"log/slog"
	"strings"
)

// Category is one of the closed set of chat scenario classifications.
type Category string

const (
	// CategorySchedule covers missing or wrong calendar entries.
	CategorySchedule Category = "Schedule Issue"
	// CategoryLocation covers GPS and service-area problems.
	CategoryLocation Category = "Location Issue"
	// CategoryPhone covers IVR and unregistered phone number problems.
	CategoryPhone Category = "Phone Issue"
	// CategoryTiming covers late or early clock events and missed hours.
	CategoryTiming Category = "Timing Issue"
	// CategoryGeneral is the total fallback when nothing else matches.
	CategoryGeneral Category = "General Inquiry"
)

// keywordRule pairs a category with the literal words that select it.
type keywordRule struct {
	category Category
	keywords []string
}

// classificationRules are tested in order; the first matching rule wins, so
// the order itself encodes the priority (schedule before location before
// phone before timing).
var classificationRules = []keywordRule{
	{CategorySchedule, []string{"schedule", "calendar", "missing", "not showing", "removed"}},
	{CategoryLocation, []string{"location", "gps", "outside", "range", "distance", "address"}},
	{CategoryPhone, []string{"phone", "number", "call", "ivr", "registered"}},
	{CategoryTiming, []string{"late", "early", "time", "clock", "hours", "forgot"}},
}

// Classify maps a free-text message and stated reason to a Category.
// It never fails: CategoryGeneral is returned when no keyword set matches.
func Classify(message, reason string) Category {
	combined := strings.ToLower(reason + " " + message)

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				slog.Debug("scenario.Classify: keyword matched", "category", rule.category, "keyword", kw)
				return rule.category
			}
		}
	}

	slog.Debug("scenario.Classify: no keyword matched, defaulting", "category", CategoryGeneral)
	return CategoryGeneral
}

// IsValidCategory checks if the given category is part of the closed enumeration.
func IsValidCategory(c Category) bool {
	switch c {
	case CategorySchedule, CategoryLocation, CategoryPhone, CategoryTiming, CategoryGeneral:
		return true
	default:
		return false
	}
}
