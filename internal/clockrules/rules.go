// Package clockrules evaluates clock-in and clock-out events against the
// agency's compliance rules and selects the scripted agent response.
//
// Rules are checked in a fixed priority order and the first match wins; a
// default success response makes evaluation total.
package clockrules

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
)

// Rule thresholds. The distance formula is the crude planar approximation the
// compliance scripts were calibrated against: (|dlat| + |dlng|) * 69 miles.
// Swapping in geodesic distance would silently change rule 3's semantics.
const (
	// MaxDistanceMiles is the allowed distance from the client's home.
	MaxDistanceMiles = 0.5
	// MilesPerDegree is the rough degrees-to-miles conversion factor.
	MilesPerDegree = 69.0
	// MaxClockWindow is the allowed deviation from the scheduled time.
	MaxClockWindow = 15 * time.Minute
)

const noScheduleScript = `Hello, this is Rosella, I am calling from Independence Care, how are you doing today?

I see you clocked in but there seems to be no schedule on your Calendar, can you confirm the client you are working with today?

[Wait for response]

No, please do not leave. Unfortunately, the app can malfunction at times and remove Caregivers from schedules. I will add you to the schedule and clock you in, if for any reason this causes an error your coordinator will reach out to you to clarify.`

const gpsOutOfRangeScript = `Hello, this is Rosella, I am calling from Independence Care, how are you doing today!

I have noticed you have clocked in outside of the client's service area, which is not close to your client's house. Can you please clock in again once you are at your client's house, because we are not able to accept this clock in.

[Listen for explanation]

Remember it is state law that a Home Care agency cannot bill for visits that are rendered outside of the client's home.`

const gpsOutOfRangeClockOutScript = `Hello, this is Rosella, I am calling from Independence Care, how are you doing today!

I have noticed your clock out is outside of the client's service area, and we are not able to accept that. Can you please go back and clock out from your client's house? Because we can't complete the visit without your clock out.

I apologize for the inconvenience this causes but we will not be able to mark your shift as completed without a clock out, so it is really important.`

const outOfWindowScript = `Hello, this is Rosella, I am calling from Independence Care, how are you doing today!

I have noticed that you clocked in late for your shift today, I just wanted to confirm what was the reason for that?

[Listen for reason]

Would you be willing to make up for the hours you missed today by staying late on your shift today? Or any other day throughout the week?`

// Evaluator checks clock events against the registered-phone directory and
// caregiver schedules held in the store.
type Evaluator struct {
	st store.Store
}

// NewEvaluator creates an Evaluator backed by the given store.
func NewEvaluator(st store.Store) *Evaluator {
	slog.Debug("clockrules.NewEvaluator: creating evaluator")
	return &Evaluator{st: st}
}

// Distance approximates the distance in miles between two coordinates as the
// sum of absolute latitude and longitude deltas scaled by MilesPerDegree.
func Distance(a, b models.Location) float64 {
	return (math.Abs(a.Lat-b.Lat) + math.Abs(a.Lng-b.Lng)) * MilesPerDegree
}

// EvaluateClockIn runs the ordered clock-in rules and returns the first
// matching scripted scenario. Rule evaluation is total: when nothing matches,
// the success response is returned.
func (e *Evaluator) EvaluateClockIn(ctx context.Context, req models.ClockInRequest) (models.ScenarioResponse, error) {
	slog.Debug("clockrules.EvaluateClockIn: evaluating event", "caregiver", req.CaregiverName, "has_schedule", req.HasSchedule)

	// Rule 1: no schedule on the calendar or no client name present.
	if !req.HasSchedule || req.ClientName == "" {
		slog.Info("clockrules.EvaluateClockIn: no schedule rule matched", "caregiver", req.CaregiverName)
		return models.ScenarioResponse{
			ScenarioType:    models.ScenarioNoSchedule,
			AgentScript:     noScheduleScript,
			ActionsRequired: []string{"Add caregiver to schedule", "Clock in caregiver", "Notify coordinator"},
			Priority:        models.PriorityHigh,
		}, nil
	}

	// Rule 2: phone number not found in the registered-phone directory.
	clientName, err := e.st.GetRegisteredPhone(req.PhoneNumber)
	if err != nil {
		return models.ScenarioResponse{}, fmt.Errorf("failed to look up phone %s: %w", req.PhoneNumber, err)
	}
	if clientName == "" {
		slog.Info("clockrules.EvaluateClockIn: phone not found rule matched", "caregiver", req.CaregiverName, "phone", req.PhoneNumber)
		return models.ScenarioResponse{
			ScenarioType: models.ScenarioPhoneNotFound,
			AgentScript: fmt.Sprintf(`Hello, this is Rosella, I am calling from Independence Care, how are you doing today!

I have noticed that you have clocked in using a phone number that is not registered with us. Can you confirm whose number this is? (%s)

[Wait for confirmation]

Okay, can your client confirm that?

[Get client on phone for verification]`, req.PhoneNumber),
			ActionsRequired: []string{"Verify phone number", "Update client profile", "Confirm with client"},
			Priority:        models.PriorityMedium,
		}, nil
	}

	// Rule 3: reported location too far from the expected service location.
	if resp, matched, err := e.checkLocation(req.CaregiverName, req.Location, gpsOutOfRangeScript,
		[]string{"Request re-clock in", "Verify location", "Document exception if valid"}); err != nil {
		return models.ScenarioResponse{}, err
	} else if matched {
		return resp, nil
	}

	// Rule 4: clock event outside the allowed time window.
	scheduled, actual, err := models.ParseEventTimes(req.ScheduledTime, req.ActualTime)
	if err != nil {
		return models.ScenarioResponse{}, err
	}
	diff := actual.Sub(scheduled)
	if diff < 0 {
		diff = -diff
	}
	if diff > MaxClockWindow {
		slog.Info("clockrules.EvaluateClockIn: out of window rule matched", "caregiver", req.CaregiverName, "deviation", diff)
		return models.ScenarioResponse{
			ScenarioType:    models.ScenarioOutOfWindow,
			AgentScript:     outOfWindowScript,
			ActionsRequired: []string{"Confirm reason", "Adjust schedule if needed", "Document time change"},
			Priority:        models.PriorityMedium,
		}, nil
	}

	slog.Debug("clockrules.EvaluateClockIn: no rule matched, clock-in successful", "caregiver", req.CaregiverName)
	return models.ScenarioResponse{
		ScenarioType:    models.ScenarioSuccess,
		AgentScript:     "Clock-in successful. Have a great shift!",
		ActionsRequired: []string{"Log successful clock-in"},
		Priority:        models.PriorityLow,
	}, nil
}

// EvaluateClockOut runs the clock-out rules: only the location check applies.
func (e *Evaluator) EvaluateClockOut(ctx context.Context, req models.ClockOutRequest) (models.ScenarioResponse, error) {
	slog.Debug("clockrules.EvaluateClockOut: evaluating event", "caregiver", req.CaregiverName)

	// Timestamps are still validated so malformed input surfaces as a client
	// error instead of being silently accepted.
	if _, _, err := models.ParseEventTimes(req.ScheduledTime, req.ActualTime); err != nil {
		return models.ScenarioResponse{}, err
	}

	if resp, matched, err := e.checkLocation(req.CaregiverName, req.Location, gpsOutOfRangeClockOutScript,
		[]string{"Request return to client location", "Re-clock out", "Document issue"}); err != nil {
		return models.ScenarioResponse{}, err
	} else if matched {
		return resp, nil
	}

	slog.Debug("clockrules.EvaluateClockOut: no rule matched, clock-out successful", "caregiver", req.CaregiverName)
	return models.ScenarioResponse{
		ScenarioType:    models.ScenarioSuccess,
		AgentScript:     "Clock-out successful. Thank you for your service today!",
		ActionsRequired: []string{"Log successful clock-out"},
		Priority:        models.PriorityLow,
	}, nil
}

// DuplicateCall returns the acknowledgment scenario for duplicate clock events.
func DuplicateCall() models.ScenarioResponse {
	return models.ScenarioResponse{
		ScenarioType:    models.ScenarioDuplicateCall,
		AgentScript:     "Duplicate call detected - no action required",
		ActionsRequired: []string{},
		Priority:        models.PriorityLow,
	}
}

// checkLocation applies the GPS rule when an expected location is known for
// the caregiver. It reports whether the rule matched.
func (e *Evaluator) checkLocation(caregiverName string, reported *models.Location, script string, actions []string) (models.ScenarioResponse, bool, error) {
	sched, err := e.st.GetCaregiverSchedule(caregiverName)
	if err != nil {
		return models.ScenarioResponse{}, false, fmt.Errorf("failed to look up schedule for %s: %w", caregiverName, err)
	}
	if sched == nil || sched.Location == nil || reported == nil {
		return models.ScenarioResponse{}, false, nil
	}

	distance := Distance(*reported, *sched.Location)
	if distance <= MaxDistanceMiles {
		return models.ScenarioResponse{}, false, nil
	}

	slog.Info("clockrules.checkLocation: GPS out of range rule matched", "caregiver", caregiverName, "distance_miles", distance)
	return models.ScenarioResponse{
		ScenarioType:    models.ScenarioGPSOutOfRange,
		AgentScript:     script,
		ActionsRequired: actions,
		Priority:        models.PriorityHigh,
	}, true, nil
}
