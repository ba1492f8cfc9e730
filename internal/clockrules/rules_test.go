package clockrules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/store"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	st := store.NewInMemoryStore()
	if err := store.SeedDemoData(st); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return NewEvaluator(st)
}

// validClockIn is an event that passes every rule for the seeded demo data.
func validClockIn() models.ClockInRequest {
	return models.ClockInRequest{
		CaregiverName: "Mary Caregiver",
		ClientName:    "John Client",
		PhoneNumber:   "+1234567890",
		Location:      &models.Location{Lat: 40.7128, Lng: -74.0060},
		ScheduledTime: "2024-01-15T09:00:00Z",
		ActualTime:    "2024-01-15T09:05:00Z",
		HasSchedule:   true,
	}
}

func TestClockInSuccess(t *testing.T) {
	e := newTestEvaluator(t)
	resp, err := e.EvaluateClockIn(context.Background(), validClockIn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioSuccess {
		t.Errorf("expected success, got %q", resp.ScenarioType)
	}
	if resp.Priority != models.PriorityLow {
		t.Errorf("expected low priority, got %q", resp.Priority)
	}
}

func TestClockInNoSchedule(t *testing.T) {
	e := newTestEvaluator(t)

	req := validClockIn()
	req.HasSchedule = false
	resp, err := e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioNoSchedule {
		t.Errorf("expected no_schedule, got %q", resp.ScenarioType)
	}
	if resp.Priority != models.PriorityHigh {
		t.Errorf("expected high priority, got %q", resp.Priority)
	}

	// Missing client name triggers the same rule even with has_schedule set.
	req = validClockIn()
	req.ClientName = ""
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioNoSchedule {
		t.Errorf("expected no_schedule for missing client name, got %q", resp.ScenarioType)
	}
}

func TestClockInRuleOrderShortCircuits(t *testing.T) {
	e := newTestEvaluator(t)

	// No schedule AND unregistered phone AND out-of-range GPS: rule 1 wins.
	req := validClockIn()
	req.HasSchedule = false
	req.PhoneNumber = "+15550000000"
	req.Location = &models.Location{Lat: 41.0, Lng: -75.0}
	resp, err := e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioNoSchedule {
		t.Errorf("expected no_schedule to short-circuit, got %q", resp.ScenarioType)
	}

	// With a schedule, the unregistered phone outranks the GPS rule.
	req.HasSchedule = true
	req.ClientName = "John Client"
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioPhoneNotFound {
		t.Errorf("expected phone_not_found before GPS check, got %q", resp.ScenarioType)
	}
	if !strings.Contains(resp.AgentScript, "+15550000000") {
		t.Error("phone script should reference the unregistered number")
	}
}

func TestClockInDistanceBoundary(t *testing.T) {
	e := newTestEvaluator(t)

	// Exactly at the expected coordinates: distance 0, no GPS flag.
	resp, err := e.EvaluateClockIn(context.Background(), validClockIn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType == models.ScenarioGPSOutOfRange {
		t.Error("distance 0 must not trigger GPS out of range")
	}

	// Just below the 0.5 mile boundary: (0.007 degrees * 69) = 0.483 miles.
	req := validClockIn()
	req.Location = &models.Location{Lat: 40.7128 + 0.007, Lng: -74.0060}
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType == models.ScenarioGPSOutOfRange {
		t.Errorf("distance just below threshold must not trigger, got %q", resp.ScenarioType)
	}

	// Just above: (0.008 degrees * 69) = 0.552 miles.
	req.Location = &models.Location{Lat: 40.7128 + 0.008, Lng: -74.0060}
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioGPSOutOfRange {
		t.Errorf("distance just above threshold must trigger, got %q", resp.ScenarioType)
	}
	if resp.Priority != models.PriorityHigh {
		t.Errorf("expected high priority, got %q", resp.Priority)
	}
}

func TestClockInTimingBoundary(t *testing.T) {
	e := newTestEvaluator(t)

	// Exactly 15 minutes late does not trigger.
	req := validClockIn()
	req.ActualTime = "2024-01-15T09:15:00Z"
	resp, err := e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioSuccess {
		t.Errorf("exactly 15 minutes must not trigger out_of_window, got %q", resp.ScenarioType)
	}

	// 15 minutes and one second does.
	req.ActualTime = "2024-01-15T09:15:01Z"
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioOutOfWindow {
		t.Errorf("over 15 minutes must trigger out_of_window, got %q", resp.ScenarioType)
	}

	// Early arrivals count the same as late ones.
	req.ActualTime = "2024-01-15T08:30:00Z"
	resp, err = e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioOutOfWindow {
		t.Errorf("early arrival beyond window must trigger out_of_window, got %q", resp.ScenarioType)
	}
}

func TestClockInMalformedTimestamp(t *testing.T) {
	e := newTestEvaluator(t)
	req := validClockIn()
	req.ScheduledTime = "January 15th, 9am"
	_, err := e.EvaluateClockIn(context.Background(), req)
	if !errors.Is(err, models.ErrInvalidTimestamp) {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestClockOutLocationRuleOnly(t *testing.T) {
	e := newTestEvaluator(t)

	req := models.ClockOutRequest{
		CaregiverName: "Mary Caregiver",
		ClientName:    "John Client",
		PhoneNumber:   "+15550000000", // unregistered, but clock-out doesn't check phones
		Location:      &models.Location{Lat: 40.7128, Lng: -74.0060},
		ScheduledTime: "2024-01-15T17:00:00Z",
		ActualTime:    "2024-01-15T18:00:00Z", // an hour off, but clock-out doesn't check timing
	}
	resp, err := e.EvaluateClockOut(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioSuccess {
		t.Errorf("expected success for in-range clock-out, got %q", resp.ScenarioType)
	}

	req.Location = &models.Location{Lat: 41.0, Lng: -74.0060}
	resp, err = e.EvaluateClockOut(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ScenarioType != models.ScenarioGPSOutOfRange {
		t.Errorf("expected gps_out_of_range, got %q", resp.ScenarioType)
	}
	if !strings.Contains(resp.AgentScript, "clock out") {
		t.Error("clock-out script should reference clocking out")
	}
}

func TestClockOutMalformedTimestamp(t *testing.T) {
	e := newTestEvaluator(t)
	req := models.ClockOutRequest{
		CaregiverName: "Mary Caregiver",
		PhoneNumber:   "+1234567890",
		Location:      &models.Location{Lat: 40.7128, Lng: -74.0060},
		ScheduledTime: "2024-01-15T17:00:00Z",
		ActualTime:    "bad",
	}
	if _, err := e.EvaluateClockOut(context.Background(), req); !errors.Is(err, models.ErrInvalidTimestamp) {
		t.Errorf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestClockInUnknownCaregiverSkipsGPSRule(t *testing.T) {
	e := newTestEvaluator(t)
	req := validClockIn()
	req.CaregiverName = "Unknown Caregiver"
	req.Location = &models.Location{Lat: 0, Lng: 0}
	resp, err := e.EvaluateClockIn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No expected location on file means the GPS rule cannot apply.
	if resp.ScenarioType == models.ScenarioGPSOutOfRange {
		t.Error("GPS rule must not apply without a known expected location")
	}
}

func TestDistance(t *testing.T) {
	a := models.Location{Lat: 40.7128, Lng: -74.0060}
	if d := Distance(a, a); d != 0 {
		t.Errorf("expected 0 distance for identical points, got %v", d)
	}
	b := models.Location{Lat: 40.7128 + 0.01, Lng: -74.0060}
	if d := Distance(a, b); d < 0.68 || d > 0.70 {
		t.Errorf("expected ~0.69 miles for 0.01 degree delta, got %v", d)
	}
}

func TestDuplicateCall(t *testing.T) {
	resp := DuplicateCall()
	if resp.ScenarioType != models.ScenarioDuplicateCall {
		t.Errorf("expected duplicate_call, got %q", resp.ScenarioType)
	}
	if resp.Priority != models.PriorityLow {
		t.Errorf("expected low priority, got %q", resp.Priority)
	}
}
