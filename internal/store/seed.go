package store

import (
	"fmt"
	"log/slog"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
)

// SeedDemoData loads the demo phone registry and caregiver schedule into a
// store. It is idempotent; existing records with the same keys are replaced.
func SeedDemoData(st Store) error {
	phones := map[string]string{
		"+1234567890": "John Client",
		"+0987654321": "Jane Client",
	}
	for number, client := range phones {
		if err := st.AddRegisteredPhone(number, client); err != nil {
			return fmt.Errorf("failed to seed phone %s: %w", number, err)
		}
	}

	schedule := models.CaregiverSchedule{
		CaregiverName: "Mary Caregiver",
		ClientName:    "John Client",
		Phone:         "+1234567890",
		Schedule:      "Monday-Friday 9am-5pm",
		Location:      &models.Location{Lat: 40.7128, Lng: -74.0060},
	}
	if err := st.SaveCaregiverSchedule(schedule); err != nil {
		return fmt.Errorf("failed to seed schedule for %s: %w", schedule.CaregiverName, err)
	}

	slog.Info("Demo data seeded", "phones", len(phones), "schedules", 1)
	return nil
}
