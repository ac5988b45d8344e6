package internal

import (
	"fmt"
	"time"
)

// CreateTestApplication creates an application with sample data
func CreateTestApplication(id int64) Application {
	lo, hi := 90000, 110000
	now := time.Now().UTC().Format("2006-01-02T15:04:05")
	return Application{
		ID:                id,
		CompanyName:       fmt.Sprintf("Company %d", id),
		PositionTitle:     "Software Engineer",
		Location:          "Berlin",
		WorkMode:          WorkModeHybrid,
		ApplicationSource: "Referral",
		JobPostingURL:     fmt.Sprintf("https://jobs.example.com/%d", id),
		SalaryMin:         &lo,
		SalaryMax:         &hi,
		Status:            StatusInterviewing,
		ApplicationDate:   "2024-01-15",
		NextStepDate:      "2024-02-01",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CreateTestReport creates a report with two notes, newest first
func CreateTestReport(id int64) *ApplicationReport {
	return &ApplicationReport{
		Application: CreateTestApplication(id),
		Notes: []Note{
			{
				ID:            id*100 + 2,
				ApplicationID: id,
				Content:       "Second round booked for Thursday",
				CreatedAt:     "2024-01-20T14:00:00",
			},
			{
				ID:            id*100 + 1,
				ApplicationID: id,
				Content:       "Recruiter call went well",
				CreatedAt:     "2024-01-16T09:30:00",
			},
		},
	}
}

// CreateTestReportWithNotes creates a minimal report with custom notes
func CreateTestReportWithNotes(id int64, notes []Note) *ApplicationReport {
	return &ApplicationReport{
		Application: Application{
			ID:              id,
			CompanyName:     fmt.Sprintf("Company %d", id),
			PositionTitle:   "Software Engineer",
			Status:          StatusApplied,
			ApplicationDate: "2024-01-15",
		},
		Notes: notes,
	}
}
