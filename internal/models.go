package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates (application date, next step date)
const DateLayout = "2006-01-02"

// ApplicationStatus is the pipeline stage of an application
type ApplicationStatus string

const (
	StatusApplied      ApplicationStatus = "APPLIED"
	StatusInterviewing ApplicationStatus = "INTERVIEWING"
	StatusOffer        ApplicationStatus = "OFFER"
	StatusAccepted     ApplicationStatus = "ACCEPTED"
	StatusRejected     ApplicationStatus = "REJECTED"
	StatusWithdrawn    ApplicationStatus = "WITHDRAWN"
)

// ApplicationStatuses lists every status in pipeline order
var ApplicationStatuses = []ApplicationStatus{
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

// WorkMode is where the position is worked from
type WorkMode string

const (
	WorkModeOnsite WorkMode = "ONSITE"
	WorkModeRemote WorkMode = "REMOTE"
	WorkModeHybrid WorkMode = "HYBRID"
)

// WorkModes lists every work mode
var WorkModes = []WorkMode{WorkModeOnsite, WorkModeRemote, WorkModeHybrid}

// User is the profile of the logged-in account
type User struct {
	ID       int64  `json:"id,omitempty" yaml:"id,omitempty"`
	FullName string `json:"fullName" yaml:"full_name"`
	Email    string `json:"email" yaml:"email"`
}

// AuthResponse is the session payload returned by register and login
type AuthResponse struct {
	Token    string `json:"token"`
	ID       int64  `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// User extracts the profile part of the payload
func (a AuthResponse) User() User {
	return User{ID: a.ID, FullName: a.FullName, Email: a.Email}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
// ConfirmPassword is checked locally and never sent.
type RegisterRequest struct {
	FullName        string `json:"fullName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
}

// Application is a tracked job application as returned by the backend
type Application struct {
	ID                int64             `json:"id" yaml:"id"`
	CompanyName       string            `json:"companyName" yaml:"company_name"`
	PositionTitle     string            `json:"positionTitle" yaml:"position_title"`
	Location          string            `json:"location,omitempty" yaml:"location,omitempty"`
	WorkMode          WorkMode          `json:"workMode,omitempty" yaml:"work_mode,omitempty"`
	ApplicationSource string            `json:"applicationSource,omitempty" yaml:"application_source,omitempty"`
	JobPostingURL     string            `json:"jobPostingUrl,omitempty" yaml:"job_posting_url,omitempty"`
	SalaryMin         *int              `json:"salaryMin,omitempty" yaml:"salary_min,omitempty"`
	SalaryMax         *int              `json:"salaryMax,omitempty" yaml:"salary_max,omitempty"`
	Status            ApplicationStatus `json:"status" yaml:"status"`
	ApplicationDate   string            `json:"applicationDate" yaml:"application_date"`
	NextStepDate      string            `json:"nextStepDate,omitempty" yaml:"next_step_date,omitempty"`
	CreatedAt         string            `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         string            `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// Request returns the full-replacement body for this application
func (a *Application) Request() ApplicationRequest {
	return ApplicationRequest{
		CompanyName:       a.CompanyName,
		PositionTitle:     a.PositionTitle,
		Location:          a.Location,
		WorkMode:          a.WorkMode,
		ApplicationSource: a.ApplicationSource,
		JobPostingURL:     a.JobPostingURL,
		SalaryMin:         a.SalaryMin,
		SalaryMax:         a.SalaryMax,
		Status:            a.Status,
		ApplicationDate:   a.ApplicationDate,
		NextStepDate:      a.NextStepDate,
	}
}

// GetCreatedAt parses the creation timestamp
func (a *Application) GetCreatedAt() time.Time {
	return parseTimestamp(a.CreatedAt)
}

// GetUpdatedAt parses the last-modified timestamp
func (a *Application) GetUpdatedAt() time.Time {
	return parseTimestamp(a.UpdatedAt)
}

// ApplicationRequest is the body of POST /applications and PUT /applications/{id}
type ApplicationRequest struct {
	CompanyName       string            `json:"companyName" validate:"required,notblank"`
	PositionTitle     string            `json:"positionTitle" validate:"required,notblank"`
	Location          string            `json:"location,omitempty"`
	WorkMode          WorkMode          `json:"workMode,omitempty" validate:"omitempty,oneof=ONSITE REMOTE HYBRID"`
	ApplicationSource string            `json:"applicationSource,omitempty"`
	JobPostingURL     string            `json:"jobPostingUrl,omitempty" validate:"omitempty,url"`
	SalaryMin         *int              `json:"salaryMin,omitempty" validate:"omitempty,min=0"`
	SalaryMax         *int              `json:"salaryMax,omitempty" validate:"omitempty,min=0"`
	Status            ApplicationStatus `json:"status" validate:"required,oneof=APPLIED INTERVIEWING OFFER ACCEPTED REJECTED WITHDRAWN"`
	ApplicationDate   string            `json:"applicationDate" validate:"required,datetime=2006-01-02"`
	NextStepDate      string            `json:"nextStepDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Note is a free-text note attached to one application
type Note struct {
	ID            int64  `json:"id" yaml:"id"`
	ApplicationID int64  `json:"applicationId" yaml:"application_id"`
	Content       string `json:"content" yaml:"content"`
	CreatedAt     string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// GetCreatedAt parses the creation timestamp
func (n *Note) GetCreatedAt() time.Time {
	return parseTimestamp(n.CreatedAt)
}

// NoteRequest is the body of note create and update calls
type NoteRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

// ApplicationReport bundles an application with its notes for display and export
type ApplicationReport struct {
	Application Application `json:"application" yaml:"application"`
	Notes       []Note      `json:"notes" yaml:"notes"`
}

// ToIntermediaryJSON returns the indented JSON form of the report
func (r *ApplicationReport) ToIntermediaryJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

// parseTimestamp parses backend timestamps, which may or may not carry a zone.
// Unparseable input yields the zero time.
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
