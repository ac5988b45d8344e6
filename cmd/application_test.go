package cmd

import (
	"net/http"
	"testing"
	"time"

	"github.com/iksnae/jobtrack/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommand_Defaults(t *testing.T) {
	env := loggedIn(t)

	out, err := env.run(t, "create", "--company", " Acme ", "--position", "Backend Engineer")
	require.NoError(t, err)
	assert.Contains(t, out, "Created application 2: Backend Engineer at Acme")

	app, ok := env.fake.Application(2)
	require.True(t, ok)
	assert.Equal(t, "Acme", app.CompanyName)
	assert.Equal(t, string(internal.StatusApplied), app.Status)
	assert.Equal(t, time.Now().Format(internal.DateLayout), app.ApplicationDate)
	assert.Empty(t, app.WorkMode)
	assert.Nil(t, app.SalaryMin)
	assert.Nil(t, app.SalaryMax)
}

func TestCreateCommand_AllFields(t *testing.T) {
	env := loggedIn(t)

	_, err := env.run(t, "create",
		"--company", "Initech",
		"--position", "SRE",
		"--status", "interviewing",
		"--date", "2024-01-10",
		"--next-step", "2024-01-20",
		"--location", "Austin",
		"--work-mode", "remote",
		"--source", "Referral",
		"--url", "https://initech.example.com/jobs/1",
		"--salary-min", "0",
		"--salary-max", "120000",
	)
	require.NoError(t, err)

	app, ok := env.fake.Application(2)
	require.True(t, ok)
	assert.Equal(t, "INTERVIEWING", app.Status)
	assert.Equal(t, "2024-01-10", app.ApplicationDate)
	assert.Equal(t, "2024-01-20", app.NextStepDate)
	assert.Equal(t, "REMOTE", app.WorkMode)
	assert.Equal(t, "Referral", app.ApplicationSource)
	require.NotNil(t, app.SalaryMin)
	assert.Equal(t, 0, *app.SalaryMin, "an explicit zero is sent")
	require.NotNil(t, app.SalaryMax)
	assert.Equal(t, 120000, *app.SalaryMax)
}

func TestCreateCommand_ValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantField string
	}{
		{name: "missing company", args: []string{"--position", "SRE"}, wantField: "companyName"},
		{name: "blank position", args: []string{"--company", "Acme", "--position", "   "}, wantField: "positionTitle"},
		{name: "unknown status", args: []string{"--company", "Acme", "--position", "SRE", "--status", "hired"}, wantField: "status"},
		{name: "bad date", args: []string{"--company", "Acme", "--position", "SRE", "--date", "15/01/2024"}, wantField: "applicationDate"},
		{name: "bad work mode", args: []string{"--company", "Acme", "--position", "SRE", "--work-mode", "mars"}, wantField: "workMode"},
		{name: "bad url", args: []string{"--company", "Acme", "--position", "SRE", "--url", "not a url"}, wantField: "jobPostingUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := loggedIn(t)
			before := len(env.fake.Requests())

			_, err := env.run(t, append([]string{"create"}, tt.args...)...)
			var verr *internal.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
			assert.Equal(t, 0, env.fake.Calls(http.MethodPost, "/applications"))
			assert.Len(t, env.fake.Requests(), before)
		})
	}
}

func TestUpdateCommand_ChangesOnlyGivenFields(t *testing.T) {
	env := loggedIn(t)

	_, err := env.run(t, "create", "--company", "Acme", "--position", "Backend Engineer",
		"--date", "2024-01-05", "--location", "Berlin", "--salary-max", "90000")
	require.NoError(t, err)

	out, err := env.run(t, "update", "2", "--status", "OFFER", "--next-step", "2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated application 2")

	app, ok := env.fake.Application(2)
	require.True(t, ok)
	assert.Equal(t, "OFFER", app.Status)
	assert.Equal(t, "2024-02-01", app.NextStepDate)
	assert.Equal(t, "Acme", app.CompanyName)
	assert.Equal(t, "2024-01-05", app.ApplicationDate)
	assert.Equal(t, "Berlin", app.Location)
	require.NotNil(t, app.SalaryMax)
	assert.Equal(t, 90000, *app.SalaryMax)

	assert.Equal(t, 1, env.fake.Calls(http.MethodPut, "/applications/2"))
}

func TestUpdateCommand_ClearSalary(t *testing.T) {
	env := loggedIn(t)

	_, err := env.run(t, "create", "--company", "Acme", "--position", "SRE",
		"--salary-min", "70000", "--salary-max", "90000")
	require.NoError(t, err)

	_, err = env.run(t, "update", "2", "--clear-salary", "--salary-min", "80000")
	require.NoError(t, err)
	app, ok := env.fake.Application(2)
	require.True(t, ok)
	require.NotNil(t, app.SalaryMin)
	assert.Equal(t, 80000, *app.SalaryMin)
	assert.Nil(t, app.SalaryMax, "the old upper bound is not carried forward")

	_, err = env.run(t, "update", "2", "--clear-salary")
	require.NoError(t, err)
	app, _ = env.fake.Application(2)
	assert.Nil(t, app.SalaryMin)
	assert.Nil(t, app.SalaryMax)
	assert.Equal(t, "Acme", app.CompanyName)

	_, err = env.run(t, "create", "--clear-salary", "--company", "X", "--position", "Y")
	assert.Error(t, err, "create has nothing to clear")
}

func TestUpdateCommand_Errors(t *testing.T) {
	env := loggedIn(t)

	_, err := env.run(t, "update", "99", "--status", "OFFER")
	var apiErr *internal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 0, env.fake.Calls(http.MethodPut, "/applications/99"))

	_, err = env.run(t, "create", "--company", "Acme", "--position", "SRE")
	require.NoError(t, err)
	_, err = env.run(t, "update", "2", "--company", "")
	var verr *internal.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "companyName")
	assert.Equal(t, 0, env.fake.Calls(http.MethodPut, "/applications/2"))
}

func TestDeleteCommand(t *testing.T) {
	env := loggedIn(t)

	_, err := env.run(t, "create", "--company", "Acme", "--position", "SRE")
	require.NoError(t, err)
	_, err = env.run(t, "note", "add", "2", "first note")
	require.NoError(t, err)

	out, err := env.runWithInput(t, "n\n", "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")
	_, ok := env.fake.Application(2)
	assert.True(t, ok)

	out, err = env.runWithInput(t, "y\n", "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted application 2")
	_, ok = env.fake.Application(2)
	assert.False(t, ok)
	assert.Equal(t, 0, env.fake.NoteCount(2), "notes go with their application")

	_, err = env.run(t, "delete", "2", "--yes")
	var apiErr *internal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCommands_UnauthorizedLogsOut(t *testing.T) {
	env := loggedIn(t)
	env.fake.RevokeAll()

	_, err := env.run(t, "create", "--company", "Acme", "--position", "SRE")
	assert.ErrorIs(t, err, internal.ErrUnauthorized)

	_, err = env.run(t, "list")
	assert.ErrorIs(t, err, internal.ErrNotAuthenticated, "the stored session is gone after a 401")
}
