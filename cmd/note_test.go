package cmd

import (
	"net/http"
	"testing"

	"github.com/iksnae/jobtrack/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withApplication returns a signed-in environment holding application 2
func withApplication(t *testing.T) *testEnv {
	t.Helper()
	env := loggedIn(t)
	_, err := env.run(t, "create", "--company", "Acme", "--position", "Backend Engineer")
	require.NoError(t, err)
	return env
}

func TestNoteCommands(t *testing.T) {
	env := withApplication(t)

	out, err := env.run(t, "note", "list", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Application 2 has no notes")

	out, err = env.run(t, "note", "add", "2", "  Recruiter", "call  ")
	require.NoError(t, err)
	assert.Contains(t, out, "Added note 3 to application 2")

	out, err = env.run(t, "note", "show", "2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Recruiter call")

	out, err = env.run(t, "note", "edit", "2", "3", "Recruiter", "call", "moved", "to", "Friday")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated note 3")

	_, err = env.run(t, "note", "add", "2", "Sent portfolio")
	require.NoError(t, err)

	out, err = env.run(t, "note", "ls", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 note(s) for application 2")
	assert.Contains(t, out, "Recruiter call moved to Friday")
	assert.Contains(t, out, "Sent portfolio")

	out, err = env.run(t, "note", "rm", "2", "3", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted note 3")
	assert.Equal(t, 1, env.fake.NoteCount(2))
}

func TestNoteAdd_BlankContentSendsNothing(t *testing.T) {
	env := withApplication(t)

	_, err := env.run(t, "note", "add", "2", "   ", " ")
	var verr *internal.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "content")
	assert.Equal(t, 0, env.fake.Calls(http.MethodPost, "/applications/2/notes"))
}

func TestNoteCommands_NotFound(t *testing.T) {
	env := withApplication(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "list unknown application", args: []string{"note", "list", "99"}},
		{name: "add to unknown application", args: []string{"note", "add", "99", "hello"}},
		{name: "edit unknown note", args: []string{"note", "edit", "2", "99", "text"}},
		{name: "delete unknown note", args: []string{"note", "delete", "2", "99", "-y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			var apiErr *internal.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		})
	}
}

func TestNoteCommands_ShowUnknownNote(t *testing.T) {
	env := withApplication(t)

	_, err := env.run(t, "note", "add", "2", "Recruiter call")
	require.NoError(t, err)

	before := env.fake.Calls(http.MethodGet, "/applications/2/notes")
	_, err = env.run(t, "note", "show", "2", "99")
	require.ErrorIs(t, err, internal.ErrNoteNotFound)
	assert.Equal(t, before+1, env.fake.Calls(http.MethodGet, "/applications/2/notes"), "served from the note list")
	assert.Equal(t, 0, env.fake.Calls(http.MethodGet, "/applications/2/notes/99"))
}

func TestNoteCommands_BadArguments(t *testing.T) {
	env := withApplication(t)

	tests := [][]string{
		{"note", "add", "2"},
		{"note", "show", "2"},
		{"note", "show", "x", "1"},
		{"note", "edit", "2", "y", "text"},
	}
	for _, args := range tests {
		_, err := env.run(t, args...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestNoteDelete_Confirmation(t *testing.T) {
	env := withApplication(t)
	_, err := env.run(t, "note", "add", "2", "keep me")
	require.NoError(t, err)

	out, err := env.runWithInput(t, "\n", "note", "delete", "2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")
	assert.Equal(t, 1, env.fake.NoteCount(2))
}
