package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/structs"
)

// stubAPI answers handler tests without a real core behind it.
type stubAPI struct {
	created *structs.CreateJobResponse
}

func (s *stubAPI) CreateJob(ctx context.Context, req *structs.CreateJobRequest) (*structs.CreateJobResponse, error) {
	return s.created, nil
}
func (s *stubAPI) CancelJob(ctx context.Context, jobID, metadata string) error { return nil }
func (s *stubAPI) StartJob(ctx context.Context, visit *structs.JobVisit) (*structs.Navigation, error) {
	return nil, nil
}
func (s *stubAPI) StartTask(ctx context.Context, visit *structs.TaskVisit) (*structs.StartTaskResponse, *structs.Navigation, error) {
	return nil, nil, nil
}
func (s *stubAPI) SubmitTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error) {
	return nil, nil
}
func (s *stubAPI) RejectTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error) {
	return nil, nil
}
func (s *stubAPI) Close() error { return nil }

func TestCreateJobResponds201(t *testing.T) {
	s := NewServer(":0", "http://portal.test", "", 60, false)
	s.svc = &stubAPI{created: &structs.CreateJobResponse{JobKey: "abc"}}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"workflow_id":"wf-1"}`))
	w := httptest.NewRecorder()
	s.createJob(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := &structs.CreateJobResponse{}
	assert.Nil(t, json.NewDecoder(w.Body).Decode(resp))
	assert.Equal(t, "abc", resp.JobKey)
}

func TestWriteNavCookieLifetimeMatchesToken(t *testing.T) {
	s := NewServer(":0", "http://portal.test", "", 60, false)

	nav := structs.Redirect("http://app.test/run/task-1")
	nav.SetToken = "tok"
	nav.TokenTTL = 2 * time.Hour

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/launchpad/key-1/start", nil)
	s.writeNav(w, r, "key-1", nav)

	assert.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, "key-1", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.Equal(t, 7200, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
}

func TestWriteNavCookieDefaultLifetime(t *testing.T) {
	s := NewServer(":0", "http://portal.test", "", 60, false)

	// a nav minted without a token lifetime falls back to the server-wide
	// session length
	nav := structs.Redirect("/somewhere")
	nav.SetToken = "tok"

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/launchpad/key-1/start", nil)
	s.writeNav(w, r, "key-1", nav)

	cookies := w.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
