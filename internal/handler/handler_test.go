package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginreg/internal/model"
	"loginreg/internal/service"
)

type stubAccounts struct {
	result   service.Result
	err      error
	lastForm service.Form
}

func (s *stubAccounts) Register(_ context.Context, form service.Form) (service.Result, error) {
	s.lastForm = form
	return s.result, s.err
}

func (s *stubAccounts) Login(_ context.Context, form service.Form) (service.Result, error) {
	s.lastForm = form
	return s.result, s.err
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func newTestRouter(accounts Accounts, db Pinger) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(New(accounts, db, log))
}

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func jane() *model.User {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.User{
		ID:           42,
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$secret",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func TestRegister_Created(t *testing.T) {
	accounts := &stubAccounts{result: service.Result{Success: true, User: jane()}}
	router := newTestRouter(accounts, stubPinger{})

	rec := postForm(t, router, "/register", url.Values{
		"first_name":            {"Jane"},
		"last_name":             {"Doe"},
		"email":                 {"jane@example.com"},
		"password":              {"longenough1"},
		"password_confirmation": {"longenough1"},
		"ignored":               {"x"},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, service.Form{
		"first_name":            "Jane",
		"last_name":             "Doe",
		"email":                 "jane@example.com",
		"password":              "longenough1",
		"password_confirmation": "longenough1",
	}, accounts.lastForm)

	body := decodeResult(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Jane", user["first_name"])
	assert.Equal(t, "jane@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestRegister_ValidationErrors(t *testing.T) {
	accounts := &stubAccounts{result: service.Result{Errors: []string{service.MsgInvalidEmail}}}
	router := newTestRouter(accounts, stubPinger{})

	rec := postForm(t, router, "/register", url.Values{"email": {"foo@bar"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeResult(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{service.MsgInvalidEmail}, body["errors"])
	assert.NotContains(t, body, "user")
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		result     service.Result
		err        error
		wantStatus int
	}{
		{"success", service.Result{Success: true, User: jane()}, nil, http.StatusOK},
		{"bad credentials", service.Result{Errors: []string{service.MsgBadCredentials}}, nil, http.StatusUnauthorized},
		{"storage failure", service.Result{}, errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &stubAccounts{result: tt.result, err: tt.err}
			router := newTestRouter(accounts, stubPinger{})

			rec := postForm(t, router, "/login", url.Values{"email": {"jane@example.com"}, "password": {"pw"}})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, service.Form{"email": "jane@example.com", "password": "pw"}, accounts.lastForm)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubAccounts{}, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(&stubAccounts{}, stubPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouting(t *testing.T) {
	router := newTestRouter(&stubAccounts{}, stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/register", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
