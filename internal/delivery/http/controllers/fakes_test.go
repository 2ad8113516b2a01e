package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testEventID = "5f0c7a1e-3b2d-4c4f-9a51-0d6f8e2b7c11"

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err error

	page    *domain.EventPage
	details *domain.EventDetails
	mine    []*domain.EventSummary
	tags    []*domain.Tag

	lastQuery   domain.PublicEventQuery
	lastCreate  domain.CreateEventInput
	lastUpdate  domain.UpdateEventInput
	lastEventID string
	lastUserID  string
}

func (f *fakeEventService) ListPublicEvents(_ context.Context, query domain.PublicEventQuery) (*domain.EventPage, error) {
	f.lastQuery = query
	return f.page, f.err
}

func (f *fakeEventService) GetEventDetails(_ context.Context, eventID string) (*domain.EventDetails, error) {
	f.lastEventID = eventID
	return f.details, f.err
}

func (f *fakeEventService) ListMyEvents(_ context.Context, userID string) ([]*domain.EventSummary, error) {
	f.lastUserID = userID
	return f.mine, f.err
}

func (f *fakeEventService) CreateEvent(_ context.Context, input domain.CreateEventInput, organizerID string) (*domain.EventDetails, error) {
	f.lastCreate = input
	f.lastUserID = organizerID
	return f.details, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, eventID string, input domain.UpdateEventInput, userID string) (*domain.EventDetails, error) {
	f.lastEventID = eventID
	f.lastUpdate = input
	f.lastUserID = userID
	return f.details, f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, eventID, userID string) error {
	f.lastEventID = eventID
	f.lastUserID = userID
	return f.err
}

func (f *fakeEventService) ListTags(_ context.Context) ([]*domain.Tag, error) {
	return f.tags, f.err
}

// fakeParticipationService implements domain.ParticipationService for handler tests.
type fakeParticipationService struct {
	err         error
	lastEventID string
	lastUserID  string
	calls       int
}

func (f *fakeParticipationService) JoinEvent(_ context.Context, eventID, userID string) error {
	f.calls++
	f.lastEventID, f.lastUserID = eventID, userID
	return f.err
}

func (f *fakeParticipationService) LeaveEvent(_ context.Context, eventID, userID string) error {
	f.calls++
	f.lastEventID, f.lastUserID = eventID, userID
	return f.err
}

// serve routes a single request through a mux so PathValue is populated.
// An empty userID leaves the request unauthenticated.
func serve(pattern string, handler http.HandlerFunc, method, target, body, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}
