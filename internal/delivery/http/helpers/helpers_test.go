package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string   `json:"name" validate:"required,max=5"`
	Kind  string   `json:"kind" validate:"omitempty,oneof=a b"`
	Count *int     `json:"count" validate:"omitempty,gte=1"`
	Items []string `json:"items" validate:"max=2"`
	extra []string
}

func (s *sampleRequest) Validate() []string {
	return s.extra
}

func decode(t *testing.T, body string, dest any) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	return rr, DecodeAndValidate(rr, req, dest)
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrCodeBadRequest, envelope.Error.Code)
	return envelope.Error.Message
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		extra   []string
		wantOK  bool
		wantMsg string
	}{
		{name: "valid", body: `{"name":"abc","kind":"a","count":2,"items":["x"]}`, wantOK: true},
		{name: "required", body: `{}`, wantMsg: "name is required"},
		{name: "too long", body: `{"name":"abcdef"}`, wantMsg: "name must be at most 5 characters"},
		{name: "oneof", body: `{"name":"a","kind":"c"}`, wantMsg: "kind must be one of: a b"},
		{name: "gte", body: `{"name":"a","count":0}`, wantMsg: "count must be at least 1"},
		{name: "slice max", body: `{"name":"a","items":["1","2","3"]}`, wantMsg: "items must have at most 2 items"},
		{name: "sorted and joined", body: `{"name":"abcdef","count":0}`, wantMsg: "count must be at least 1; name must be at most 5 characters"},
		{name: "custom validator", body: `{"name":"a"}`, extra: []string{"name is reserved"}, wantMsg: "name is reserved"},
		{name: "unknown field", body: `{"name":"a","other":1}`},
		{name: "malformed", body: `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := &sampleRequest{extra: tt.extra}
			rr, ok := decode(t, tt.body, dest)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "abc", dest.Name)
				return
			}
			require.Equal(t, http.StatusBadRequest, rr.Code)
			msg := errorMessage(t, rr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, msg)
			} else {
				assert.True(t, strings.HasPrefix(msg, "invalid request body"), msg)
			}
		})
	}
}

func TestWriteJSONSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONSuccess(rr, http.StatusCreated, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"status":"ok"},"error":null}`, rr.Body.String())
}

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "validation", err: fmt.Errorf("%w: title is required", domain.ErrInvalidInput), wantStatus: http.StatusBadRequest, wantCode: ErrCodeBadRequest, wantMsg: "title is required"},
		{
			name:       "too many tags",
			err:        fmt.Errorf("%w: %w: an event can have at most 5 tags", domain.ErrInvalidInput, domain.ErrTooManyTags),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
			wantMsg:    "an event can have at most 5 tags",
		},
		{name: "forbidden", err: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: ErrCodeForbidden},
		{name: "not found", err: fmt.Errorf("get event: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound},
		{name: "unknown user", err: fmt.Errorf("create event: %w", domain.ErrUserNotFound), wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound, wantMsg: "user not found"},
		{name: "already participating", err: domain.ErrAlreadyParticipating, wantStatus: http.StatusConflict, wantCode: ErrCodeAlreadyParticipating},
		{name: "full", err: domain.ErrEventFull, wantStatus: http.StatusConflict, wantCode: ErrCodeEventFull},
		{name: "not participating", err: domain.ErrNotParticipating, wantStatus: http.StatusConflict, wantCode: ErrCodeNotParticipating},
		{name: "unexpected", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternalError, wantMsg: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			WriteServiceError(rr, req, logger, tt.err)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Nil(t, envelope.Data)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, envelope.Error.Message)
			}
		})
	}
}

func TestParsePaginationAndTags(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/events?page=3&page_size=x&tags=Tech,,%20design&tags=go", nil)

	assert.Equal(t, domain.PaginationParams{Page: 3, PageSize: 0}, ParsePagination(req))
	assert.Equal(t, []string{"Tech", "design", "go"}, ParseTags(req))

	assert.Nil(t, ParseTags(httptest.NewRequest(http.MethodGet, "/api/events", nil)))
}
