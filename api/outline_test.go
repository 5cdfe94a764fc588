package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogoseo/bogoseo/internal/log"
	outlinepkg "github.com/bogoseo/bogoseo/internal/outline"
)

type stubSynthesizer struct {
	result *outlinepkg.Result
	err    error
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string) (*outlinepkg.Result, error) {
	return s.result, s.err
}

func newOutlineMux(s Synthesizer) *http.ServeMux {
	mux := http.NewServeMux()
	NewOutlineHandler(s, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestOutlineHandler(t *testing.T) {
	result := &outlinepkg.Result{
		Template: "제 1장 서론\n  1.1. 연구의 배경 및 필요성",
		Outline: outlinepkg.Outline{
			Title: "국가 온실가스 배출 현황 보고서",
			Chapters: []outlinepkg.Chapter{
				{Heading: "제 1장 서론", Sections: []outlinepkg.Section{
					{Heading: "1.1. 연구의 배경 및 필요성"},
				}},
			},
		},
	}

	mux := newOutlineMux(&stubSynthesizer{result: result})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/outline",
		strings.NewReader(`{"topic": "온실가스 배출 현황"}`))
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp OutlineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, result.Template, resp.Template)
	assert.Equal(t, result.Outline.Title, resp.Outline.Title)
	require.Len(t, resp.Outline.Chapters, 1)
}

func TestOutlineHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body",
			body:       `{"topic": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "empty topic",
			body:       `{"topic": ""}`,
			err:        outlinepkg.ErrEmptyTopic,
			wantStatus: http.StatusBadRequest,
			wantCode:   "EMPTY_TOPIC",
		},
		{
			name:       "malformed outline from model",
			body:       `{"topic": "주제"}`,
			err:        outlinepkg.ErrMalformedOutline,
			wantStatus: http.StatusBadGateway,
			wantCode:   "MALFORMED_OUTLINE",
		},
		{
			name:       "upstream unavailable",
			body:       `{"topic": "주제"}`,
			err:        outlinepkg.ErrUpstreamUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:       "unknown failure",
			body:       `{"topic": "주제"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newOutlineMux(&stubSynthesizer{err: tt.err})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/outline", strings.NewReader(tt.body))
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}
