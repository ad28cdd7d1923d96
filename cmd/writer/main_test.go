package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_Healthz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("closed") }

	tests := []struct {
		name    string
		queueUp bool
		ping    func(context.Context) error
		want    int
	}{
		{"healthy", true, ok, http.StatusOK},
		{"queue down", false, ok, http.StatusServiceUnavailable},
		{"store down", true, down, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(func() bool { return tt.queueUp }, tt.ping)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	resultsWritten.Add(3)

	r := newRouter(func() bool { return true }, func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rally_results_written_total")
}
