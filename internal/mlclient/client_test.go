package mlclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pcoscare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screening(t *testing.T) *models.ScreeningInput {
	t.Helper()
	var in models.ScreeningInput
	for _, f := range models.ScreeningFeatures {
		f.Set(&in, 1)
	}
	return &in
}

func TestPredict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointPredict, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Len(t, got, len(models.ScreeningFeatures))
		assert.Contains(t, got, " Age (yrs)", "wire keys keep their whitespace")

		_, _ = io.WriteString(w, `{"prediction":1,"probabilities":{"no_pcos":0.2,"pcos":0.8},"top_features":[["BMI",0.3],["Cycle(R/I)",-0.5]]}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL+"/", time.Second).Predict(context.Background(), screening(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Prediction)
	assert.Equal(t, 0.8, res.Probabilities.PCOS)
	require.Len(t, res.TopFeatures, 2)
	assert.Equal(t, "Cycle(R/I)", res.TopFeatures[1].Feature)
}

func TestPredict_UpstreamErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Missing feature: BMI"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Predict(context.Background(), screening(t))
	require.Error(t, err)

	var mlErr *Error
	require.True(t, errors.As(err, &mlErr))
	assert.Equal(t, http.StatusBadRequest, mlErr.StatusCode)
	assert.Equal(t, map[string]any{"error": "Missing feature: BMI"}, mlErr.Body)
}

func TestPredict_RejectsOutOfRangePrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"prediction":3,"probabilities":{"no_pcos":0,"pcos":1},"top_features":[]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Predict(context.Background(), screening(t))
	assert.Error(t, err)
}

func TestPredict_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := New(srv.URL, 50*time.Millisecond).Predict(context.Background(), screening(t))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var mlErr *Error
	require.True(t, errors.As(err, &mlErr))
	assert.Zero(t, mlErr.StatusCode)
	assert.NotEmpty(t, mlErr.Body)
}

func TestGenerateReport(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointReport, r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []any{[]any{"BMI", 0.3}}, req["top_features"])
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).GenerateReport(context.Background(), ReportRequest{
		Prediction:    1,
		Probabilities: models.Probabilities{NoPCOS: 0.3, PCOS: 0.7},
		TopFeatures:   models.FeaturePairs{{Feature: "BMI", Impact: 0.3}},
	})
	require.NoError(t, err)
	assert.Equal(t, pdf, out)
}

func TestGenerateReport_OversizedBodyIsError(t *testing.T) {
	pdf := []byte("%PDF-1.4 0123456789abcdef")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.reportLimit = int64(len(pdf)) - 1
	out, err := c.GenerateReport(context.Background(), ReportRequest{})
	assert.Nil(t, out)
	var mlErr *Error
	require.True(t, errors.As(err, &mlErr))
	assert.ErrorIs(t, err, errResponseTooLarge)
	assert.Contains(t, mlErr.Body, "exceeds")

	c.reportLimit = int64(len(pdf))
	out, err = c.GenerateReport(context.Background(), ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, pdf, out)
}

func TestGenerateReport_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "renderer crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).GenerateReport(context.Background(), ReportRequest{})
	var mlErr *Error
	require.True(t, errors.As(err, &mlErr))
	assert.Equal(t, "renderer crashed", mlErr.Body)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointHealth {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL, time.Second).Health(context.Background()))
	assert.Error(t, New(srv.URL+"/nope", time.Second).Health(context.Background()))
}
