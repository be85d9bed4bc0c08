package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pmdminer/internal/contract"
)

func newDaemonAnalyzer(serverURL string) *HTTPAnalyzer {
	return NewHTTPAnalyzer(&contract.Config{
		ServerURL:      serverURL,
		RulesetPath:    "/etc/rules.xml",
		AuxClasspath:   []string{"/opt/a.jar", "/opt/b.jar"},
		AnalyzeTimeout: 5 * time.Second,
	})
}

func TestHTTPAnalyzerRequestShape(t *testing.T) {
	var got analyzeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(sampleReport))
	}))
	defer server.Close()

	a := newDaemonAnalyzer(server.URL)
	report, err := a.Analyze(context.Background(), "/work/wt_1", []string{"src/App.java"})
	require.NoError(t, err)

	assert.Equal(t, "/work/wt_1", got.Path)
	assert.Equal(t, "/etc/rules.xml", got.Ruleset)
	assert.Equal(t, "/opt/a.jar:/opt/b.jar", got.AuxClasspath)
	assert.Equal(t, []string{"src/App.java"}, got.Files)
	assert.Len(t, report.Files, 2)
}

func TestHTTPAnalyzerFullScanOmitsFiles(t *testing.T) {
	var got analyzeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(sampleReport))
	}))
	defer server.Close()

	a := newDaemonAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), "/work/wt_1", nil)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
}

func TestHTTPAnalyzerDaemonError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "ruleset not found"}`))
	}))
	defer server.Close()

	a := newDaemonAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), "/work/wt_1", nil)
	assert.ErrorContains(t, err, "ruleset not found")
}

func TestHTTPAnalyzerOpaqueFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	a := newDaemonAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), "/work/wt_1", nil)
	assert.ErrorContains(t, err, "status 502")
}

func TestHTTPAnalyzerUnreachable(t *testing.T) {
	a := newDaemonAnalyzer("http://127.0.0.1:1")
	_, err := a.Analyze(context.Background(), "/work/wt_1", nil)
	assert.ErrorContains(t, err, "unreachable")
}
