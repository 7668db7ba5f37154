package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/devflow/internal/config"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
	gitutil "github.com/fyrsmithlabs/devflow/pkg/git"
)

type stubSource struct {
	repo   gitutil.GitHubRepo
	ok     bool
	branch string
}

func (s stubSource) GitHubRepo() (gitutil.GitHubRepo, bool)        { return s.repo, s.ok }
func (s stubSource) CurrentBranch(context.Context) (string, error) { return s.branch, nil }

var acme = stubSource{
	repo:   gitutil.GitHubRepo{Owner: "acme", Name: "app"},
	ok:     true,
	branch: "feature/TASK-1-login",
}

func fastRetry(n int) RetryConfig {
	return RetryConfig{
		MaxRetries:        n,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func newTestAPI(t *testing.T, h http.Handler, retries int) *APIProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewAPIProvider(APIConfig{
		BaseURL:    srv.URL,
		RateLimit:  1000,
		RateBurst:  100,
		Retry:      fastRetry(retries),
		HTTPClient: srv.Client(),
	}, acme, nil)
	require.NoError(t, err)
	return p
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAPIProvider_Current(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme:feature/TASK-1-login", r.URL.Query().Get("head"))
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		writeJSON(t, w, []map[string]any{{
			"number":   7,
			"title":    "Login",
			"html_url": "https://github.com/acme/app/pull/7",
			"state":    "open",
			"draft":    true,
			"head":     map[string]any{"sha": "abc123"},
		}})
	})
	mux.HandleFunc("/repos/acme/app/commits/abc123/check-runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"total_count": 2,
			"check_runs": []map[string]any{
				{"status": "completed", "conclusion": "success"},
				{"status": "completed", "conclusion": "failure"},
			},
		})
	})
	mux.HandleFunc("/repos/acme/app/commits/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"state": "success", "statuses": []map[string]any{{"state": "success"}}})
	})

	pr, err := newTestAPI(t, mux, 0).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "Login", pr.Title)
	assert.Equal(t, "https://github.com/acme/app/pull/7", pr.URL)
	assert.Equal(t, workflow.PRStateOpen, pr.State)
	assert.True(t, pr.IsDraft)
	assert.Equal(t, workflow.ChecksFailing, pr.Checks)
}

func TestAPIProvider_Current_Merged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{{
			"number":    8,
			"state":     "closed",
			"merged_at": "2026-01-02T03:04:05Z",
		}})
	})

	pr, err := newTestAPI(t, mux, 0).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workflow.PRStateMerged, pr.State)
	assert.Equal(t, workflow.ChecksUnknown, pr.Checks, "no head sha, no checks")
}

func TestAPIProvider_Current_NoPR(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{})
	})

	_, err := newTestAPI(t, mux, 0).Current(context.Background())
	assert.ErrorIs(t, err, ErrNoPullRequest)
}

func TestAPIProvider_Current_NotGitHub(t *testing.T) {
	p, err := NewAPIProvider(APIConfig{RateLimit: 1}, stubSource{branch: "main"}, nil)
	require.NoError(t, err)

	_, err = p.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoPullRequest)
}

func TestAPIProvider_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, []map[string]any{{"number": 9, "state": "open"}})
	})

	pr, err := newTestAPI(t, mux, 3).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, pr.Number)
	assert.Equal(t, int32(3), hits.Load())
}

func TestAPIProvider_DoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := newTestAPI(t, mux, 3).Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAPIProvider_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/app/pulls", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	p := newTestAPI(t, mux, 0)

	for i := 0; i < 5; i++ {
		_, err := p.Current(context.Background())
		require.Error(t, err)
	}
	_, err := p.Current(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load())
}

func TestNewAPIProvider_InvalidBaseURL(t *testing.T) {
	_, err := NewAPIProvider(APIConfig{BaseURL: "://bad"}, acme, nil)
	require.Error(t, err)
}

func TestAPIConfigFromSettings(t *testing.T) {
	cfg := APIConfigFromSettings(config.GitHubConfig{
		Token:      "ghp_x",
		BaseURL:    "https://ghe.example.com/api/v3",
		RateLimit:  2,
		RateBurst:  4,
		MaxRetries: 1,
	})
	assert.Equal(t, "ghp_x", cfg.Token.Value())
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.Equal(t, 4, cfg.RateBurst)
}
