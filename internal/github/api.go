package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/devflow/internal/config"
	"github.com/fyrsmithlabs/devflow/internal/logging"
	"github.com/fyrsmithlabs/devflow/internal/workflow"
	gitutil "github.com/fyrsmithlabs/devflow/pkg/git"
)

var tracer = otel.Tracer("devflow/github")

// RepoSource locates the repository and branch to query.
type RepoSource interface {
	GitHubRepo() (gitutil.GitHubRepo, bool)
	CurrentBranch(ctx context.Context) (string, error)
}

// APIConfig configures an APIProvider.
type APIConfig struct {
	Token     config.Secret
	BaseURL   string
	RateLimit float64
	RateBurst int
	Retry     RetryConfig
	// HTTPClient overrides the transport; the token is ignored when set.
	HTTPClient *http.Client
}

// APIConfigFromSettings maps the github config section.
func APIConfigFromSettings(s config.GitHubConfig) APIConfig {
	retry := DefaultRetryConfig()
	retry.MaxRetries = s.MaxRetries
	return APIConfig{
		Token:     s.Token,
		BaseURL:   s.BaseURL,
		RateLimit: s.RateLimit,
		RateBurst: s.RateBurst,
		Retry:     retry,
	}
}

// APIProvider reads pull requests through the GitHub REST API.
//
// Calls are rate limited client-side and guarded by a circuit breaker so a
// GitHub outage does not stall every status request for the full retry
// schedule.
type APIProvider struct {
	client  *gh.Client
	source  RepoSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
	logger  *logging.Logger
}

var _ Provider = (*APIProvider)(nil)

// NewAPIProvider creates an API-backed provider.
func NewAPIProvider(cfg APIConfig, source RepoSource, logger *logging.Logger) (*APIProvider, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Named("github")

	httpClient := cfg.HTTPClient
	if httpClient == nil && cfg.Token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := client.BaseURL.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.RateBurst, 1)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "github-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing PR or repo is an answer, not an outage.
			return err == nil || errors.Is(err, ErrNoPullRequest) || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	logger.Debug(context.Background(), "github api provider configured",
		zap.String("base_url", client.BaseURL.String()),
		logging.Secret("token", cfg.Token),
		zap.Float64("rate_limit", cfg.RateLimit),
	)

	return &APIProvider{
		client:  client,
		source:  source,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		retry:   cfg.Retry,
		logger:  logger,
	}, nil
}

// call runs op under the rate limiter, retry policy and circuit breaker.
func (p *APIProvider) call(ctx context.Context, op func() (*gh.Response, error)) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return retry(ctx, p.retry, p.logger, func() (*gh.Response, error) {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
			return op()
		})
	})
	return err
}

// Current finds the most recent pull request whose head is the current
// branch, in any state, and rolls up its check runs and commit statuses.
func (p *APIProvider) Current(ctx context.Context) (PullRequest, error) {
	ctx, span := tracer.Start(ctx, "github.current")
	defer span.End()

	repo, ok := p.source.GitHubRepo()
	if !ok {
		return PullRequest{}, fmt.Errorf("%w: origin is not a GitHub remote", ErrNoPullRequest)
	}
	branch, err := p.source.CurrentBranch(ctx)
	if err != nil {
		return PullRequest{}, fmt.Errorf("reading branch: %w", err)
	}
	if branch == "" {
		return PullRequest{}, fmt.Errorf("%w: detached HEAD", ErrNoPullRequest)
	}
	span.SetAttributes(attribute.String("github.repo", repo.String()), attribute.String("git.branch", branch))

	var prs []*gh.PullRequest
	err = p.call(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		prs, resp, err = p.client.PullRequests.List(ctx, repo.Owner, repo.Name, &gh.PullRequestListOptions{
			Head:        repo.Owner + ":" + branch,
			State:       "all",
			ListOptions: gh.ListOptions{PerPage: 1},
		})
		return resp, err
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("listing pull requests: %w", err)
	}
	if len(prs) == 0 {
		return PullRequest{}, ErrNoPullRequest
	}

	pr := prs[0]
	out := PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		URL:     pr.GetHTMLURL(),
		State:   apiState(pr),
		IsDraft: pr.GetDraft(),
		Checks:  workflow.ChecksUnknown,
	}

	if sha := pr.GetHead().GetSHA(); sha != "" {
		checks, err := p.checks(ctx, repo, sha)
		if err != nil {
			p.logger.Warn(ctx, "reading checks failed", zap.Int("pr", out.Number), zap.Error(err))
		} else {
			out.Checks = RollupChecks(checks)
		}
	}
	return out, nil
}

func (p *APIProvider) checks(ctx context.Context, repo gitutil.GitHubRepo, sha string) ([]Check, error) {
	var checks []Check

	var runs *gh.ListCheckRunsResults
	err := p.call(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		runs, resp, err = p.client.Checks.ListCheckRunsForRef(ctx, repo.Owner, repo.Name, sha, &gh.ListCheckRunsOptions{
			ListOptions: gh.ListOptions{PerPage: 100},
		})
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing check runs: %w", err)
	}
	for _, r := range runs.CheckRuns {
		checks = append(checks, Check{
			Status:     strings.ToUpper(r.GetStatus()),
			Conclusion: strings.ToUpper(r.GetConclusion()),
		})
	}

	var combined *gh.CombinedStatus
	err = p.call(ctx, func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		combined, resp, err = p.client.Repositories.GetCombinedStatus(ctx, repo.Owner, repo.Name, sha, &gh.ListOptions{PerPage: 100})
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading commit status: %w", err)
	}
	for _, s := range combined.Statuses {
		checks = append(checks, Check{State: strings.ToUpper(s.GetState())})
	}
	return checks, nil
}

func apiState(pr *gh.PullRequest) workflow.PRState {
	if pr.GetMerged() || !pr.GetMergedAt().IsZero() {
		return workflow.PRStateMerged
	}
	return workflow.ParsePRState(pr.GetState())
}

func isClientError(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusForbidden
	}
	return false
}
