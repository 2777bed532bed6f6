// Package github - источник changeset поверх pull requests GitHub.
// Номер changeset совпадает с номером pull request.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
)

var _ domain.ChangesetSource = (*Source)(nil)

// Source реализует domain.ChangesetSource
type Source struct {
	gh    *gh.Client
	owner string
}

// NewSource создаёт клиента со стеком транспорта:
// httpcache (ETag) -> go-github-ratelimit (secondary rate limit) -> go-github.
// owner используется для репозиториев, путь которых не содержит владельца.
func NewSource(token, owner, baseURL string) (*Source, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		if err := setBaseURL(client, baseURL); err != nil {
			return nil, err
		}
	}
	return &Source{gh: client, owner: owner}, nil
}

// NewSourceWithHTTPClient создаёт Source с произвольным http.Client (для тестов)
func NewSourceWithHTTPClient(httpClient *http.Client, owner, baseURL string) (*Source, error) {
	client := gh.NewClient(httpClient)
	if err := setBaseURL(client, baseURL); err != nil {
		return nil, err
	}
	return &Source{gh: client, owner: owner}, nil
}

func setBaseURL(client *gh.Client, baseURL string) error {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parsing github base url: %w", err)
	}
	client.BaseURL = u
	return nil
}

// GetChangeset загружает pull request и переводит его в changeset
func (s *Source) GetChangeset(ctx context.Context, repository *domain.Repository, changeNum int64) (*domain.Changeset, error) {
	requestID := logger.GetRequestID(ctx)
	start := time.Now()

	owner, name, err := s.split(repository)
	if err != nil {
		return nil, err
	}

	pr, _, err := s.gh.PullRequests.Get(ctx, owner, name, int(changeNum))
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			metrics.ChangesetFetchDuration.WithLabelValues("not_found").Observe(time.Since(start).Seconds())
			log.Warn().
				Str("request_id", requestID).
				Str("layer", "changeset").
				Str("repository", owner+"/"+name).
				Int64("changenum", changeNum).
				Msg("pull request not found")
			return nil, domain.ErrChangesetNotFound
		}
		metrics.ChangesetFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Str("layer", "changeset").
			Str("repository", owner+"/"+name).
			Int64("changenum", changeNum).
			Msg("failed to fetch pull request")
		return nil, fmt.Errorf("fetching %s/%s#%d: %w", owner, name, changeNum, err)
	}
	metrics.ChangesetFetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	description, testingDone := splitBody(pr.GetBody())
	changeset := &domain.Changeset{
		ChangeNum:   changeNum,
		Summary:     pr.GetTitle(),
		Description: description,
		TestingDone: testingDone,
		Branch:      pr.GetBase().GetRef(),
		BugsClosed:  closedIssues(pr.GetBody()),
		Pending:     pr.GetState() == "open",
	}

	log.Debug().
		Str("request_id", requestID).
		Str("layer", "changeset").
		Str("repository", owner+"/"+name).
		Int64("changenum", changeNum).
		Bool("pending", changeset.Pending).
		Msg("fetched changeset")

	return changeset, nil
}

// split определяет owner/name. Path вида "owner/name" имеет приоритет.
func (s *Source) split(repository *domain.Repository) (string, string, error) {
	if repository == nil {
		return "", "", domain.InvalidArgument("review request has no repository")
	}
	path := strings.ReplaceAll(strings.TrimSuffix(repository.Path, ".git"), ":", "/")
	path = strings.Trim(path, "/")
	if parts := strings.Split(path, "/"); len(parts) >= 2 {
		return parts[len(parts)-2], parts[len(parts)-1], nil
	}
	if s.owner == "" {
		return "", "", domain.InvalidArgument("repository %q has no owner", repository.Name)
	}
	return s.owner, repository.Name, nil
}

var testingDoneHeader = regexp.MustCompile(`(?im)^#*\s*testing done:?\s*$`)

// splitBody отделяет секцию "Testing Done" от описания
func splitBody(body string) (string, string) {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	loc := testingDoneHeader.FindStringIndex(body)
	if loc == nil {
		return strings.TrimSpace(body), ""
	}
	return strings.TrimSpace(body[:loc[0]]), strings.TrimSpace(body[loc[1]:])
}

var closingKeyword = regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s+#(\d+)`)

// closedIssues возвращает номера issue из ключевых слов закрытия GitHub
func closedIssues(body string) []string {
	matches := closingKeyword.FindAllStringSubmatch(body, -1)
	bugs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		id := strconv.Itoa(n)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		bugs = append(bugs, id)
	}
	return bugs
}
