package gist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/interfaces"
	"github.com/bonjohen/gistqueue/internal/models"
)

// Client implements interfaces.DocumentStore over the GitHub Gist API.
// It owns transport-level concerns: authentication, request pacing, and
// retry on rate-limit or server errors. Conflict detection between
// concurrent queue writers is not handled here.
type Client struct {
	gh         *github.Client
	logger     arbor.ILogger
	retryCount int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewClient creates an authenticated gist client from configuration
func NewClient(config *common.Config, logger arbor.ILogger) (*Client, error) {
	if config.Gist.Token == "" {
		return nil, fmt.Errorf("gist token is required: set GIST_TOKEN or gist.token in config")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Gist.Token})
	tc := oauth2.NewClient(context.Background(), ts)

	var limiter *rate.Limiter
	if config.API.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(config.API.RateLimit), 1)
	}

	return &Client{
		gh:         github.NewClient(tc),
		logger:     logger,
		retryCount: config.API.RetryCount,
		retryDelay: config.API.RetryDelay,
		limiter:    limiter,
	}, nil
}

// TestConnection verifies the token works by fetching the authenticated user
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return fmt.Errorf("gist connection test failed: %w", err)
	}
	return nil
}

// GetDocument fetches a gist by ID. Returns (nil, nil) when the gist
// does not exist.
func (c *Client) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc *models.Document
	err := c.withRetry(ctx, "get document", func() error {
		gist, _, err := c.gh.Gists.Get(ctx, id)
		if err != nil {
			return err
		}
		doc = toDocument(gist)
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// FindByDescription returns the first gist whose description matches exactly,
// or (nil, nil) when none does.
func (c *Client) FindByDescription(ctx context.Context, description string) (*models.Document, error) {
	docs, err := c.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.Description == description {
			return doc, nil
		}
	}
	return nil, nil
}

// ListDocuments returns all gists of the authenticated user. File contents
// are not populated on list responses; use GetDocument or ReadFileContent
// for content.
func (c *Client) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	var all []*models.Document

	opts := &github.GistListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		var gists []*github.Gist
		var resp *github.Response
		err := c.withRetry(ctx, "list documents", func() error {
			var err error
			gists, resp, err = c.gh.Gists.List(ctx, "", opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, g := range gists {
			all = append(all, toDocument(g))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateDocument creates a gist with a single file
func (c *Client) CreateDocument(ctx context.Context, description, filename, content string, public bool) (*models.Document, error) {
	var doc *models.Document
	err := c.withRetry(ctx, "create document", func() error {
		gist, _, err := c.gh.Gists.Create(ctx, &github.Gist{
			Description: github.String(description),
			Public:      github.Bool(public),
			Files: map[github.GistFilename]github.GistFile{
				github.GistFilename(filename): {Content: github.String(content)},
			},
		})
		if err != nil {
			return err
		}
		doc = toDocument(gist)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument replaces the content of one file in a gist. The gist API
// accepts the write unconditionally; callers needing lost-update detection
// must verify afterwards.
func (c *Client) UpdateDocument(ctx context.Context, id, filename, content string) (*models.Document, error) {
	var doc *models.Document
	err := c.withRetry(ctx, "update document", func() error {
		gist, _, err := c.gh.Gists.Edit(ctx, id, &github.Gist{
			Files: map[github.GistFilename]github.GistFile{
				github.GistFilename(filename): {Content: github.String(content)},
			},
		})
		if err != nil {
			return err
		}
		doc = toDocument(gist)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFileContent fetches the current content of one file in a gist,
// always via a fresh API read
func (c *Client) ReadFileContent(ctx context.Context, id, filename string) (string, error) {
	doc, err := c.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", models.ErrQueueNotFound
	}
	file, ok := doc.Files[filename]
	if !ok {
		return "", models.ErrQueueNotFound
	}
	return file.Content, nil
}

// withRetry executes an API call with bounded retry on retryable failures.
// Non-retryable API errors (404, 422, auth) surface immediately.
func (c *Client) withRetry(ctx context.Context, op string, call func() error) error {
	var lastErr error

	for attempt := 0; attempt < c.retryCount; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return &StorageError{Op: op, Retryable: false, Err: err}
			}
		}

		err := call()
		if err == nil {
			return nil
		}
		if !classifyRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == c.retryCount-1 {
			break
		}

		delay := c.retryDelay << attempt
		c.logger.Warn().
			Str("operation", op).
			Int("attempt", attempt+1).
			Err(err).
			Msg("Transient gist API failure, retrying")

		select {
		case <-ctx.Done():
			return &StorageError{Op: op, Retryable: false, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	return &StorageError{Op: op, Retryable: true, Err: lastErr}
}

// toDocument converts a go-github gist into the storage-neutral model
func toDocument(g *github.Gist) *models.Document {
	if g == nil {
		return nil
	}
	doc := &models.Document{
		ID:          g.GetID(),
		Description: g.GetDescription(),
		URL:         g.GetHTMLURL(),
		CreatedAt:   g.GetCreatedAt().Time,
		UpdatedAt:   g.GetUpdatedAt().Time,
		Files:       make(map[string]models.DocumentFile, len(g.Files)),
	}
	for name, f := range g.Files {
		doc.Files[string(name)] = models.DocumentFile{
			Content: f.GetContent(),
			Size:    f.GetSize(),
		}
	}
	return doc
}

// isNotFound reports whether err is a 404 from the gist API
func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

var _ interfaces.DocumentStore = (*Client)(nil)
