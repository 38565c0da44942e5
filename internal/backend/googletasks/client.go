// Package googletasks mirrors a task list into Google Tasks.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskledger/internal/config"
	"taskledger/internal/tasklist"
)

const (
	// PageSize is the number of tasks fetched per API page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"
)

// ErrAuth is returned when the stored token is rejected.
var ErrAuth = errors.New("token expired or revoked (run: taskledger login)")

// ErrAmbiguousList is returned when several remote lists share a title.
var ErrAmbiguousList = errors.New("ambiguous list name")

// Client talks to the Google Tasks API.
type Client struct {
	svc *tasks.Service
}

// Report summarizes a Sync.
type Report struct {
	ListID   string
	Created  bool
	Inserted int
	Patched  int
	Deleted  int
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	// Token source refreshes automatically
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and API
// endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc}, nil
}

// EnsureList returns the id of the list titled title (case-insensitive,
// trimmed), creating it when missing. created reports whether it was created.
func (c *Client) EnsureList(ctx context.Context, title string) (id string, created bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	want := strings.ToLower(strings.TrimSpace(title))
	var matches []string
	err = c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, l := range resp.Items {
			if strings.ToLower(strings.TrimSpace(l.Title)) == want {
				matches = append(matches, l.Id)
			}
		}
		return nil
	})
	if err != nil {
		return "", false, wrapError(err)
	}

	switch len(matches) {
	case 0:
	case 1:
		return matches[0], false, nil
	default:
		return "", false, fmt.Errorf("%w: %s", ErrAmbiguousList, title)
	}

	l, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: strings.TrimSpace(title)}).Context(ctx).Do()
	if err != nil {
		return "", false, wrapError(err)
	}
	return l.Id, true, nil
}

// ListTasks returns every task in the list, completed and hidden included.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]RemoteTask, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []RemoteTask
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, RemoteTask{
					ID:     t.Id,
					Title:  t.Title,
					Notes:  t.Notes,
					Status: t.Status,
				})
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// Apply executes changes against the list in order.
func (c *Client) Apply(ctx context.Context, listID string, changes []Change) error {
	for _, ch := range changes {
		if err := c.apply(ctx, listID, ch); err != nil {
			return fmt.Errorf("%s #%d: %w", ch.Kind, ch.TaskID, err)
		}
	}
	return nil
}

func (c *Client) apply(ctx context.Context, listID string, ch Change) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var err error
	switch ch.Kind {
	case Insert:
		_, err = c.svc.Tasks.Insert(listID, &tasks.Task{
			Title:  ch.Title,
			Notes:  Marker(ch.TaskID),
			Status: ch.Status,
		}).Context(ctx).Do()
	case Patch:
		patch := &tasks.Task{Title: ch.Title, Status: ch.Status}
		if ch.Status == StatusNeedsAction {
			// reopening requires clearing the completion time
			patch.NullFields = []string{"Completed"}
		}
		_, err = c.svc.Tasks.Patch(listID, ch.RemoteID, patch).Context(ctx).Do()
	case Delete:
		err = c.svc.Tasks.Delete(listID, ch.RemoteID).Context(ctx).Do()
	default:
		return fmt.Errorf("unknown change kind %d", ch.Kind)
	}
	return wrapError(err)
}

// Sync mirrors l into the list titled title.
func (c *Client) Sync(ctx context.Context, title string, l tasklist.TaskList) (Report, error) {
	listID, created, err := c.EnsureList(ctx, title)
	if err != nil {
		return Report{}, err
	}
	remote, err := c.ListTasks(ctx, listID)
	if err != nil {
		return Report{}, err
	}

	changes := Plan(l.Tasks, remote)
	if err := c.Apply(ctx, listID, changes); err != nil {
		return Report{}, err
	}

	r := Report{ListID: listID, Created: created}
	for _, ch := range changes {
		switch ch.Kind {
		case Insert:
			r.Inserted++
		case Patch:
			r.Patched++
		case Delete:
			r.Deleted++
		}
	}
	return r, nil
}

// wrapError maps API errors to the errors commands act on.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return ErrAuth
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuth
		case http.StatusNotFound:
			return fmt.Errorf("not found: %w", err)
		}
	}
	return err
}
