package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

const (
	defaultBaseURL = "https://app.asana.com/api/1.0"
	maxAttempts    = 3
	pageSize       = 100
)

// Client talks to the Asana REST API. It retries rate limits (429,
// honoring Retry-After) and transient server errors with exponential
// backoff; callers see eventual success or a terminal error.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Ensure Client satisfies both remote capabilities
var (
	_ ports.TaskService      = (*Client)(nil)
	_ ports.ProjectDirectory = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// taskPayload matches the task fields requested via opt_fields.
type taskPayload struct {
	GID       string    `json:"gid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Parent    *struct {
		GID string `json:"gid"`
	} `json:"parent"`
	NumSubtasks int `json:"num_subtasks"`
}

func (t taskPayload) toDomain() domain.Task {
	task := domain.Task{
		GID:         t.GID,
		Name:        t.Name,
		NumSubtasks: t.NumSubtasks,
		CreatedAt:   t.CreatedAt,
	}
	if t.Parent != nil {
		task.ParentGID = t.Parent.GID
	}
	return task
}

const taskOptFields = "gid,name,created_at,parent,num_subtasks"

// ListProjectTasks returns all tasks in a project, ascending by
// creation time.
func (c *Client) ListProjectTasks(ctx context.Context, projectGID string) ([]domain.Task, error) {
	return c.listTasks(ctx, "/projects/"+projectGID+"/tasks")
}

// ListSubtasks returns the direct subtasks of a task, ascending by
// creation time.
func (c *Client) ListSubtasks(ctx context.Context, taskGID string) ([]domain.Task, error) {
	return c.listTasks(ctx, "/tasks/"+taskGID+"/subtasks")
}

func (c *Client) listTasks(ctx context.Context, path string) ([]domain.Task, error) {
	var tasks []domain.Task
	query := url.Values{"opt_fields": {taskOptFields}}
	err := c.listPages(ctx, path, query, func(data json.RawMessage) error {
		var payload []taskPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse tasks: %w", err)
		}
		for _, t := range payload {
			tasks = append(tasks, t.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// The API does not guarantee ordering; sibling order must be
	// deterministic for numbering.
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// RenameTask sets a task's name. The API treats repeating the same
// rename as a no-op, so retries are safe.
func (c *Client) RenameTask(ctx context.Context, taskGID, newName string) error {
	body := map[string]string{"name": newName}
	_, err := c.request(ctx, http.MethodPut, "/tasks/"+taskGID, nil, body)
	return err
}

// ListWorkspaces returns the workspaces visible to the token.
func (c *Client) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var out []domain.Workspace
	err := c.listPages(ctx, "/workspaces", nil, func(data json.RawMessage) error {
		var payload []struct {
			GID  string `json:"gid"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse workspaces: %w", err)
		}
		for _, w := range payload {
			out = append(out, domain.Workspace{GID: w.GID, Name: w.Name})
		}
		return nil
	})
	return out, err
}

// ListProjects returns the active (non-archived) projects in a workspace.
func (c *Client) ListProjects(ctx context.Context, workspaceGID string) ([]domain.Project, error) {
	var out []domain.Project
	query := url.Values{"opt_fields": {"gid,name,archived"}}
	err := c.listPages(ctx, "/workspaces/"+workspaceGID+"/projects", query, func(data json.RawMessage) error {
		var payload []struct {
			GID      string `json:"gid"`
			Name     string `json:"name"`
			Archived bool   `json:"archived"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse projects: %w", err)
		}
		for _, p := range payload {
			if p.Archived {
				continue
			}
			out = append(out, domain.Project{GID: p.GID, Name: p.Name})
		}
		return nil
	})
	return out, err
}

// listPages walks an offset-paginated collection, calling visit with
// each page's data array.
func (c *Client) listPages(ctx context.Context, path string, query url.Values, visit func(json.RawMessage) error) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageSize))
	for {
		env, err := c.request(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return err
		}
		if err := visit(env.Data); err != nil {
			return err
		}
		if env.NextPage == nil || env.NextPage.Offset == "" {
			return nil
		}
		query.Set("offset", env.NextPage.Offset)
	}
}

// envelope is the {"data": ...} wrapper Asana puts around responses
// and expects around request bodies.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
}

// request performs one API call with retries and returns the response
// envelope.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	var reqBody []byte
	if body != nil {
		wrapped := map[string]any{"data": body}
		var err error
		reqBody, err = json.Marshal(wrapped)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if waitErr := c.backoff(ctx, attempt, err); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := retryAfterSeconds(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (429)")
			if attempt == maxAttempts-1 {
				continue // no retry budget left, don't wait for nothing
			}
			c.logger.Warn("rate limited, waiting", "retry_after", retryAfter)
			if err := sleep(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= 500:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			lastErr = fmt.Errorf("asana API returned %d: %s", resp.StatusCode, snippet)
			if waitErr := c.backoff(ctx, attempt, lastErr); waitErr != nil {
				return nil, waitErr
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("asana API returned %d: %s", resp.StatusCode, snippet)
		}

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("parse response envelope: %w", err)
		}
		return &env, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

// backoff waits 1s, 2s, ... between attempts; the final attempt fails
// without waiting.
func (c *Client) backoff(ctx context.Context, attempt int, cause error) error {
	if attempt == maxAttempts-1 {
		return nil
	}
	wait := time.Duration(1<<attempt) * time.Second
	c.logger.Warn("request failed, retrying", "attempt", attempt+1, "backoff", wait, "error", cause)
	return sleep(ctx, wait)
}

func retryAfterSeconds(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Minute
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
