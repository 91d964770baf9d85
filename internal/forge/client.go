package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dwizi/review-vir/internal/config"
)

const maxPerPage = 100

type Client struct {
	baseURL string
	http    *http.Client
}

type PullRequest struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	URL        string    `json:"html_url"`
	Repository string    `json:"repository"`
	Author     string    `json:"author"`
	Draft      bool      `json:"draft"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type searchIssuesResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []searchIssueItem `json:"items"`
}

type searchIssueItem struct {
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	HTMLURL       string    `json:"html_url"`
	RepositoryURL string    `json:"repository_url"`
	Draft         bool      `json:"draft"`
	UpdatedAt     time.Time `json:"updated_at"`
	User          struct {
		Login string `json:"login"`
	} `json:"user"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

// New builds a GitHub client that authenticates every request with token.
func New(cfg config.Config, token string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("github token is required")
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 30 * time.Second
	}

	baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := oauth2.NewClient(baseCtx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = timeout

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GitHubAPIURL), "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	if timeout < time.Second {
		return c
	}
	clone := *c
	if c.http == nil {
		clone.http = &http.Client{Timeout: timeout}
		return &clone
	}
	httpClone := *c.http
	httpClone.Timeout = timeout
	clone.http = &httpClone
	return &clone
}

// SearchPullRequests runs an issue search restricted to open pull requests,
// for example "review-requested:@me".
func (c *Client) SearchPullRequests(ctx context.Context, query string, limit int) ([]PullRequest, error) {
	if limit < 1 {
		limit = 30
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}
	fullQuery := strings.TrimSpace("is:pr is:open archived:false " + strings.TrimSpace(query))
	values := url.Values{}
	values.Set("q", fullQuery)
	values.Set("sort", "updated")
	values.Set("order", "desc")
	values.Set("per_page", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/issues?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var response searchIssuesResponse
	if err := c.doJSON(req, &response); err != nil {
		return nil, err
	}

	items := make([]PullRequest, 0, len(response.Items))
	for _, item := range response.Items {
		if item.PullRequest == nil {
			continue
		}
		items = append(items, PullRequest{
			Number:     item.Number,
			Title:      strings.TrimSpace(item.Title),
			URL:        item.HTMLURL,
			Repository: repositoryFromURL(item.RepositoryURL),
			Author:     item.User.Login,
			Draft:      item.Draft,
			UpdatedAt:  item.UpdatedAt,
		})
	}
	return items, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var apiError struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiError)
		if strings.TrimSpace(apiError.Message) == "" {
			apiError.Message = res.Status
		}
		return fmt.Errorf("github: %s", apiError.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// repositoryFromURL turns ".../repos/owner/name" into "owner/name".
func repositoryFromURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	index := strings.Index(trimmed, "/repos/")
	if index < 0 {
		return trimmed
	}
	return trimmed[index+len("/repos/"):]
}
