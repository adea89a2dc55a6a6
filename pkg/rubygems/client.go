package rubygems

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/cookgems/pkg/buildinfo"
	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/httputil"
)

const httpTimeout = 10 * time.Second

// GemInfo is the registry's view of the latest release of a gem.
type GemInfo struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Summary       string   `json:"summary,omitempty"`
	License       string   `json:"license,omitempty"`
	HomepageURI   string   `json:"homepage_uri,omitempty"`
	SourceCodeURI string   `json:"source_code_uri,omitempty"`
	Downloads     int      `json:"downloads"`
	Dependencies  []string `json:"dependencies,omitempty"`
}

// Client talks to the RubyGems JSON API. It is safe for concurrent use as
// long as its cache is not shared with other writers.
type Client struct {
	http    *http.Client
	cache   *httputil.Cache
	backoff httputil.Backoff
	baseURL string
}

// NewClient creates a client for the registry at source (for example
// https://rubygems.org). A nil cache disables caching.
func NewClient(source string, cache *httputil.Cache) *Client {
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   cache.Namespace("rubygems:" + source + ":"),
		backoff: httputil.DefaultBackoff,
		baseURL: strings.TrimSuffix(source, "/") + "/api/v1",
	}
}

// WithBackoff sets the retry policy for transient registry failures.
func (c *Client) WithBackoff(b httputil.Backoff) *Client {
	c.backoff = b
	return c
}

// FetchGem returns metadata for the latest release of name. With refresh
// set the cache is bypassed.
func (c *Client) FetchGem(ctx context.Context, name string, refresh bool) (*GemInfo, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateGemName(name); err != nil {
		return nil, err
	}

	var info GemInfo
	if !refresh {
		if ok, _ := c.cache.Get(name, &info); ok {
			return &info, nil
		}
	}
	err := c.backoff.Do(ctx, func() error {
		return c.fetch(ctx, name, &info)
	})
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(name, &info)
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, name string, info *GemInfo) error {
	u := fmt.Sprintf("%s/gems/%s.json", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cookgems/"+buildinfo.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch gem %s", name))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "gem %s not found", name)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "fetch gem %s: status %d", name, resp.StatusCode))
	default:
		return errors.New(errors.ErrCodeNetwork, "fetch gem %s: status %d", name, resp.StatusCode)
	}

	var data gemResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&data); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode gem %s", name)
	}
	*info = GemInfo{
		Name:          data.Name,
		Version:       data.Version,
		Summary:       data.Info,
		License:       strings.Join(data.Licenses, ", "),
		HomepageURI:   data.HomepageURI,
		SourceCodeURI: data.SourceCodeURI,
		Downloads:     data.Downloads,
		Dependencies:  runtimeDeps(data.Dependencies.Runtime),
	}
	return nil
}

func runtimeDeps(deps []dependency) []string {
	seen := make(map[string]bool)
	var result []string
	for _, d := range deps {
		name := strings.TrimSpace(d.Name)
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

type gemResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Info          string   `json:"info"`
	Licenses      []string `json:"licenses"`
	SourceCodeURI string   `json:"source_code_uri"`
	HomepageURI   string   `json:"homepage_uri"`
	Downloads     int      `json:"downloads"`
	Dependencies  struct {
		Runtime []dependency `json:"runtime"`
	} `json:"dependencies"`
}

type dependency struct {
	Name string `json:"name"`
}

// Status is the result of checking one requirement against the registry.
type Status struct {
	Requirement cookbook.GemRequirement
	Latest      string // Latest published version ("" when lookup failed)
	Satisfied   bool   // Whether Latest meets the requirement's constraints
	Err         error  // Lookup or constraint error
}

// Check looks up every requirement in order. Per-gem failures are reported
// in Status.Err; Check itself only fails when ctx is done.
func (c *Client) Check(ctx context.Context, reqs []cookbook.GemRequirement, refresh bool) ([]Status, error) {
	out := make([]Status, 0, len(reqs))
	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s := Status{Requirement: r}
		info, err := c.FetchGem(ctx, r.Name, refresh)
		if err != nil {
			s.Err = err
			out = append(out, s)
			continue
		}
		s.Latest = info.Version
		s.Satisfied, s.Err = Satisfies(r.Constraints, info.Version)
		out = append(out, s)
	}
	return out, nil
}
