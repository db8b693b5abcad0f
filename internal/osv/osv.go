// Package osv looks up known vulnerabilities of pinned packages in the OSV
// database (https://osv.dev).
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultURL is the public OSV API.
	DefaultURL = "https://api.osv.dev"

	// EcosystemPyPI is the OSV ecosystem of Python packages.
	EcosystemPyPI = "PyPI"

	// maxResponseBytes bounds how much of an API response is read.
	maxResponseBytes = 32 << 20
)

type (
	// Package is a pinned dependency.
	Package struct {
		Name      string `json:"name"`
		Version   string `json:"version"`
		Ecosystem string `json:"ecosystem"`
	}

	// Vulnerability is an OSV advisory.
	Vulnerability struct {
		ID      string   `json:"id"`
		Summary string   `json:"summary,omitempty"`
		Aliases []string `json:"aliases,omitempty"`
	}

	// Finding lists the advisories affecting one package.
	Finding struct {
		Package         Package         `json:"package"`
		Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	}
)

type (
	batchRequest struct {
		Queries []query `json:"queries"`
	}

	query struct {
		Package queryPackage `json:"package"`
		Version string       `json:"version"`
	}

	queryPackage struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	}

	batchResponse struct {
		Results []struct {
			Vulns []Vulnerability `json:"vulns"`
		} `json:"results"`
	}
)

// Client queries the OSV API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a Client for baseURL (DefaultURL when empty). A nil
// httpClient gets a retrying client.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("osv")
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 3
		rc.RetryWaitMax = 5 * time.Second
		rc.Logger = leveledLogger{logger}
		httpClient = rc.StandardClient()
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// QueryBatch returns a Finding for every package with at least one known
// vulnerability, in input order. Advisory summaries are fetched per
// distinct advisory.
func (c *Client) QueryBatch(ctx context.Context, pkgs []Package) ([]Finding, error) {
	if len(pkgs) == 0 {
		return nil, nil
	}

	req := batchRequest{Queries: make([]query, len(pkgs))}
	for i, p := range pkgs {
		req.Queries[i] = query{
			Package: queryPackage{Name: p.Name, Ecosystem: p.Ecosystem},
			Version: p.Version,
		}
	}

	var resp batchResponse
	if err := c.do(ctx, http.MethodPost, "/v1/querybatch", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(pkgs) {
		return nil, fmt.Errorf("osv returned %d results for %d queries", len(resp.Results), len(pkgs))
	}

	details := make(map[string]Vulnerability)
	var findings []Finding
	for i, result := range resp.Results {
		if len(result.Vulns) == 0 {
			continue
		}
		finding := Finding{Package: pkgs[i]}
		for _, v := range result.Vulns {
			detail, ok := details[v.ID]
			if !ok {
				var err error
				detail, err = c.Vulnerability(ctx, v.ID)
				if err != nil {
					c.logger.Warn("failed to fetch advisory", "id", v.ID, "err", err)
					detail = Vulnerability{ID: v.ID}
				}
				details[v.ID] = detail
			}
			finding.Vulnerabilities = append(finding.Vulnerabilities, detail)
		}
		findings = append(findings, finding)
	}

	c.logger.Debug("queried packages", "count", len(pkgs), "vulnerable", len(findings))
	return findings, nil
}

// Vulnerability fetches a single advisory by ID.
func (c *Client) Vulnerability(ctx context.Context, id string) (Vulnerability, error) {
	var v Vulnerability
	if err := c.do(ctx, http.MethodGet, "/v1/vulns/"+url.PathEscape(id), nil, &v); err != nil {
		return Vulnerability{}, err
	}
	return v, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("osv request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("osv request %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode osv response: %w", err)
	}
	return nil
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *log.Logger
}

func (l leveledLogger) Error(msg string, keyvals ...any) { l.l.Error(msg, keyvals...) }
func (l leveledLogger) Info(msg string, keyvals ...any)  { l.l.Debug(msg, keyvals...) }
func (l leveledLogger) Debug(msg string, keyvals ...any) { l.l.Debug(msg, keyvals...) }
func (l leveledLogger) Warn(msg string, keyvals ...any)  { l.l.Warn(msg, keyvals...) }
