// Package mineru is a client for the MinerU batch document parsing API.
// Files are uploaded to presigned URLs, the batch is polled until every
// file is done, and the result archives are reduced to full.md plus the
// image directory.
package mineru

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gemdale/reportkit/internal/retry"
)

const DefaultBaseURL = "https://mineru.net/api/v4"

var (
	ErrNoToken       = errors.New("mineru: token is required (set MINERU_TOKEN)")
	ErrTimeout       = errors.New("mineru: batch not finished before max polls")
	ErrEmptyBatch    = errors.New("mineru: batch has no extract results")
	ErrExtractFailed = errors.New("mineru: extraction failed")
)

// Client talks to the MinerU v4 API.
type Client struct {
	token         string
	baseURL       string
	modelVersion  string
	maxPolls      int
	pollInterval  time.Duration
	downloadDelay time.Duration
	httpClient    *http.Client
	log           *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithModelVersion(v string) Option {
	return func(c *Client) { c.modelVersion = v }
}

// WithPolling sets the number of result polls and the pause between them.
func WithPolling(maxPolls int, interval time.Duration) Option {
	return func(c *Client) {
		if maxPolls > 0 {
			c.maxPolls = maxPolls
		}
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithDownloadDelay sets the base pause between download attempts.
func WithDownloadDelay(d time.Duration) Option {
	return func(c *Client) { c.downloadDelay = d }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		token:         token,
		baseURL:       DefaultBaseURL,
		modelVersion:  "vlm",
		maxPolls:      100,
		pollInterval:  3 * time.Second,
		downloadDelay: 1500 * time.Millisecond,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		log:           slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// FileMeta names one file of a batch.
type FileMeta struct {
	Name   string `json:"name"`
	DataID string `json:"data_id"`
}

type batchRequest struct {
	Files        []FileMeta `json:"files"`
	ModelVersion string     `json:"model_version"`
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type uploadData struct {
	BatchID  string   `json:"batch_id"`
	FileURLs []string `json:"file_urls"`
}

type resultData struct {
	BatchID       string         `json:"batch_id"`
	ExtractResult []ExtractState `json:"extract_result"`
}

// ExtractState is the per-file state of a batch.
type ExtractState struct {
	FileName   string `json:"file_name"`
	DataID     string `json:"data_id"`
	State      string `json:"state"`
	FullZipURL string `json:"full_zip_url"`
	ErrMsg     string `json:"err_msg"`
}

// Upload requests presigned URLs for paths and PUTs each file to its URL
// in order. A failed PUT is logged and the remaining files still go up.
func (c *Client) Upload(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("mineru: no files to upload")
	}
	files := make([]FileMeta, len(paths))
	for i, p := range paths {
		files[i] = FileMeta{Name: filepath.Base(p), DataID: stem(p)}
	}

	var data uploadData
	var err error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		data, err = c.requestUploadURLs(ctx, files)
		if err == nil || !retry.IsRetryable(err) || attempt == retry.MaxRetries {
			break
		}
		wait := retry.Backoff(attempt)
		c.log.Warn("mineru upload url request failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	if err != nil {
		return "", err
	}

	for i, u := range data.FileURLs {
		if i >= len(paths) {
			break
		}
		if err := c.put(ctx, u, paths[i]); err != nil {
			c.log.Error("mineru file upload failed", "file", paths[i], "error", err)
			continue
		}
		c.log.Info("mineru file uploaded", "file", paths[i], "batch_id", data.BatchID)
	}
	return data.BatchID, nil
}

func (c *Client) requestUploadURLs(ctx context.Context, files []FileMeta) (uploadData, error) {
	var data uploadData
	body, err := json.Marshal(batchRequest{Files: files, ModelVersion: c.modelVersion})
	if err != nil {
		return data, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file-urls/batch", bytes.NewReader(body))
	if err != nil {
		return data, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.doJSON(req)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return data, fmt.Errorf("decode upload data: %w", err)
	}
	if data.BatchID == "" {
		return data, fmt.Errorf("mineru: response has no batch_id")
	}
	return data, nil
}

func (c *Client) put(ctx context.Context, url, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = info.Size()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("put status %d", resp.StatusCode)
	}
	return nil
}

// Poll waits until every file of the batch is done and returns the result
// archive URLs in batch order.
func (c *Client) Poll(ctx context.Context, batchID string) ([]string, error) {
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		states, err := c.results(ctx, batchID)
		switch {
		case err == nil:
			if len(states) == 0 {
				return nil, fmt.Errorf("%w (batch %s)", ErrEmptyBatch, batchID)
			}
			if s, ok := firstFailed(states); ok {
				return nil, fmt.Errorf("%w: %s: %s", ErrExtractFailed, s.FileName, s.ErrMsg)
			}
			if allDone(states) {
				urls := make([]string, len(states))
				for i, s := range states {
					urls[i] = s.FullZipURL
				}
				c.log.Info("mineru batch done", "batch_id", batchID, "polls", attempt)
				return urls, nil
			}
			c.log.Debug("mineru batch pending", "batch_id", batchID, "poll", attempt)
		case errors.Is(err, errAPI):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			c.log.Warn("mineru poll failed", "batch_id", batchID, "poll", attempt, "error", err)
		}
		if attempt == c.maxPolls {
			break
		}
		if err := sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w (batch %s, %d polls)", ErrTimeout, batchID, c.maxPolls)
}

func (c *Client) results(ctx context.Context, batchID string) ([]ExtractState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/extract-results/batch/"+batchID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.doJSON(req)
	if err != nil {
		return nil, err
	}
	var data resultData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return data.ExtractResult, nil
}

func firstFailed(states []ExtractState) (ExtractState, bool) {
	for _, s := range states {
		if s.State == "failed" {
			return s, true
		}
	}
	return ExtractState{}, false
}

func allDone(states []ExtractState) bool {
	for _, s := range states {
		if s.State != "done" {
			return false
		}
	}
	return true
}

var errAPI = errors.New("mineru api error")

// doJSON sends an authorised request and decodes the envelope. Transient
// statuses come back as *retry.Error; a non-zero code wraps errAPI.
func (c *Client) doJSON(req *http.Request) (*apiResponse, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mineru api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if retry.IsRetryableStatus(resp.StatusCode) {
		return nil, &retry.Error{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mineru api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("%w: code %d: %s", errAPI, out.Code, out.Msg)
	}
	return &out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
