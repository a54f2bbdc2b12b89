// Package source fetches the raw price dataset from the upstream REST API.
package source

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/prices"
)

// ErrUpstreamFetch marks every failure to obtain the dataset. It is never retried.
var ErrUpstreamFetch = errors.New("upstream fetch failed")

// Client issues the single GET per report run.
type Client struct {
	URL        string
	APIKey     string
	Fields     prices.FieldMap
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		URL:        cfg.URL,
		APIKey:     cfg.APIKey,
		Fields:     cfg.Fields.WithDefaults(),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

/*
Fetch performs GET on the configured URL and decodes the body into a Dataset.

No query parameters are added. A transport error or a non-2xx status returns an
error wrapping ErrUpstreamFetch. A body without the expected shape is not an
error: it decodes to an empty Dataset.
*/
func (c *Client) Fetch(ctx context.Context) (dataset prices.Dataset, e *xerr.Error) {
	tl.Log(tl.Info, palette.Blue, "%s dataset from '%s'", "Fetching", c.URL)
	startTime := time.Now()

	req, newReqErr := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if newReqErr != nil {
		return dataset, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrUpstreamFetch, newReqErr), "Failed to create HTTP request", "url", c.URL)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, httpErr := c.HTTPClient.Do(req)
	if httpErr != nil {
		return dataset, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrUpstreamFetch, httpErr), "HTTP error during dataset fetch", "url", c.URL)
	}
	defer resp.Body.Close()

	body, readErr := readBody(resp)
	if readErr != nil {
		return dataset, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrUpstreamFetch, readErr), "Failed to read response body", "url", c.URL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: status is '%s'", ErrUpstreamFetch, resp.Status)
		return dataset, xerr.NewErrorECML(statusErr, "API error from upstream dataset endpoint", "response body", truncate(string(body), 2048))
	}

	dataset = prices.DecodeDataset(body, c.Fields)
	tl.Log(tl.Info1, palette.Green, "Fetched %s records in %s", dataset.Len(), time.Since(startTime))
	return dataset, nil
}

/*
readBody reads the whole response body, undoing any Content-Encoding the
upstream applied. Unknown encodings are read as-is.
*/
func readBody(resp *http.Response) (body []byte, err error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	var reader io.ReadCloser
	switch encoding {
	case "gzip", "x-gzip":
		gzipReader, gzipErr := gzip.NewReader(resp.Body)
		if gzipErr != nil {
			return nil, fmt.Errorf("open gzip body: %w", gzipErr)
		}
		reader = gzipReader
	case "deflate":
		reader = flate.NewReader(resp.Body)
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	case "", "identity":
		reader = io.NopCloser(resp.Body)
	default:
		tl.Log(tl.Warning, palette.YellowDim, "Unsupported %s '%s', reading body as-is", "Content-Encoding", encoding)
		reader = io.NopCloser(resp.Body)
	}
	defer reader.Close()

	body, err = io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", encodingName(encoding), err)
	}
	tl.Log(tl.Verbose5, palette.BlueDim, "Read %s bytes of %s body", len(body), encodingName(encoding))
	return body, nil
}

func encodingName(encoding string) string {
	if encoding == "" {
		return "identity"
	}
	return encoding
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "…"
}
