package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves the theme source text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// NewFetcher picks an HTTPFetcher for http(s) URLs and a FileFetcher otherwise.
func NewFetcher(source string, timeout time.Duration) Fetcher {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return &HTTPFetcher{URL: source, Client: &http.Client{Timeout: timeout}}
	}
	return FileFetcher{Path: source}
}

// FileFetcher reads the source from disk.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f FileFetcher) String() string { return f.Path }

// HTTPFetcher downloads the source with a GET request. Non-2xx responses fail.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("could not load %s: %s", f.URL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func (f *HTTPFetcher) String() string { return f.URL }
