// Package extract talks to the document-extraction service and maps its
// elements onto Documents.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrExtractionFailed is returned when the service answers with a non-200
// status.
var ErrExtractionFailed = errors.New("extraction failed")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Extractor converts a source file into structured elements.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Element, error)
}

// Options are the partitioning and chunking parameters sent with every file.
type Options struct {
	Strategy          string
	ChunkingStrategy  string
	MaxCharacters     int
	MultipageSections bool
	Overlap           int
	Languages         string
	Timeout           time.Duration
}

// Client calls an Unstructured-compatible partition endpoint.
type Client struct {
	url        string
	apiKey     string
	opts       Options
	httpClient *http.Client
}

// NewClient creates a client for the endpoint at url. apiKey may be empty
// for self-hosted services.
func NewClient(url, apiKey string, opts Options) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// fields returns the form fields of a partition request for filename.
func (c *Client) fields(filename string) [][2]string {
	chars := strconv.Itoa(c.opts.MaxCharacters)
	return [][2]string{
		{"filename", filename},
		{"response_type", "application/json"},
		{"coordinates", "false"},
		{"encoding", "utf-8"},
		{"strategy", c.opts.Strategy},
		{"include_page_breaks", "false"},
		{"languages", c.opts.Languages},
		{"unique_element_ids", "true"},
		{"chunking_strategy", c.opts.ChunkingStrategy},
		{"combine_under_n_chars", chars},
		{"max_characters", chars},
		{"multipage_sections", strconv.FormatBool(c.opts.MultipageSections)},
		{"overlap", strconv.Itoa(c.opts.Overlap)},
		{"overlap_all", "false"},
		{"include_slide_notes", "true"},
		{"split_pdf_page", "false"},
	}
}

// Extract uploads the file at path and returns the elements the service
// found in it.
func (c *Client) Extract(ctx context.Context, path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range c.fields(name) {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	part, err := w.CreateFormFile("files", name)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("unstructured-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request for %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrExtractionFailed, name, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var elements []Element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("decode extraction response for %s: %w", name, err)
	}
	return elements, nil
}
