package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Acquirer produces a local recommended-price workbook and returns its
// path. Acquisition failure is a degraded-mode condition for the pipeline,
// not a fatal one: prices fall back to base prices.
type Acquirer interface {
	Acquire(ctx context.Context) (string, error)
}

var ErrTemplateUnavailable = errors.New("template unavailable")

// HTTPAcquirer downloads the template straight from the seller API using
// the bearer token. The endpoint for this export is not stable across API
// revisions, so a small list of known paths is tried in order.
type HTTPAcquirer struct {
	endpoints []string
	token     string
	targetDir string
	client    *http.Client
}

type HTTPAcquirerOptions struct {
	BaseURL   string
	Token     string
	TargetDir string
	Timeout   time.Duration
}

func NewHTTPAcquirer(opts HTTPAcquirerOptions) (*HTTPAcquirer, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("Token is required")
	}
	to := opts.Timeout
	if to <= 0 {
		to = 10 * time.Second
	}
	dir := opts.TargetDir
	if dir == "" {
		dir = "."
	}
	return &HTTPAcquirer{
		endpoints: []string{
			base + "/template/download",
			base + "/template",
			base + "/export/template",
		},
		token:     opts.Token,
		targetDir: dir,
		client:    &http.Client{Timeout: to},
	}, nil
}

func (a *HTTPAcquirer) Acquire(ctx context.Context) (string, error) {
	if err := os.MkdirAll(a.targetDir, 0o755); err != nil {
		return "", err
	}
	for _, endpoint := range a.endpoints {
		path, err := a.tryEndpoint(ctx, endpoint)
		if err == nil {
			return path, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", ErrTemplateUnavailable
}

func (a *HTTPAcquirer) tryEndpoint(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, application/vnd.ms-excel, */*")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}
	if !isSpreadsheet(resp.Header.Get("Content-Type")) {
		return "", errors.New("not a spreadsheet response")
	}

	name := fileNameFromHeader(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = fmt.Sprintf("Шаблон обновления цен и скидок %s.xlsx", time.Now().Format("20060102_150405"))
	}
	path := filepath.Join(a.targetDir, filepath.Base(name))

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(path)
		return "", copyErr
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", closeErr
	}
	return path, nil
}

func isSpreadsheet(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "excel") ||
		strings.Contains(ct, "spreadsheet") ||
		strings.Contains(ct, "application/vnd.openxmlformats")
}

func fileNameFromHeader(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}
