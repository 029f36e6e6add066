// Package fetch downloads the remote conference workbook to the local
// snapshot path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
)

// Fetcher retrieves the source workbook over HTTP.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher with a bounded request timeout.
func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Download GETs url and writes the body to dest. The body lands in a temp
// file in dest's directory and is renamed over dest only on success, so a
// network error or non-200 response leaves the previous snapshot
// untouched. The returned error is the user-visible failure message.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	if url == "" {
		return errors.New("source URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	appLog.Info("workbook download start", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		appLog.Error("workbook download failed", err, "url", url)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status: %s", resp.Status)
		appLog.Error("workbook download failed", err, "url", url, "status", resp.StatusCode)
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".confdash-download-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		appLog.Error("workbook download interrupted", err, "url", url)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return err
	}

	appLog.Info("workbook download success", "url", url, "bytes", n, "dest", dest)
	return nil
}
