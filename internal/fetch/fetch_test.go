package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesDestination(t *testing.T) {
	payload := []byte("workbook bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "conference_list.xlsx")
	require.NoError(t, New().Download(context.Background(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadNon200LeavesPriorFileUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "conference_list.xlsx")
	prior := []byte("previous snapshot")
	require.NoError(t, os.WriteFile(dest, prior, 0o600))

	err := New().Download(context.Background(), srv.URL, dest)
	require.Error(t, err)

	got, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, prior, got, "failed fetch must not touch the prior file")
}

func TestDownloadNetworkErrorLeavesPriorFileUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	dest := filepath.Join(t.TempDir(), "conference_list.xlsx")
	prior := []byte("previous snapshot")
	require.NoError(t, os.WriteFile(dest, prior, 0o600))

	err := New().Download(context.Background(), srv.URL, dest)
	require.Error(t, err)

	got, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, prior, got)
}

func TestDownloadEmptyURL(t *testing.T) {
	err := New().Download(context.Background(), "", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}

func TestDownloadLeavesNoTempFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_ = New().Download(context.Background(), srv.URL, filepath.Join(dir, "x.xlsx"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
