package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Wei1024/embase-conference-dashboard/internal/dataset"
	"github.com/Wei1024/embase-conference-dashboard/internal/export"
	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
	"github.com/Wei1024/embase-conference-dashboard/internal/model"
	"github.com/Wei1024/embase-conference-dashboard/internal/search"
)

// conferenceDTO is the JSON view of one table row. Nullable source fields
// stay nullable on the wire.
type conferenceDTO struct {
	Key       string  `json:"key"`
	Event     string  `json:"event"`
	Location  string  `json:"location"`
	Country   *string `json:"country"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Abstracts *int    `json:"abstracts"`
	Year      string  `json:"year"`
	Pinned    bool    `json:"pinned"`
}

// conferencesResponse is the JSON response shape for /api/conferences and
// /api/pinned. Available is false when the source workbook is missing;
// the rows are then empty and Message tells the user to refresh.
type conferencesResponse struct {
	Available bool            `json:"available"`
	Message   string          `json:"message,omitempty"`
	Total     int             `json:"total"`
	Rows      []conferenceDTO `json:"rows"`
}

func toDTO(c model.Conference, isPinned bool) conferenceDTO {
	dto := conferenceDTO{
		Key:      c.Key,
		Event:    c.Event,
		Location: c.Location,
		Year:     c.Year,
		Pinned:   isPinned,
	}
	if c.Country != "" {
		dto.Country = &c.Country
	}
	if c.StartDate != nil {
		v := c.StartDate.Format(model.DateLayout)
		dto.StartDate = &v
	}
	if c.EndDate != nil {
		v := c.EndDate.Format(model.DateLayout)
		dto.EndDate = &v
	}
	dto.Abstracts = c.Abstracts
	return dto
}

// handleConferences returns the filtered table.
//
// GET /api/conferences?q=&threshold=&country=&year=
//   - q:         fuzzy query over conference name and location
//   - threshold: match sensitivity 0-100 (default from config)
//   - country:   exact country filter, "All" disables
//   - year:      exact year-sheet filter, "All" disables
func (s *Server) handleConferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	table, ok := s.currentTable(w)
	if !ok {
		return
	}

	params := r.URL.Query()
	q := search.Query{
		Text:      params.Get("q"),
		Threshold: parseIntDefault(params.Get("threshold"), s.cfg.DefaultThreshold),
		Country:   params.Get("country"),
		Year:      params.Get("year"),
	}
	if q.Threshold < 0 || q.Threshold > 100 {
		q.Threshold = s.cfg.DefaultThreshold
	}

	rows := search.Filter(table, q)

	s.pinnedMu.Lock()
	set := s.pinnedSet.Clone()
	s.pinnedMu.Unlock()

	dtos := make([]conferenceDTO, 0, len(rows))
	for _, c := range rows {
		dtos = append(dtos, toDTO(c, set.Contains(c.Key)))
	}

	writeJSON(w, http.StatusOK, conferencesResponse{
		Available: true,
		Total:     len(dtos),
		Rows:      dtos,
	})
}

// handleFilters returns the dropdown values derived from the current
// table, each with the "All" sentinel prepended.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	table, ok := s.currentTable(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"countries": append([]string{search.All}, table.Countries()...),
		"years":     append([]string{search.All}, table.Years()...),
	})
}

// handlePinned returns the pinned subset of the current table, in table
// order. Pinned keys with no matching row in the current table are kept
// in the set but produce no row here.
func (s *Server) handlePinned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	table, ok := s.currentTable(w)
	if !ok {
		return
	}

	rows := s.pinnedRecords(table)
	dtos := make([]conferenceDTO, 0, len(rows))
	for _, c := range rows {
		dtos = append(dtos, toDTO(c, true))
	}

	writeJSON(w, http.StatusOK, conferencesResponse{
		Available: true,
		Total:     len(dtos),
		Rows:      dtos,
	})
}

// pinnedRecords filters the table down to pinned rows, preserving order.
func (s *Server) pinnedRecords(table model.Table) model.Table {
	s.pinnedMu.Lock()
	set := s.pinnedSet.Clone()
	s.pinnedMu.Unlock()

	out := make(model.Table, 0, set.Len())
	for _, c := range table {
		if set.Contains(c.Key) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	s.mutatePin(w, r, true)
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	s.mutatePin(w, r, false)
}

// mutatePin applies a single pin/unpin and persists. A persistence
// failure is reported but the in-memory set keeps the mutation, so the
// session stays usable.
func (s *Server) mutatePin(w http.ResponseWriter, r *http.Request, pin bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, &req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	s.pinnedMu.Lock()
	var err error
	if pin {
		err = s.store.Add(s.pinnedSet, req.Key)
	} else {
		err = s.store.Remove(s.pinnedSet, req.Key)
	}
	count := s.pinnedSet.Len()
	s.pinnedMu.Unlock()

	if err != nil {
		appLog.Error("pinned set save failed", err, "path", s.cfg.PinnedFile)
		writeError(w, http.StatusInternalServerError, "failed to save pinned conferences: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pinned_count": count})
}

// handleReconcile merges an edited visible grid back into the pinned set:
// checked visible keys are added, unchecked visible keys removed, keys
// outside the visible set untouched.
//
// POST /api/reconcile {"visible": {"<key>": true|false, ...}}
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req struct {
		Visible map[string]bool `json:"visible"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.pinnedMu.Lock()
	next, err := s.store.ReconcileAndSave(s.pinnedSet, req.Visible)
	s.pinnedSet = next
	count := next.Len()
	s.pinnedMu.Unlock()

	if err != nil {
		appLog.Error("pinned set save failed", err, "path", s.cfg.PinnedFile)
		writeError(w, http.StatusInternalServerError, "failed to save pinned conferences: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pinned_count": count})
}

// handleRefresh downloads the latest workbook and invalidates the table
// cache. The response always carries the success flag and a user-visible
// message; download failures leave the previous snapshot untouched.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := s.RefreshNow(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Error downloading file: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Successfully downloaded the latest conference list!",
	})
}

// RefreshNow performs one fetch-and-invalidate cycle. Shared between the
// manual endpoint and the cron schedule.
func (s *Server) RefreshNow(ctx context.Context) error {
	if err := s.fetcher.Download(ctx, s.cfg.SourceURL, s.cfg.DataFile); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// handleStatus reports data availability, the snapshot's last-updated
// time and the pinned count.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	var lastUpdated *string
	available := false
	if info, err := os.Stat(s.cfg.DataFile); err == nil {
		available = true
		v := info.ModTime().Format(time.RFC3339)
		lastUpdated = &v
	}

	s.pinnedMu.Lock()
	count := s.pinnedSet.Len()
	s.pinnedMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"data_available": available,
		"last_updated":   lastUpdated,
		"pinned_count":   count,
	})
}

// handleExportXlsx streams the pinned subset as a spreadsheet download.
// Succeeds with a header-only sheet when nothing is pinned.
func (s *Server) handleExportXlsx(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	table, ok := s.currentTable(w)
	if !ok {
		return
	}

	blob, err := export.Workbook(s.pinnedRecords(table), model.ExportFields)
	if err != nil {
		appLog.Error("xlsx export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build spreadsheet")
		return
	}

	name := fmt.Sprintf("pinned_conferences_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// handleExportICS streams the pinned subset as an iCalendar download.
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	table, ok := s.currentTable(w)
	if !ok {
		return
	}

	blob, err := export.Calendar(s.pinnedRecords(table))
	if err != nil {
		appLog.Error("ical export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pinned_conferences.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// currentTable loads the table through the cache. On DataUnavailable it
// writes the empty-table response itself and returns ok=false; the user
// is told to refresh, nothing fails hard.
func (s *Server) currentTable(w http.ResponseWriter) (model.Table, bool) {
	table, err := s.cache.Get()
	if err != nil {
		if errors.Is(err, dataset.ErrDataUnavailable) {
			writeJSON(w, http.StatusOK, conferencesResponse{
				Available: false,
				Message:   "No conference data available. Please refresh the conference list.",
				Rows:      []conferenceDTO{},
			})
			return nil, false
		}
		appLog.Error("table load failed", err, "path", s.cfg.DataFile)
		writeError(w, http.StatusInternalServerError, "failed to load conference data")
		return nil, false
	}
	return table, true
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
