// Package api exposes the dashboard pipeline over HTTP for the browser
// frontend. All state lives in the session store; every mutating endpoint
// responds with a freshly rendered dashboard frame.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"smartdash/internal/config"
	"smartdash/internal/dataset"
	"smartdash/internal/datasource"
	"smartdash/internal/export"
	"smartdash/internal/models"
	"smartdash/internal/pipeline"
	"smartdash/internal/schema"
	"smartdash/internal/session"
)

type Handler struct {
	Sessions   *session.Store
	Inferencer *schema.Inferencer
	Cfg        *config.Config
	Log        *zap.Logger

	dbMu      sync.Mutex
	currentDB datasource.Source
}

func NewHandler(st *session.Store, inf *schema.Inferencer, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{Sessions: st, Inferencer: inf, Cfg: cfg, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/api/sessions", h.CreateSession)
	r.Get("/api/sessions/{id}/view", h.GetView)
	r.Put("/api/sessions/{id}/mapping", h.UpdateMapping)
	r.Put("/api/sessions/{id}/filters", h.UpdateFilters)
	r.Put("/api/sessions/{id}/preferences", h.UpdatePreferences)
	r.Get("/api/sessions/{id}/export/csv", h.ExportCSV)
	r.Get("/api/sessions/{id}/export/report", h.ExportReport)
	r.Delete("/api/sessions/{id}", h.DeleteSession)

	r.Post("/api/db/connect", h.ConnectDB)
	r.Get("/api/db/tables", h.ListTables)
	r.Post("/api/db/load", h.LoadTable)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// CreateSession ingests an uploaded CSV or XLSX file and opens a session
// with inferred mappings.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadBytes); err != nil {
		h.error(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var tbl *dataset.Table
	if dataset.IsXLSX(header.Filename) {
		tbl, err = dataset.LoadXLSX(file, header.Filename)
	} else {
		tbl, err = dataset.LoadCSV(file, header.Filename)
	}
	if err != nil {
		if errors.Is(err, dataset.ErrUnreadable) {
			h.error(w, http.StatusBadRequest, fmt.Sprintf("could not read %s: %v", header.Filename, err))
			return
		}
		h.error(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s := h.Sessions.Create(tbl, h.Inferencer.Infer(tbl.Columns))
	h.Log.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("file", header.Filename),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", len(tbl.Columns)))
	h.writeSession(w, http.StatusCreated, s)
}

// GetView re-renders the dashboard frame for the current session state.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	h.writeSession(w, http.StatusOK, s)
}

// UpdateMapping reassigns roles to columns. Remapping a filter role clears
// that role's selections; everything downstream is recomputed.
func (h *Handler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.MappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.Lock()
	defer s.Unlock()
	updates := make(map[schema.Role]string, len(req.Mapping))
	for roleName, col := range req.Mapping {
		role := schema.Role(roleName)
		if !role.Valid() {
			h.error(w, http.StatusBadRequest, fmt.Sprintf("unknown role %q", roleName))
			return
		}
		if col != "" && !s.Table.HasColumn(col) {
			h.error(w, http.StatusBadRequest, fmt.Sprintf("unknown column %q", col))
			return
		}
		updates[role] = col
	}
	s.SetMapping(updates)
	h.writeSession(w, http.StatusOK, s)
}

// UpdateFilters replaces one filter role's selection. Values must come from
// the column's distinct values; an empty list turns the filter off.
func (h *Handler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	role := schema.Role(req.Role)
	if !isFilterRole(role) {
		h.error(w, http.StatusBadRequest, fmt.Sprintf("%q is not a filterable role", req.Role))
		return
	}
	s.Lock()
	defer s.Unlock()
	col, mapped := s.Mapping.Column(role)
	if !mapped {
		h.error(w, http.StatusBadRequest, fmt.Sprintf("role %q has no mapped column", req.Role))
		return
	}
	if len(req.Values) > 0 {
		options := make(map[string]struct{})
		for _, v := range s.Table.DistinctValues(col) {
			options[v] = struct{}{}
		}
		for _, v := range req.Values {
			if _, ok := options[v]; !ok {
				h.error(w, http.StatusBadRequest, fmt.Sprintf("value %q not present in column %q", v, col))
				return
			}
		}
	}
	s.SetFilter(role, req.Values)
	h.writeSession(w, http.StatusOK, s)
}

// UpdatePreferences changes theme and preview expansion. These never touch
// mappings or filters.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.Lock()
	defer s.Unlock()
	if req.Theme != nil {
		theme := session.Theme(*req.Theme)
		if theme != session.ThemeLight && theme != session.ThemeDark {
			h.error(w, http.StatusBadRequest, fmt.Sprintf("unknown theme %q", *req.Theme))
			return
		}
		s.Theme = theme
	}
	if req.ShowFullPreview != nil {
		s.ShowFullPreview = *req.ShowFullPreview
	}
	h.writeSession(w, http.StatusOK, s)
}

// ExportCSV streams the filtered view as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename))
	if err := export.WriteCSV(w, pipeline.ApplyFilters(s), s.Mapping); err != nil {
		h.Log.Error("csv export failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// ExportReport streams the PDF summary of the current view.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	vm := pipeline.Render(s, h.Cfg.PreviewRows)
	s.Unlock()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.PDFFilename))
	err := export.WritePDF(w, vm, export.ReportOptions{Currency: h.Cfg.CurrencySymbol})
	if err != nil {
		h.Log.Error("pdf export failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// ConnectDB opens a database connection as an alternative ingestion path.
// Only postgres is supported.
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var req models.DBConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Type != "" && req.Type != "postgres" {
		h.error(w, http.StatusBadRequest, "only postgres is supported")
		return
	}

	ds := datasource.NewPostgres()
	err := ds.Connect(r.Context(), datasource.Config{
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		DBName:   req.DBName,
		SSLMode:  req.SSLMode,
	})
	if err != nil {
		h.error(w, http.StatusBadGateway, fmt.Sprintf("connect failed: %v", err))
		return
	}

	h.dbMu.Lock()
	if h.currentDB != nil {
		h.currentDB.Close()
	}
	h.currentDB = ds
	h.dbMu.Unlock()

	h.Log.Info("database connected", zap.String("host", req.Host), zap.String("dbname", req.DBName))
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	h.dbMu.Lock()
	ds := h.currentDB
	h.dbMu.Unlock()
	if ds == nil {
		h.error(w, http.StatusBadRequest, "no database connection")
		return
	}
	tables, err := ds.ListTables(r.Context())
	if err != nil {
		h.error(w, http.StatusBadGateway, fmt.Sprintf("list tables: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, models.DBTablesResponse{Tables: tables})
}

// LoadTable pulls a database table into a new session, going through the
// same inference as an uploaded file.
func (h *Handler) LoadTable(w http.ResponseWriter, r *http.Request) {
	h.dbMu.Lock()
	ds := h.currentDB
	h.dbMu.Unlock()
	if ds == nil {
		h.error(w, http.StatusBadRequest, "no database connection")
		return
	}
	var req models.DBLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Table) == "" {
		h.error(w, http.StatusBadRequest, "table is required")
		return
	}
	tbl, err := ds.LoadTable(r.Context(), req.Table, h.Cfg.DBRowLimit)
	if err != nil {
		h.error(w, http.StatusBadGateway, fmt.Sprintf("load table: %v", err))
		return
	}
	s := h.Sessions.Create(tbl, h.Inferencer.Infer(tbl.Columns))
	h.Log.Info("session created from database",
		zap.String("session_id", s.ID),
		zap.String("table", req.Table),
		zap.Int("rows", tbl.NumRows()))
	h.writeSession(w, http.StatusCreated, s)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.Sessions.Get(id)
	if !ok {
		h.error(w, http.StatusNotFound, "unknown or expired session")
		return nil, false
	}
	return s, true
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, s *session.Session) {
	resp := models.SessionResponse{
		SessionID: s.ID,
		View:      pipeline.Render(s, h.Cfg.PreviewRows),
	}
	if col, ok := h.Inferencer.DetectUnitCost(s.Table.Columns); ok {
		resp.UnitCostColumn = col
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Log.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) error(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func isFilterRole(role schema.Role) bool {
	for _, r := range schema.FilterRoles {
		if r == role {
			return true
		}
	}
	return false
}
