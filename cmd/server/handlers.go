package main

import (
	"context"
	"fmt"
	"maps"
	"net/http"

	"github.com/lychee-technology/roster"
	"go.uber.org/zap"
)

// handleRecords handles GET, POST and PUT /api/v1/records
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeSuccess(w, http.StatusOK, s.dir.GetRecords(r.Context()))
	case http.MethodPost:
		s.handleSaveRecord(w, r)
	case http.MethodPut:
		s.handleReplaceRecords(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSaveRecord upserts one record. A record without id is created with a fresh id and
// the schema defaults for every value it does not carry.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	var record roster.Record
	if err := readJSONBody(w, r, &record); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	status := http.StatusOK
	if record.ID == "" {
		fresh := s.dir.NewRecord(r.Context())
		maps.Copy(fresh.Values, record.Values)
		record = fresh
		status = http.StatusCreated
	}

	res := s.dir.SaveRecord(r.Context(), record)
	if !res.Success && res.ValidationResult == nil {
		zap.S().Warnw("record save failed", "recordId", record.ID)
	}
	writeSaveResult(w, status, res, record)
}

// handleReplaceRecords handles PUT /api/v1/records; the batch replaces the collection
func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	var records []roster.Record
	if err := readJSONBody(w, r, &records); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	for i, rec := range records {
		if rec.ID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("record #%d: id is required", i+1))
			return
		}
	}
	writeSaveResult(w, http.StatusOK, s.dir.SaveRecords(r.Context(), records), records)
}

// handleRecordByID handles GET /api/v1/records/new and DELETE /api/v1/records/{id}
func (s *Server) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Path, "/api/v1/records/")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "new":
		writeSuccess(w, http.StatusOK, s.dir.NewRecord(r.Context()))
	case r.Method == http.MethodDelete:
		writeSaveResult(w, http.StatusOK, s.dir.DeleteRecord(r.Context(), id), map[string]string{"id": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleValidate handles POST /api/v1/validate; nothing is written
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var record roster.Record
	if err := readJSONBody(w, r, &record); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	writeSuccess(w, http.StatusOK, s.dir.ValidateRecord(r.Context(), record))
}

// handleFields handles GET and POST /api/v1/fields
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeSuccess(w, http.StatusOK, s.dir.GetFields(r.Context()))
	case http.MethodPost:
		var field roster.FieldDefinition
		if err := readJSONBody(w, r, &field); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
			return
		}
		if field.ID == "" {
			writeError(w, http.StatusBadRequest, "field id is required")
			return
		}
		if !field.Type.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported field type: %q", field.Type))
			return
		}
		writeSaveResult(w, http.StatusOK, s.dir.SaveField(r.Context(), field), field)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFieldByID handles DELETE /api/v1/fields/{id}
func (s *Server) handleFieldByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := parseID(r.URL.Path, "/api/v1/fields/")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}
	writeSaveResult(w, http.StatusOK, s.dir.DeleteField(r.Context(), id), map[string]string{"id": id})
}

// handleSchema handles GET /api/v1/schema
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	schema, err := roster.RecordJSONSchema(s.dir.GetFields(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build schema: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// handleHealth handles GET /healthz. Directories without a backend check are always healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if hc, ok := s.dir.(healthChecker); ok {
		if err := hc.Health(r.Context()); err != nil {
			zap.S().Warnw("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
