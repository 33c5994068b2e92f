// Package ingest contains the ingestion adapters. Each adapter owns its
// wire format — JSON over HTTP, the text line feed, or the real-time
// websocket stream — parses and rejects malformed input, and hands
// well-typed records to the patient store.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

// Handler handles measurement ingestion via HTTP
type Handler struct {
	store *store.Store

	// Max body size (default 10MB)
	maxBodySize int64
}

// HandlerConfig holds configuration for the ingest handler
type HandlerConfig struct {
	Store       *store.Store
	MaxBodySize int64
}

// NewHandler creates a new ingest handler
func NewHandler(cfg HandlerConfig) *Handler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 10 * 1024 * 1024 // 10MB default
	}

	return &Handler{
		store:       cfg.Store,
		maxBodySize: maxBodySize,
	}
}

// RecordInput is the JSON input format for a single measurement.
type RecordInput struct {
	PatientID int     `json:"patientId"`
	Value     float64 `json:"measurementValue"`
	Kind      string  `json:"recordType"`
	Status    string  `json:"status,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Request is the incoming JSON payload (single record or batch)
type Request struct {
	// Single record (if Records is empty)
	Record *RecordInput `json:"record,omitempty"`

	// Batch of records
	Records []RecordInput `json:"records,omitempty"`
}

// Response is returned to clients after an ingest call.
type Response struct {
	Success    bool         `json:"success"`
	Accepted   int          `json:"accepted"`
	Duplicates int          `json:"duplicates"`
	Rejected   int          `json:"rejected"`
	Errors     []InputError `json:"errors,omitempty"`
}

// InputError describes a validation error for a specific record
type InputError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ServeHTTP handles the ingest HTTP request
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only accept POST
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "" {
		h.writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	inputs, err := h.parseBody(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(inputs) == 0 {
		h.writeError(w, http.StatusBadRequest, "no records provided")
		return
	}

	metrics.IngestBatchSize.Observe(float64(len(inputs)))

	response := h.processRecords(inputs)

	w.Header().Set("Content-Type", "application/json")
	if response.Rejected > 0 && response.Accepted == 0 && response.Duplicates == 0 {
		w.WriteHeader(http.StatusBadRequest)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

// parseBody parses the JSON body into a slice of RecordInput
func (h *Handler) parseBody(body []byte) ([]RecordInput, error) {
	// Try parsing as Request first
	var req Request
	if err := json.Unmarshal(body, &req); err == nil {
		if len(req.Records) > 0 {
			return req.Records, nil
		}
		if req.Record != nil {
			return []RecordInput{*req.Record}, nil
		}
	}

	// Try parsing as array of records
	var records []RecordInput
	if err := json.Unmarshal(body, &records); err == nil && len(records) > 0 {
		return records, nil
	}

	// Try parsing as single record
	var single RecordInput
	if err := json.Unmarshal(body, &single); err == nil && single.PatientID != 0 {
		return []RecordInput{single}, nil
	}

	return nil, fmt.Errorf("invalid JSON format: expected record object or array of records")
}

// processRecords converts, validates, and stores each input record
func (h *Handler) processRecords(inputs []RecordInput) Response {
	response := Response{
		Success: true,
		Errors:  make([]InputError, 0),
	}

	for i, input := range inputs {
		rec, err := h.convertInput(input)
		if err != nil {
			response.Errors = append(response.Errors, InputError{Index: i, Error: err.Error()})
			response.Rejected++
			metrics.IngestRecordsTotal.WithLabelValues("http", store.OutcomeInvalid.String()).Inc()
			metrics.IngestValidationErrors.WithLabelValues("parse").Inc()
			continue
		}

		outcome, err := h.store.Record(rec)
		metrics.IngestRecordsTotal.WithLabelValues("http", outcome.String()).Inc()

		switch outcome {
		case store.OutcomeStored:
			response.Accepted++
		case store.OutcomeDuplicate:
			response.Duplicates++
		default:
			response.Errors = append(response.Errors, InputError{Index: i, Error: err.Error()})
			response.Rejected++
			metrics.IngestValidationErrors.WithLabelValues("validate").Inc()
		}
	}

	response.Success = response.Rejected == 0
	return response
}

// convertInput converts a RecordInput to a models.Record
func (h *Handler) convertInput(input RecordInput) (models.Record, error) {
	kind, err := models.NormalizeKind(input.Kind)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		PatientID: input.PatientID,
		Kind:      kind,
		Value:     input.Value,
		Status:    input.Status,
		Timestamp: input.Timestamp,
	}, nil
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
