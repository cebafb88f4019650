// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cad-bridge/internal/pipeline"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

// createResponse is the body returned by POST /create_from_openscad.
// Partial successes report success with the document, plus the stage that
// failed and its error.
type createResponse struct {
	Success     bool        `json:"success"`
	DocID       string      `json:"docId,omitempty"`
	DocName     string      `json:"docName,omitempty"`
	URL         string      `json:"url,omitempty"`
	Message     string      `json:"message,omitempty"`
	Error       string      `json:"error,omitempty"`
	FailedStage types.Stage `json:"failedStage,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func newCreateResponse(out types.ConversionOutcome) createResponse {
	return createResponse{
		Success:     out.Succeeded(),
		DocID:       out.DocID,
		DocName:     out.DocName,
		URL:         out.URL,
		Message:     out.Message,
		Error:       out.Error,
		FailedStage: out.FailedStage,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req types.ConversionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	// A started run always reaches its terminal outcome, even if the client
	// goes away; request-scoped values such as the request ID are kept.
	ctx := context.WithoutCancel(r.Context())
	log := s.log.With(zap.String("request_id", RequestIDFromContext(ctx)))
	start := time.Now()
	out := s.conv.CreateFromSource(ctx, req.SourceCode, req.DocumentName)

	if errors.Is(out.Err, pipeline.ErrValidation) {
		log.Info("rejected", zap.String("error", out.Error))
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: out.Error})
		return
	}

	fields := []zap.Field{
		zap.String("kind", string(out.Kind)),
		zap.Duration("duration", time.Since(start)),
	}
	if out.DocID != "" {
		fields = append(fields, zap.String("doc_id", out.DocID))
	}
	switch out.Kind {
	case types.OutcomeSuccess:
		log.Info("conversion finished", fields...)
	case types.OutcomePartialSuccess:
		log.Warn("conversion incomplete", append(fields,
			zap.String("failed_stage", string(out.FailedStage)), zap.Error(out.Err))...)
	default:
		log.Error("conversion failed", append(fields, zap.Error(out.Err))...)
	}

	if s.ledger != nil {
		if _, err := s.ledger.Record(ctx, time.Now(), out); err != nil {
			log.Warn("recording outcome", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, newCreateResponse(out))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
