package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/clipforge/clipforge-agent/internal/export"
	"github.com/clipforge/clipforge-agent/internal/overlay"
	"github.com/clipforge/clipforge-agent/internal/record"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.ProjectID == "" {
			WriteError(w, http.StatusBadRequest, "project_id is required", "BAD_REQUEST")
			return
		}

		resp, err := cfg.Exports.Export(r.Context(), req)
		if err != nil {
			var notFound *timeline.NotFoundError
			if errors.As(err, &notFound) {
				WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
				return
			}
			var missing *timeline.MissingAssetError
			if errors.As(err, &missing) {
				WriteError(w, http.StatusUnprocessableEntity, err.Error(), "MISSING_ASSET")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		status := http.StatusOK
		if resp.Status == "queued" {
			status = http.StatusAccepted
		}
		WriteJSON(w, status, resp)
	}
}

// overlayResolveHandler previews the pixel rectangle a PiP config produces,
// so the UI can draw the overlay outline before recording starts.
func overlayResolveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OverlayResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		rect, err := overlay.Resolve(req.Config, req.BaseWidth, req.BaseHeight, req.SrcWidth, req.SrcHeight)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, rect)
	}
}

func recordStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// an empty body means "record with project defaults"
		var opts record.Options
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sessionID, err := cfg.Recorder.Start(r.Context(), opts)
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "RECORDING_FAILED")
			return
		}
		WriteJSON(w, http.StatusCreated, RecordStartResponse{SessionID: sessionID})
	}
}

func recordStopHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := cfg.Recorder.Stop(r.Context())
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "NOT_RECORDING")
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func recordStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, RecordStatusResponse{Recording: cfg.Recorder.Recording()})
	}
}
