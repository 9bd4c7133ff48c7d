package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/go-chi/chi/v5"
)

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp TimelineResponse
		err := cfg.Projects.View(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			resp.Timeline = m.Timeline()
			resp.Duration = m.Duration()
			for _, c := range m.DanglingClips() {
				resp.Dangling = append(resp.Dangling, c.ID)
			}
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func rulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticks, _ := strconv.Atoi(r.URL.Query().Get("ticks"))

		var scale timeline.RulerScale
		err := cfg.Projects.View(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			scale = m.Ruler(ticks)
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, scale)
	}
}

func snapTimeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		t, err := strconv.ParseFloat(q.Get("time"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "time is required", "BAD_REQUEST")
			return
		}
		width, _ := strconv.ParseFloat(q.Get("width"), 64)
		trackID := q.Get("track_id")
		excludeClipID := q.Get("exclude_clip_id")

		var snapped float64
		err = cfg.Projects.View(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			snapped = m.SnapTime(t, trackID, excludeClipID, width)
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapResponse{Time: snapped})
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		typ := timeline.TrackType(req.Type)
		if typ != timeline.TrackTypeVideo && typ != timeline.TrackTypeAudio {
			WriteError(w, http.StatusBadRequest, "type must be video or audio", "BAD_REQUEST")
			return
		}

		var track *timeline.Track
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			track = m.AddTrack(req.Name, typ)
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := chi.URLParam(r, "trackID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.RemoveTrack(trackID)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveTrackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		trackID := chi.URLParam(r, "trackID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.MoveTrack(trackID, req.Index)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trackOverlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrackOverlayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var placement *timeline.OverlayPlacement
		if !req.Clear {
			placement = &timeline.OverlayPlacement{X: req.X, Y: req.Y, Scale: req.Scale}
		}

		trackID := chi.URLParam(r, "trackID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.SetTrackOverlay(trackID, placement)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TrackID == "" || req.VideoID == "" {
			WriteError(w, http.StatusBadRequest, "track_id and video_id are required", "BAD_REQUEST")
			return
		}

		var clip *timeline.Clip
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			var err error
			clip, err = m.AddClip(req.TrackID, req.VideoID, req.StartTime)
			return err
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, clip)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clipID := chi.URLParam(r, "clipID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.MoveClip(clipID, req.StartTime, req.TrackID)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clipID := chi.URLParam(r, "clipID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.TrimClip(clipID, req.TrimStart, req.TrimEnd)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SplitClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clipID := chi.URLParam(r, "clipID")
		var resp SplitClipResponse
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			var err error
			resp.Left, resp.Right, err = m.SplitClip(clipID, req.AtTime)
			return err
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func selectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clipID := chi.URLParam(r, "clipID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.SelectClip(clipID, req.Exclusive)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := chi.URLParam(r, "clipID")
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.RemoveClip(clipID)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			m.ClearSelection()
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayheadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var applied float64
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			applied = m.SetPlayhead(req.Time)
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, PlayheadResponse{Time: applied})
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var applied float64
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			var err error
			applied, err = m.SetZoom(req.Level)
			return err
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ZoomResponse{Level: applied})
	}
}

func snapToggleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var enabled bool
		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			enabled = m.ToggleSnap()
			return nil
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapToggleResponse{SnapToGrid: enabled})
	}
}

func gridHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GridRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		err := cfg.Projects.Mutate(r.Context(), chi.URLParam(r, "id"), func(m *timeline.Model) error {
			return m.SetGridSize(req.Seconds)
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
