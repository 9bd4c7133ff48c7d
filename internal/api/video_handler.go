package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipforge/clipforge-agent/internal/timeline"
	"github.com/go-chi/chi/v5"
)

func importVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if len(req.Paths) > 0 {
			result := cfg.Videos.ImportBatch(r.Context(), req.Paths)
			WriteJSON(w, http.StatusOK, result)
			return
		}

		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		video, err := cfg.Videos.ImportVideo(r.Context(), req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, VideoToResponse(video))
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.Videos.Videos(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := cfg.Videos.Video(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if video == nil {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, VideoToResponse(video))
	}
}

func deleteVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Videos.RemoveVideo(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		if err := cfg.Videos.SetTrim(r.Context(), id, req.TrimStart, req.TrimEnd); err != nil {
			var trim *timeline.InvalidTrimError
			if errors.As(err, &trim) {
				WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TRIM")
				return
			}
			WriteDomainError(w, err)
			return
		}

		video, err := cfg.Videos.Video(r.Context(), id)
		if err != nil || video == nil {
			WriteError(w, http.StatusInternalServerError, "failed to reload video", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, VideoToResponse(video))
	}
}

func refreshThumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		video, err := cfg.Videos.Video(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if video == nil {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		job, err := cfg.Videos.QueueThumbnail(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusAccepted, QueueJobResponse{JobID: job.ID})
	}
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := cfg.Videos.Video(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if video == nil || video.ThumbnailPath == "" {
			WriteError(w, http.StatusNotFound, "thumbnail not found", "NOT_FOUND")
			return
		}

		if err := cfg.Playback.ServeFile(w, r, video.ThumbnailPath); err != nil {
			cfg.Logger.Error("thumbnail serve error", "error", err, "video_id", video.ID)
		}
	}
}

func streamVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "id")
		if err := cfg.Playback.ServeVideo(w, r, videoID); err != nil {
			cfg.Logger.Error("playback error", "error", err, "video_id", videoID)
		}
	}
}

func queueTranscribeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Transcripts.Queue(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			var notFound *timeline.NotFoundError
			if errors.As(err, &notFound) {
				WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusAccepted, QueueJobResponse{JobID: job.ID})
	}
}

func getTranscriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transcript, err := cfg.Transcripts.Transcript(chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if transcript == nil {
			WriteError(w, http.StatusNotFound, "transcript not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, transcript)
	}
}

func capabilitiesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Transcripts.Capabilities())
	}
}
