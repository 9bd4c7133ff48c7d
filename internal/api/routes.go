package api

import (
	"net/http"
	"time"

	"github.com/clipforge/clipforge-agent/internal/library"
	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/videos", importVideosHandler(cfg))
		r.Get("/videos", listVideosHandler(cfg))
		r.Get("/videos/{id}", getVideoHandler(cfg))
		r.Delete("/videos/{id}", deleteVideoHandler(cfg))
		r.Put("/videos/{id}/trim", trimVideoHandler(cfg))
		r.Post("/videos/{id}/thumbnail", refreshThumbnailHandler(cfg))
		r.Get("/videos/{id}/thumbnail", thumbnailHandler(cfg))
		r.Get("/videos/{id}/stream", streamVideoHandler(cfg))
		r.Post("/videos/{id}/transcribe", queueTranscribeHandler(cfg))
		r.Get("/videos/{id}/transcript", getTranscriptHandler(cfg))

		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Put("/projects/{id}/name", renameProjectHandler(cfg))
		r.Put("/projects/{id}/export-settings", exportSettingsHandler(cfg))
		r.Post("/projects/{id}/open", openProjectHandler(cfg))
		r.Post("/projects/{id}/close", closeProjectHandler(cfg))

		r.Route("/projects/{id}/timeline", func(r chi.Router) {
			r.Get("/", getTimelineHandler(cfg))
			r.Get("/ruler", rulerHandler(cfg))
			r.Get("/snap", snapTimeHandler(cfg))
			r.Post("/tracks", addTrackHandler(cfg))
			r.Delete("/tracks/{trackID}", removeTrackHandler(cfg))
			r.Put("/tracks/{trackID}/move", moveTrackHandler(cfg))
			r.Put("/tracks/{trackID}/overlay", trackOverlayHandler(cfg))
			r.Post("/clips", addClipHandler(cfg))
			r.Put("/clips/{clipID}/move", moveClipHandler(cfg))
			r.Put("/clips/{clipID}/trim", trimClipHandler(cfg))
			r.Post("/clips/{clipID}/split", splitClipHandler(cfg))
			r.Post("/clips/{clipID}/select", selectClipHandler(cfg))
			r.Delete("/clips/{clipID}", removeClipHandler(cfg))
			r.Post("/selection/clear", clearSelectionHandler(cfg))
			r.Put("/playhead", playheadHandler(cfg))
			r.Put("/zoom", zoomHandler(cfg))
			r.Post("/snap/toggle", snapToggleHandler(cfg))
			r.Put("/grid", gridHandler(cfg))
		})

		r.Post("/export", exportHandler(cfg))
		r.Post("/overlay/resolve", overlayResolveHandler(cfg))

		r.Post("/record/start", recordStartHandler(cfg))
		r.Post("/record/stop", recordStopHandler(cfg))
		r.Get("/record/status", recordStatusHandler(cfg))

		r.Get("/transcription/capabilities", capabilitiesHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Post("/jobs/pause", pauseJobsHandler(cfg))
		r.Post("/jobs/resume", resumeJobsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: "0.1.0",
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		videos, _ := cfg.Videos.Videos(ctx)
		projects, _ := cfg.Projects.List(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == library.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == library.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			VideosCount:   len(videos),
			ProjectsCount: len(projects),
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		}

		if cfg.Recorder != nil {
			resp.Recording = cfg.Recorder.Recording()
		}
		if cfg.Transcripts != nil {
			resp.Transcription = cfg.Transcripts.Capabilities()
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func pauseJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Runner.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func resumeJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Runner.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}
