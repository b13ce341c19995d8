package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"server/internal/generate"
)

type imageGenerateRequest struct {
	Model           string   `json:"model"`
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"reference_images"` // base64
}

type videoGenerateRequest struct {
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	Format        string `json:"format"` // landscape, portrait, square
	StartingImage string `json:"starting_image"` // base64
}

type generationResponse struct {
	URL   string `json:"url,omitempty"`
	JobID string `json:"job_id,omitempty"`
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	refs := make([][]byte, 0, len(req.ReferenceImages))
	for _, enc := range req.ReferenceImages {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "reference image is not valid base64")
			return
		}
		refs = append(refs, data)
	}

	res, err := a.Service.GenerateImage(r.Context(), generate.ImageParams{
		Model:           req.Model,
		Prompt:          req.Prompt,
		ReferenceImages: refs,
	})
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generationResponse{URL: res.URL})
}

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	var starting []byte
	if req.StartingImage != "" {
		data, err := base64.StdEncoding.DecodeString(req.StartingImage)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "starting image is not valid base64")
			return
		}
		starting = data
	}

	res, err := a.Service.GenerateVideo(r.Context(), generate.VideoParams{
		Model:         req.Model,
		Prompt:        req.Prompt,
		Format:        req.Format,
		StartingImage: starting,
	})
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	if res.JobID != "" {
		// Async job: polling continues server-side, clients watch
		// /v1/generations/status or the event stream.
		a.json(w, http.StatusAccepted, generationResponse{JobID: res.JobID})
		return
	}
	a.json(w, http.StatusOK, generationResponse{URL: res.URL})
}

func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Service.Status())
}

func (a *App) GenerationHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := a.History.List(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": entries})
}
