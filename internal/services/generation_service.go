package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/provider"
	"imagegen-backend/internal/storage"
)

const generationFailed = "Image generation failed"

// Generator is satisfied by *provider.Client.
type Generator interface {
	HasCredentials() bool
	Generate(ctx context.Context, p provider.Provider, params provider.Params) (*provider.Result, error)
}

type GenerationService struct {
	generator Generator
	store     storage.Store
	history   HistoryRepository
	projects  ProjectRepository
	now       func() time.Time
}

func NewGenerationService(generator Generator, store storage.Store, history HistoryRepository, projects ProjectRepository) *GenerationService {
	return &GenerationService{
		generator: generator,
		store:     store,
		history:   history,
		projects:  projects,
		now:       time.Now,
	}
}

// Generate runs one synchronous generation for userID and returns the
// upstream response body unchanged. Nothing touches the network or the
// artifact store until every precondition holds.
func (s *GenerationService) Generate(ctx context.Context, userID int64, req models.GenerateImageRequest) (json.RawMessage, error) {
	prompt := strings.TrimSpace(req.Prompt)
	model := strings.TrimSpace(req.Model)
	projectUUID := strings.TrimSpace(req.ProjectUUID)
	switch {
	case prompt == "":
		return nil, validation("prompt is required")
	case model == "":
		return nil, validation("model is required")
	case projectUUID == "":
		return nil, validation("project_uuid is required")
	}

	width, height, ok := ResolveDimensions(req.Width, req.Height, req.Resolution)
	if !ok {
		return nil, validation("width and height (or resolution) are required")
	}

	p, err := provider.ParseProvider(req.Provider)
	if err != nil {
		return nil, validation("provider must be api1 or api2")
	}
	switch req.ResponseFormat {
	case "", models.ResponseFormatB64, models.ResponseFormatURL:
	default:
		return nil, validation("response_format must be b64_json or url")
	}

	if !s.generator.HasCredentials() {
		return nil, internal("Missing API_KEY in environment", provider.ErrMissingCredentials)
	}

	if _, err := s.projects.GetProject(ctx, projectUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project not found")
		}
		return nil, internal(generationFailed, err)
	}

	params := provider.Params{
		Prompt:         req.Prompt,
		Model:          req.Model,
		Width:          width,
		Height:         height,
		NegativePrompt: req.NegativePrompt,
		NImages:        req.NImages,
		NumSteps:       req.NumSteps,
		Resolution:     req.Resolution,
		SamplerName:    req.SamplerName,
		Scale:          req.Scale,
		Seed:           req.Seed,
		ImageDataURL:   req.ImageDataURL,
		ImageDataURLs:  req.ImageDataURLs,
		MaskDataURL:    req.MaskDataURL,
		KontextMaxMode: req.KontextMaxMode,
		ResponseFormat: req.ResponseFormat,
	}

	res, err := s.generator.Generate(ctx, p, params)
	if err != nil {
		slog.Error("upstream generation failed", "provider", string(p), "model", model, "error", err)
		return nil, &Error{Kind: KindUpstream, Message: generationFailed, Err: err}
	}

	fileName := "image-" + uuid.NewString() + "." + res.Extension
	if err := s.store.Write(ctx, projectUUID, fileName, res.Data); err != nil {
		slog.Error("failed to write artifact", "project_uuid", projectUUID, "image_name", fileName, "error", err)
		return nil, &Error{Kind: KindStorage, Message: generationFailed, Err: err}
	}

	entry := &models.HistoryEntry{
		UUID:           uuid.NewString(),
		CreateDate:     s.now(),
		Model:          req.Model,
		ImageName:      fileName,
		Prompt:         req.Prompt,
		Width:          width,
		Height:         height,
		NegativePrompt: nullString(req.NegativePrompt),
		NImages:        nullInt(req.NImages),
		NumSteps:       nullInt(req.NumSteps),
		Resolution:     nullString(req.Resolution),
		SamplerName:    nullString(req.SamplerName),
		ImageDataURL:   nullString(req.ImageDataURL),
		Provider:       nullString(string(p)),
		ResponseFormat: nullString(storedResponseFormat(p, req.ResponseFormat)),
		UserID:         userID,
		ProjectUUID:    projectUUID,
	}
	if req.Scale != nil {
		entry.Scale = sql.NullFloat64{Float64: *req.Scale, Valid: true}
	}
	if req.Seed != nil {
		entry.Seed = sql.NullInt64{Int64: *req.Seed, Valid: true}
	}
	if req.KontextMaxMode != nil {
		entry.KontextMaxMode = *req.KontextMaxMode
	}

	if err := s.history.CreateHistory(ctx, entry); err != nil {
		slog.Error("failed to record history entry", "project_uuid", projectUUID, "image_name", fileName, "error", err)
		if rmErr := s.store.Remove(ctx, projectUUID, fileName); rmErr != nil {
			slog.Warn("failed to remove orphaned artifact", "project_uuid", projectUUID, "image_name", fileName, "error", rmErr)
		}
		return nil, internal(generationFailed, err)
	}

	slog.Info("image generated",
		"user_id", userID,
		"project_uuid", projectUUID,
		"entry_uuid", entry.UUID,
		"provider", string(p),
		"bytes", len(res.Data),
	)
	return res.Raw, nil
}

// ResolveDimensions prefers explicit width and height and falls back to a
// "WxH" resolution label. Both results must be positive.
func ResolveDimensions(width, height *int, resolution string) (int, int, bool) {
	var w, h int
	if width != nil {
		w = *width
	}
	if height != nil {
		h = *height
	}
	if (w == 0 || h == 0) && resolution != "" {
		ws, hs, _ := strings.Cut(resolution, "x")
		pw, errW := strconv.Atoi(strings.TrimSpace(ws))
		ph, errH := strconv.Atoi(strings.TrimSpace(hs))
		if errW == nil && errH == nil {
			w, h = pw, ph
		}
	}
	return w, h, w > 0 && h > 0
}

func storedResponseFormat(p provider.Provider, requested string) string {
	if requested != "" {
		return requested
	}
	if p == provider.OpenAI {
		return models.ResponseFormatB64
	}
	return ""
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
