package models

import "time"

type HistoryResponse struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"uuid"`
	CreateDate     time.Time `json:"create_date"`
	Model          string    `json:"model"`
	ImageName      string    `json:"image_name"`
	Prompt         string    `json:"prompt"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	NegativePrompt *string   `json:"negative_prompt"`
	NImages        *int64    `json:"n_images"`
	NumSteps       *int64    `json:"num_steps"`
	Resolution     *string   `json:"resolution"`
	SamplerName    *string   `json:"sampler_name"`
	Scale          *float64  `json:"scale"`
	ImageDataURL   *string   `json:"image_data_url"`
	Provider       *string   `json:"provider"`
	ResponseFormat *string   `json:"response_format"`
	Seed           *int64    `json:"seed"`
	KontextMaxMode bool      `json:"kontext_max_mode"`
	Favorite       bool      `json:"favorite"`
	UserID         int64     `json:"user_id"`
	ProjectUUID    string    `json:"project_uuid"`
}

func NewHistoryResponse(e HistoryEntry) HistoryResponse {
	resp := HistoryResponse{
		ID:             e.ID,
		UUID:           e.UUID,
		CreateDate:     e.CreateDate,
		Model:          e.Model,
		ImageName:      e.ImageName,
		Prompt:         e.Prompt,
		Width:          e.Width,
		Height:         e.Height,
		KontextMaxMode: e.KontextMaxMode,
		Favorite:       e.Favorite,
		UserID:         e.UserID,
		ProjectUUID:    e.ProjectUUID,
	}
	if e.NegativePrompt.Valid {
		resp.NegativePrompt = &e.NegativePrompt.String
	}
	if e.NImages.Valid {
		resp.NImages = &e.NImages.Int64
	}
	if e.NumSteps.Valid {
		resp.NumSteps = &e.NumSteps.Int64
	}
	if e.Resolution.Valid {
		resp.Resolution = &e.Resolution.String
	}
	if e.SamplerName.Valid {
		resp.SamplerName = &e.SamplerName.String
	}
	if e.Scale.Valid {
		resp.Scale = &e.Scale.Float64
	}
	if e.ImageDataURL.Valid {
		resp.ImageDataURL = &e.ImageDataURL.String
	}
	if e.Provider.Valid {
		resp.Provider = &e.Provider.String
	}
	if e.ResponseFormat.Valid {
		resp.ResponseFormat = &e.ResponseFormat.String
	}
	if e.Seed.Valid {
		resp.Seed = &e.Seed.Int64
	}
	return resp
}

type HistoryMetaResponse struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type FavoriteResponse struct {
	OK       bool `json:"ok"`
	Favorite bool `json:"favorite"`
}

type MoveEntriesResponse struct {
	OK    bool `json:"ok"`
	Moved int  `json:"moved"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ProjectResponse struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	UserID    int64  `json:"user_id"`
	GroupUUID string `json:"group_uuid"`
	GroupName string `json:"group_name,omitempty"`
}

func NewProjectResponse(p Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		UUID:      p.UUID,
		Name:      p.Name,
		UserID:    p.UserID,
		GroupUUID: p.GroupUUID,
		GroupName: p.GroupName,
	}
}

type ProjectSummaryResponse struct {
	ProjectResponse
	LastImageName *string    `json:"lastImageName"`
	LastCreatedAt *time.Time `json:"lastCreatedAt"`
}

type ProjectGroupResponse struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

func NewProjectGroupResponse(g ProjectGroup) ProjectGroupResponse {
	return ProjectGroupResponse{
		UUID:      g.UUID,
		Name:      g.Name,
		SortOrder: g.SortOrder,
	}
}

type ProjectGroupWithProjectsResponse struct {
	ProjectGroupResponse
	Projects []ProjectResponse `json:"projects"`
}

type ProjectSummaryGroupResponse struct {
	ProjectGroupResponse
	Projects []ProjectSummaryResponse `json:"projects"`
}

type SnippetResponse struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	UserID    int64     `json:"user_id"`
	Title     *string   `json:"title"`
	Snippet   string    `json:"snippet"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSnippetResponse(s Snippet) SnippetResponse {
	resp := SnippetResponse{
		ID:        s.ID,
		UUID:      s.UUID,
		UserID:    s.UserID,
		Snippet:   s.Body,
		CreatedAt: s.CreatedAt,
	}
	if s.Title.Valid {
		resp.Title = &s.Title.String
	}
	return resp
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
