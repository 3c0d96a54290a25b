package models

// GenerateImageRequest mirrors the JSON accepted by POST /api/generate-image.
// Either Width and Height or a "WxH" Resolution must be supplied.
type GenerateImageRequest struct {
	Prompt         string   `json:"prompt"`
	Model          string   `json:"model"`
	ProjectUUID    string   `json:"project_uuid"`
	Width          *int     `json:"width,omitempty"`
	Height         *int     `json:"height,omitempty"`
	Resolution     string   `json:"resolution,omitempty"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	NImages        *int     `json:"nImages,omitempty"`
	NumSteps       *int     `json:"num_steps,omitempty"`
	SamplerName    string   `json:"sampler_name,omitempty"`
	Scale          *float64 `json:"scale,omitempty"`
	ImageDataURL   string   `json:"imageDataUrl,omitempty"`
	ImageDataURLs  []string `json:"imageDataUrls,omitempty"`
	MaskDataURL    string   `json:"maskDataUrl,omitempty"`
	KontextMaxMode *bool    `json:"kontext_max_mode,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	ResponseFormat string   `json:"response_format,omitempty"`
	Provider       string   `json:"provider,omitempty"`
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

type MoveEntriesRequest struct {
	EntryUUIDs        []string `json:"entryUuids"`
	TargetProjectUUID string   `json:"targetProjectUuid"`
}

type CreateProjectRequest struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid,omitempty"`
	GroupUUID string `json:"groupUuid"`
}

type UpdateProjectRequest struct {
	Name      string `json:"name"`
	GroupUUID string `json:"groupUuid,omitempty"`
}

type ProjectGroupRequest struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

type CreateSnippetRequest struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
}
