package models

import (
	"database/sql"
	"time"
)

const (
	ProviderLegacy = "api1"
	ProviderOpenAI = "api2"

	ResponseFormatB64 = "b64_json"
	ResponseFormatURL = "url"
)

// HistoryEntry is one successful generation. ImageName is a bare filename;
// the directory is always derived from ProjectUUID.
type HistoryEntry struct {
	ID             int64
	UUID           string
	CreateDate     time.Time
	Model          string
	ImageName      string
	Prompt         string
	Width          int
	Height         int
	NegativePrompt sql.NullString
	NImages        sql.NullInt64
	NumSteps       sql.NullInt64
	Resolution     sql.NullString
	SamplerName    sql.NullString
	Scale          sql.NullFloat64
	ImageDataURL   sql.NullString
	Provider       sql.NullString
	ResponseFormat sql.NullString
	Seed           sql.NullInt64
	KontextMaxMode bool
	Favorite       bool
	UserID         int64
	ProjectUUID    string
}

type HistoryFilter struct {
	ProjectUUID   string
	UserID        int64
	FavoritesOnly bool
	Limit         int
	Offset        int
}
