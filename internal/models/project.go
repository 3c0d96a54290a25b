package models

type Project struct {
	ID        int64
	UUID      string
	Name      string
	UserID    int64
	GroupUUID string
	GroupName string
}

type ProjectGroup struct {
	ID        int64
	UUID      string
	Name      string
	UserID    int64
	SortOrder int
}
