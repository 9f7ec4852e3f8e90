package models

import "time"

type FileRecord struct {
	Id           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	StoragePath  string    `json:"path"`
	TaskId       string    `json:"taskId"`
	OwnerId      string    `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileMeta describes an artifact that has already been staged on disk.
type FileMeta struct {
	Filename     string
	OriginalName string
	Mimetype     string
	Size         int64
	StoragePath  string
}
