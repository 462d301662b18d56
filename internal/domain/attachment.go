package domain

import "time"

// AttachmentReference stores metadata for uploaded artifact files.
type AttachmentReference struct {
	ID         string
	ArtifactID string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
