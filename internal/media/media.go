// Package media manages media records and the objects they point to.
package media

import "time"

// Type is the kind of media a record describes.
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Valid reports whether t is one of the allowed media types.
func (t Type) Valid() bool {
	return t == TypeImage || t == TypeVideo
}

// Media is a registered media file.
type Media struct {
	ID          int64     `json:"id"          example:"1"`
	Title       string    `json:"title"       example:"Sunset"`
	Description *string   `json:"description" example:"Taken from the pier"`
	FileURL     string    `json:"file_url"    example:"http://localhost:9000/media/uploads/sunset.png"`
	Type        Type      `json:"type"        example:"image"`
	Likes       int64     `json:"likes"       example:"0"`
	CreatedAt   time.Time `json:"created_at"  example:"2026-02-27T14:48:34Z"`
}

// CreateInput holds the fields of a new record.
type CreateInput struct {
	Title       string
	Description *string
	FileURL     string
	Type        Type
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	FileURL     *string
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.FileURL == nil
}

// PresignedUpload is handed to clients so they can upload directly to storage.
type PresignedUpload struct {
	UploadURL string `json:"uploadURL" example:"http://localhost:9000/media/uploads/sunset.png?X-Amz-Algorithm=..."`
	FileURL   string `json:"fileURL"   example:"http://localhost:9000/media/uploads/sunset.png"`
	ExpiresIn int64  `json:"expiresIn" example:"600"`
}
