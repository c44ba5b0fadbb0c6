package media

import "errors"

// ErrNotFound is returned when no media record matches the id.
var ErrNotFound = errors.New("media not found")

// ErrValidation is wrapped by every input rejection.
var ErrValidation = errors.New("invalid input")

// ErrNoLikes is returned when unliking a record whose counter is already zero.
var ErrNoLikes = errors.New("cannot unlike media with zero likes")

// ErrDataIntegrity is returned when a record's file_url cannot be mapped back
// to an object key. The record is left in place.
var ErrDataIntegrity = errors.New("media file url does not match the storage bucket")
