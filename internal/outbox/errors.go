package outbox

import "fmt"

// ValidationError rejects a media send before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UploadError is a failure of the upload phase. No media id exists.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload media: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SendAfterUploadError is a failure of the send phase after the upload
// succeeded. MediaID names the orphaned upload; it is not retried or removed.
type SendAfterUploadError struct {
	MediaID string
	Err     error
}

func (e *SendAfterUploadError) Error() string {
	return fmt.Sprintf("send media %s (upload orphaned): %v", e.MediaID, e.Err)
}

func (e *SendAfterUploadError) Unwrap() error { return e.Err }
