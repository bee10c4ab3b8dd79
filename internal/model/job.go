package model

const (
	QueueFile = "fileQueue"
	QueueUser = "userQueue"
)

// ThumbnailJob asks the worker to derive resized copies of an image.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// WelcomeJob is enqueued once a user registers.
type WelcomeJob struct {
	UserID string `json:"userId"`
}
