package domain

import "time"

// StorageStrategy names the backend that holds a document's bytes.
type StorageStrategy string

const (
	StorageDisk       StorageStrategy = "disk"
	StorageMemory     StorageStrategy = "memory"
	StorageCloudinary StorageStrategy = "cloudinary"
)

func (s StorageStrategy) Valid() bool {
	switch s {
	case StorageDisk, StorageMemory, StorageCloudinary:
		return true
	}
	return false
}

// StorageRef points at stored file bytes. Strategy is persisted with the
// record so references written under a previous strategy stay readable.
type StorageRef struct {
	Strategy StorageStrategy `json:"strategy"`
	Location string          `json:"location"`
	// ExternalID is the backend's own handle (e.g. a Cloudinary public id).
	ExternalID string `json:"external_id,omitempty"`
}

// Document is an uploaded file exchanged between an admin and a client.
type Document struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	FileName    string     `json:"file_name"`
	FileType    string     `json:"file_type"`
	Size        int64      `json:"size"`
	ClientID    string     `json:"client_id"`
	UploadedBy  string     `json:"uploaded_by"`
	TaskID      string     `json:"task_id,omitempty"`
	Storage     StorageRef `json:"storage"`
	CreatedAt   time.Time  `json:"created_at"`
}
