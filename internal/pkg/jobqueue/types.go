package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeCoverThumbnail JobType = "cover_thumbnail"
	JobTypeStorageDelete  JobType = "storage_delete"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// CoverThumbnailJobPayload contains the payload for cover thumbnail jobs
type CoverThumbnailJobPayload struct {
	EbookID   uint   `json:"ebook_id"`
	EbookUUID string `json:"ebook_uuid"`
	CoverKey  string `json:"cover_key"`
}

// ToMap converts the payload to a map for storage
func (p CoverThumbnailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"ebook_id":   p.EbookID,
		"ebook_uuid": p.EbookUUID,
		"cover_key":  p.CoverKey,
	}
}

// CoverThumbnailJobPayloadFromMap creates a payload from a map
func CoverThumbnailJobPayloadFromMap(data map[string]interface{}) (*CoverThumbnailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload CoverThumbnailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// StorageDeleteJobPayload contains the payload for object deletion jobs.
// ObjectKeys lists everything that belonged to the deleted ebook.
type StorageDeleteJobPayload struct {
	EbookUUID  string   `json:"ebook_uuid"`
	ObjectKeys []string `json:"object_keys"`
}

// ToMap converts the payload to a map for storage
func (p StorageDeleteJobPayload) ToMap() map[string]interface{} {
	keys := make([]interface{}, len(p.ObjectKeys))
	for i, k := range p.ObjectKeys {
		keys[i] = k
	}
	return map[string]interface{}{
		"ebook_uuid":  p.EbookUUID,
		"object_keys": keys,
	}
}

// StorageDeleteJobPayloadFromMap creates a payload from a map
func StorageDeleteJobPayloadFromMap(data map[string]interface{}) (*StorageDeleteJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload StorageDeleteJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
