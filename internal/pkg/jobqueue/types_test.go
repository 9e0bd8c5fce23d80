package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverThumbnailJobPayloadRoundTrip(t *testing.T) {
	payload := CoverThumbnailJobPayload{
		EbookID:   42,
		EbookUUID: "8d4f2f6e-9f0a-4a8e-b9a1-1234567890ab",
		CoverKey:  "covers/8d4f2f6e-9f0a-4a8e-b9a1-1234567890ab.jpg",
	}

	parsed, err := CoverThumbnailJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *parsed)
}

func TestStorageDeleteJobPayloadRoundTrip(t *testing.T) {
	payload := StorageDeleteJobPayload{
		EbookUUID:  "8d4f2f6e-9f0a-4a8e-b9a1-1234567890ab",
		ObjectKeys: []string{"ebooks/2026/08/x.epub", "covers/x.jpg", "covers/thumb/x.jpg"},
	}

	parsed, err := StorageDeleteJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *parsed)
}

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeCoverThumbnail,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("boom")
	job.MarkAsFailed("boom")
	assert.Equal(t, DefaultMaxRetries, job.RetryCount)
	assert.False(t, job.IsRetryable())

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
	assert.False(t, job.IsRetryable())
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "job:", JobKeyPrefix)
	assert.Equal(t, "job_queue", JobQueueKey)
	assert.Equal(t, "job_processing", JobProcessingKey)
	assert.Equal(t, "job_stats", JobStatsKey)
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}
