package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIngestJob(t *testing.T) {
	now := time.Now()
	job := NewIngestJob("job1", "item1", IngestJobStatusPending, now)

	assert.Equal(t, "job1", job.ID)
	assert.Equal(t, "item1", job.ItemID)
	assert.Equal(t, IngestJobStatusPending, job.Status)
	assert.Equal(t, int32(0), job.Retries)
	assert.Empty(t, job.Error)
	assert.Equal(t, now, job.CreatedAt)
	assert.Nil(t, job.ProcessedAt)
}

func TestValidateIngestJob(t *testing.T) {
	now := time.Now()

	t.Run("valid job", func(t *testing.T) {
		job := NewIngestJob("job1", "item1", IngestJobStatusPending, now)
		assert.NoError(t, ValidateIngestJob(job))
	})

	t.Run("nil job", func(t *testing.T) {
		assert.Error(t, ValidateIngestJob(nil))
	})

	t.Run("missing item id", func(t *testing.T) {
		job := NewIngestJob("job1", "", IngestJobStatusPending, now)
		assert.Error(t, ValidateIngestJob(job))
	})

	t.Run("invalid status", func(t *testing.T) {
		job := NewIngestJob("job1", "item1", "queued", now)
		assert.Error(t, ValidateIngestJob(job))
	})

	t.Run("negative retries", func(t *testing.T) {
		job := NewIngestJob("job1", "item1", IngestJobStatusPending, now)
		job.Retries = -1
		assert.Error(t, ValidateIngestJob(job))
	})
}

func TestDomainError(t *testing.T) {
	t.Run("error without cause", func(t *testing.T) {
		err := NewDomainError(ErrCodeNotFound, "knowledge item not found")
		assert.Equal(t, "[NOT_FOUND] knowledge item not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error with cause", func(t *testing.T) {
		cause := assert.AnError
		err := NewDomainErrorWithCause(ErrCodeStoreUnavailable, "query failed", cause)
		assert.Contains(t, err.Error(), "STORE_UNAVAILABLE")
		assert.ErrorIs(t, err, cause)
	})
}
