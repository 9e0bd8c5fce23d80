package jobqueue

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/unreadapp/unread/internal/pkg/storage"
)

// processStorageDeleteJob removes all object keys that belonged to a deleted
// ebook. Partial failures are retried as a whole; Delete is idempotent so
// already removed keys do not hurt.
func (q *Queue) processStorageDeleteJob(ctx context.Context, job *Job) error {
	payload, err := StorageDeleteJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse storage delete payload: %w", err)
	}

	client := storage.GetClient()

	var failed []string
	for _, key := range payload.ObjectKeys {
		if key == "" {
			continue
		}
		if err := client.Delete(ctx, key); err != nil {
			log.Errorf("[JobQueue] Failed to delete object %s: %v", key, err)
			failed = append(failed, key)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to delete objects for %s: %s", payload.EbookUUID, strings.Join(failed, ", "))
	}

	log.Infof("[JobQueue] Deleted %d objects for ebook %s", len(payload.ObjectKeys), payload.EbookUUID)
	return nil
}
