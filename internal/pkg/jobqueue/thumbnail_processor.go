package jobqueue

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/internal/pkg/covers"
	"github.com/unreadapp/unread/internal/pkg/database"
	"github.com/unreadapp/unread/internal/pkg/storage"
)

// processCoverThumbnailJob downloads the original cover, renders a thumbnail
// and stores it next to the cover. The ebook row is updated with the
// thumbnail key once the upload succeeds.
func (q *Queue) processCoverThumbnailJob(ctx context.Context, job *Job) error {
	payload, err := CoverThumbnailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse cover thumbnail payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var ebook models.Ebook
	if err := db.Where("uuid = ?", payload.EbookUUID).First(&ebook).Error; err != nil {
		return fmt.Errorf("failed to find ebook %s: %w", payload.EbookUUID, err)
	}

	if ebook.CoverKey != payload.CoverKey {
		// Cover was replaced after the job was enqueued, skip silently
		log.Infof("[JobQueue] Cover for %s changed since enqueue, skipping thumbnail", payload.EbookUUID)
		return nil
	}

	client := storage.GetClient()

	original, err := client.Download(ctx, payload.CoverKey)
	if err != nil {
		return fmt.Errorf("failed to download cover %s: %w", payload.CoverKey, err)
	}
	defer original.Close()

	thumb, err := covers.Thumbnail(original)
	if err != nil {
		return fmt.Errorf("failed to render thumbnail for %s: %w", payload.EbookUUID, err)
	}

	thumbKey := storage.CoverThumbKey(payload.EbookUUID)
	if err := client.Upload(ctx, thumbKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		return fmt.Errorf("failed to upload thumbnail %s: %w", thumbKey, err)
	}

	if err := db.Model(&ebook).UpdateColumn("cover_thumb_key", thumbKey).Error; err != nil {
		return fmt.Errorf("failed to store thumbnail key for %s: %w", payload.EbookUUID, err)
	}

	log.Infof("[JobQueue] Cover thumbnail created for %s", payload.EbookUUID)
	return nil
}
