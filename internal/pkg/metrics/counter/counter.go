package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/unreadapp/unread/internal/pkg/cache"
	"github.com/unreadapp/unread/internal/pkg/database"
)

const (
	ebookViewsKey     = "ebook:counters:views"
	ebookDownloadsKey = "ebook:counters:downloads"
)

// AddEbookView increments the pending view counter for an ebook in Redis
func AddEbookView(ebookID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(ebookID), 10)
	return cache.GetClient().HIncrBy(ctx, ebookViewsKey, field, 1).Err()
}

// AddEbookDownload increments the pending download counter for an ebook in Redis
func AddEbookDownload(ebookID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(ebookID), 10)
	return cache.GetClient().HIncrBy(ctx, ebookDownloadsKey, field, 1).Err()
}

// FlushAll flushes both view and download counters to the database
func FlushAll() error {
	if err := flushHashToTable(ebookViewsKey, "ebooks", "view_count"); err != nil {
		return err
	}
	if err := flushHashToTable(ebookDownloadsKey, "ebooks", "download_count"); err != nil {
		return err
	}
	return nil
}

// flushHashToTable drains a Redis hash atomically and applies batched increments
// to the target table. Uses RENAME to a temporary key so in-flight increments
// are never lost.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// Missing key means nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	return db.Exec(builder.String(), args...).Error
}
