package statistics

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/unreadapp/unread/app/models"
	"github.com/unreadapp/unread/internal/pkg/cache"
	"github.com/unreadapp/unread/internal/pkg/database"
)

const (
	CacheKeyEbooksTotal  = "statistics:ebooks:total"
	CacheKeyEbooksPublic = "statistics:ebooks:public"
	CacheKeyEbooksDaily  = "statistics:ebooks:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers        = "statistics:users:total"
	CacheExpiration      = 30 * time.Minute
)

// cachedCount reads a counter from cache, falling back to the database and
// refilling the cache on a miss
func cachedCount(key string, count func() (int64, error)) int {
	if val, err := cache.Get(key); err == nil {
		if parsed, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return int(parsed)
		}
	}

	n, err := count()
	if err != nil {
		log.Printf("Error counting for %s: %v", key, err)
		return 0
	}

	if err := cache.Set(key, strconv.FormatInt(n, 10), CacheExpiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return int(n)
}

// GetTotalEbooks returns the total number of ebooks
func GetTotalEbooks() int {
	return cachedCount(CacheKeyEbooksTotal, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Ebook{}).Count(&count).Error
		return count, err
	})
}

// GetPublicEbooks returns the number of public ebooks
func GetPublicEbooks() int {
	return cachedCount(CacheKeyEbooksPublic, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.Ebook{}).Where("is_public = ?", true).Count(&count).Error
		return count, err
	})
}

// GetTodayEbooks returns the number of ebooks uploaded today
func GetTodayEbooks() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyEbooksDaily, today)

	return cachedCount(dailyKey, func() (int64, error) {
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		var count int64
		err := database.GetDB().Model(&models.Ebook{}).
			Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error
		return count, err
	})
}

// GetTotalUsers returns the total number of users
func GetTotalUsers() int {
	return cachedCount(CacheKeyUsers, func() (int64, error) {
		var count int64
		err := database.GetDB().Model(&models.User{}).Count(&count).Error
		return count, err
	})
}
