package services

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheRefresher struct {
	analytics AnalyticsService
	tours     TourService
	redis     *redis.Client
}

func NewCacheRefresher(analytics AnalyticsService, tours TourService, redis *redis.Client) *CacheRefresher {
	return &CacheRefresher{
		analytics: analytics,
		tours:     tours,
		redis:     redis,
	}
}

func (cr *CacheRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute) // обновлять каждые 5 минут
	go func() {
		for {
			select {
			case <-ticker.C:
				log.Println("[CACHE] Refreshing all caches...")
				cr.refreshDashboardCache(ctx)
				cr.refreshToursCache(ctx)
			case <-ctx.Done():
				log.Println("[CACHE] Stopping cache refresher...")
				ticker.Stop()
				return
			}
		}
	}()
}

func (cr *CacheRefresher) refreshDashboardCache(ctx context.Context) {
	if err := cr.redis.Del(ctx, "stats:dashboard").Err(); err != nil {
		log.Printf("[CACHE] Failed to drop dashboard cache: %v", err)
	}
	if _, err := cr.analytics.GetDashboardStats(ctx); err != nil {
		log.Printf("[CACHE] Failed to refresh dashboard stats: %v", err)
		return
	}
	log.Println("[CACHE] Successfully refreshed dashboard stats cache.")
}

func (cr *CacheRefresher) refreshToursCache(ctx context.Context) {
	if err := cr.redis.Del(ctx, "active_tours").Err(); err != nil {
		log.Printf("[CACHE] Failed to drop tours cache: %v", err)
	}
	if _, err := cr.tours.GetActiveTours(ctx); err != nil {
		log.Printf("[CACHE] Failed to refresh active tours: %v", err)
		return
	}
	log.Println("[CACHE] Successfully refreshed active_tours cache.")
}
