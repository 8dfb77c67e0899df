package vtanalytics

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	geoip2 "github.com/oschwald/geoip2-golang/v2"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AnalyticsService porte l'enregistrement des visites et l'agrégation
// des statistiques du tableau de bord.
type AnalyticsService struct {
	db    *gorm.DB
	redis *redis.Client
	geoip *geoip2.Reader
	cron  *cron.Cron
}

func NewAnalyticsService(db *gorm.DB, redisClient *redis.Client, geoipPath string) *AnalyticsService {
	var reader *geoip2.Reader
	if geoipPath != "" {
		var err error
		reader, err = geoip2.Open(geoipPath)
		if err != nil {
			// La géolocalisation est optionnelle : on continue sans pays
			log.Warn().Err(err).Str("path", geoipPath).Msg("GeoIP indisponible")
			reader = nil
		}
	}

	return &AnalyticsService{
		db:    db,
		redis: redisClient,
		geoip: reader,
		cron:  setupDailyReportCron(db),
	}
}

// Country résout le code pays ISO d'une IP, "" si la base GeoIP est absente
func (as *AnalyticsService) Country(ip string) string {
	if as.geoip == nil {
		return ""
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}

	record, err := as.geoip.City(addr)
	if err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// GetRealtimeStats récupère les compteurs du jour depuis Redis (optionnel)
func (as *AnalyticsService) GetRealtimeStats() (map[string]interface{}, error) {
	if as.redis == nil {
		return map[string]interface{}{
			"today_page_views":      int64(0),
			"today_unique_visitors": int64(0),
		}, nil
	}

	ctx := context.Background()
	today := time.Now().Format("2006-01-02")

	cacheKey := fmt.Sprintf("analytics:daily:%s", today)
	pageViews, err := as.redis.HGet(ctx, cacheKey, "page_views").Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	visitorKey := fmt.Sprintf("analytics:visitors:%s", today)
	uniqueVisitors, err := as.redis.SCard(ctx, visitorKey).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	return map[string]interface{}{
		"today_page_views":      pageViews,
		"today_unique_visitors": uniqueVisitors,
	}, nil
}

// bumpRealtimeCounters met à jour les compteurs Redis du jour (cache 31 jours)
func (as *AnalyticsService) bumpRealtimeCounters(visitorID string) {
	if as.redis == nil {
		return
	}

	ctx := context.Background()
	now := time.Now()

	cacheKey := fmt.Sprintf("analytics:daily:%s", now.Format("2006-01-02"))
	as.redis.HIncrBy(ctx, cacheKey, "page_views", 1)
	as.redis.Expire(ctx, cacheKey, 31*24*time.Hour)

	visitorKey := fmt.Sprintf("analytics:visitors:%s", now.Format("2006-01-02"))
	as.redis.SAdd(ctx, visitorKey, visitorID)
	as.redis.Expire(ctx, visitorKey, 31*24*time.Hour)
}

// logDailyReport écrit dans le log les totaux de la veille.
// Les lignes de user_analytics ne sont jamais purgées : pas de rétention.
func logDailyReport(db *gorm.DB) error {
	yesterday := time.Now().AddDate(0, 0, -1)
	start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
	end := start.AddDate(0, 0, 1)

	var visitors int64
	err := db.Model(&VisitorStat{}).
		Where("last_visit >= ? AND last_visit < ?", start, end).
		Count(&visitors).Error
	if err != nil {
		return err
	}

	log.Info().
		Str("date", start.Format("2006-01-02")).
		Int64("visitors", visitors).
		Msg("Rapport journalier des visites")

	return nil
}

func setupDailyReportCron(db *gorm.DB) *cron.Cron {
	c := cron.New()

	// Exécuter tous les jours à 2h du matin
	c.AddFunc("0 2 * * *", func() {
		if err := logDailyReport(db); err != nil {
			log.Error().Err(err).Msg("Rapport journalier échoué")
		}
	})

	c.Start()
	return c
}
