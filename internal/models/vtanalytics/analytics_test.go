package vtanalytics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ============= Setup =============

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = testDB.AutoMigrate(&VisitorStat{})
	require.NoError(t, err)

	return testDB
}

func setupTestService(t *testing.T) *AnalyticsService {
	return &AnalyticsService{db: setupTestDB(t)}
}

// ============= Normalisation et détection =============

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, "home", NormalizePage(""))
	assert.Equal(t, "home", NormalizePage("/"))
	assert.Equal(t, "services", NormalizePage("/services"))
	assert.Equal(t, "services", NormalizePage("/services/"))
	assert.Equal(t, "services", NormalizePage("/services/web-design"))
	assert.Equal(t, "contact", NormalizePage("/contact?utm_source=mail"))
	assert.Equal(t, "about", NormalizePage("/about#team"))
}

func TestDetectDevice(t *testing.T) {
	assert.Equal(t, "desktop", DetectDevice(""))
	assert.Equal(t, "desktop", DetectDevice("Mozilla/5.0 (Windows NT 10.0; Win64; x64)"))
	assert.Equal(t, "mobile", DetectDevice("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"))
	assert.Equal(t, "mobile", DetectDevice("Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile"))
	// Les tablettes sont détectées avant le mobile générique
	assert.Equal(t, "tablet", DetectDevice("Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)"))
}

func TestDetectBrowser(t *testing.T) {
	assert.Equal(t, "Firefox", DetectBrowser("Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"))
	assert.Equal(t, "Chrome", DetectBrowser("Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"))
	assert.Equal(t, "Safari", DetectBrowser("Mozilla/5.0 (Macintosh) AppleWebKit/605.1.15 Version/17.4 Safari/605.1.15"))
	// Edge et Opera embarquent "chrome" : rangés dans Other avant le test Chrome
	assert.Equal(t, "Other", DetectBrowser("Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/126.0 Safari/537.36 Edg/126.0"))
	assert.Equal(t, "Other", DetectBrowser("Mozilla/5.0 (X11; Linux) AppleWebKit/537.36 Chrome/126.0 Safari/537.36 OPR/110.0"))
	assert.Equal(t, "Other", DetectBrowser(""))
	assert.Equal(t, "Other", DetectBrowser("curl/8.5.0"))
}

// ============= Enregistrement des visites =============

func TestRecordVisitCreate(t *testing.T) {
	as := setupTestService(t)

	id, err := as.RecordVisit("/services", "visitor-1", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1", "203.0.113.7")
	require.NoError(t, err)
	assert.NotZero(t, id)

	var stat VisitorStat
	require.NoError(t, as.db.First(&stat, "visitor_id = ?", "visitor-1").Error)
	assert.Equal(t, 1, stat.ServicesVisits)
	assert.Equal(t, 0, stat.HomeVisits)
	assert.Equal(t, "mobile", stat.DeviceType)
	assert.Equal(t, "Safari", stat.Browser)
}

func TestRecordVisitIncrement(t *testing.T) {
	as := setupTestService(t)

	_, err := as.RecordVisit("/", "visitor-1", "", "")
	require.NoError(t, err)
	_, err = as.RecordVisit("/", "visitor-1", "", "")
	require.NoError(t, err)
	_, err = as.RecordVisit("/contact", "visitor-1", "", "")
	require.NoError(t, err)

	var stat VisitorStat
	require.NoError(t, as.db.First(&stat, "visitor_id = ?", "visitor-1").Error)
	assert.Equal(t, 2, stat.HomeVisits)
	assert.Equal(t, 1, stat.ContactVisits)
	assert.Equal(t, 3, stat.TotalVisits())

	var count int64
	as.db.Model(&VisitorStat{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	// Messages bruts des drivers, non traduits en ErrDuplicatedKey
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: user_analytics.visitor_id")))
	assert.True(t, isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'visitor-1' for key 'visitor_id'")))
	assert.False(t, isDuplicateKey(errors.New("database is locked")))
}

func TestRecordVisitConcurrentCreate(t *testing.T) {
	// SkipDefaultTransaction : la ligne insérée par l'onglet concurrent
	// doit survivre à l'échec du Create qui suit
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&VisitorStat{}))

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	as := &AnalyticsService{db: testDB}

	// Un second onglet crée la ligne entre la lecture initiale et le
	// Create : on l'injecte juste avant l'insertion
	raced := false
	err = testDB.Callback().Create().Before("gorm:create").Register("test:onglet_concurrent", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		now := time.Now()
		require.NoError(t, testDB.Exec(
			"INSERT INTO user_analytics (visitor_id, home_visits, first_visit, last_visit, updated_at) VALUES (?, 1, ?, ?, ?)",
			"visitor-1", now, now, now,
		).Error)
	})
	require.NoError(t, err)

	id, err := as.RecordVisit("/", "visitor-1", "", "")
	require.NoError(t, err)
	assert.True(t, raced)
	assert.NotZero(t, id)

	// La relecture a repris la ligne existante et incrémenté son compteur
	var stat VisitorStat
	require.NoError(t, testDB.First(&stat, "visitor_id = ?", "visitor-1").Error)
	assert.Equal(t, 2, stat.HomeVisits)
	assert.Equal(t, stat.ID, id)

	var count int64
	testDB.Model(&VisitorStat{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordVisitUnknownPage(t *testing.T) {
	as := setupTestService(t)

	// Une page inconnue est imputée à l'accueil
	_, err := as.RecordVisit("/blog/some-post", "visitor-1", "", "")
	require.NoError(t, err)

	var stat VisitorStat
	require.NoError(t, as.db.First(&stat, "visitor_id = ?", "visitor-1").Error)
	assert.Equal(t, 1, stat.HomeVisits)
}

func TestRecordTimeSpent(t *testing.T) {
	as := setupTestService(t)

	_, err := as.RecordVisit("/", "visitor-1", "", "")
	require.NoError(t, err)

	require.NoError(t, as.RecordTimeSpent("visitor-1", 42))
	require.NoError(t, as.RecordTimeSpent("visitor-1", 18))
	require.NoError(t, as.RecordTimeSpent("visitor-1", 0))
	require.NoError(t, as.RecordTimeSpent("visitor-1", -5))

	var stat VisitorStat
	require.NoError(t, as.db.First(&stat, "visitor_id = ?", "visitor-1").Error)
	assert.Equal(t, 60, stat.TotalTimeSpent)
}

// ============= Agrégation =============

func TestBuildSummaryEmpty(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	s := buildSummary(nil, now)

	assert.Equal(t, 0, s.UniqueVisitors)
	assert.Equal(t, 0, s.TotalVisits)
	assert.Equal(t, 0, s.AvgTimeSpent)
	assert.Len(t, s.MonthlySeries, 30)
	assert.Len(t, s.HourlySeries, 24)
}

func TestBuildSummaryTotals(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	stats := []VisitorStat{
		{VisitorID: "a", HomeVisits: 3, ServicesVisits: 1, DeviceType: "mobile", Browser: "Chrome", Country: "FR", TotalTimeSpent: 120, LastVisit: now.Add(-time.Hour)},
		{VisitorID: "b", HomeVisits: 1, DeviceType: "tablet", Browser: "Safari", Country: "FR", TotalTimeSpent: 30, LastVisit: now.AddDate(0, 0, -1)},
		{VisitorID: "c", ContactVisits: 2, DeviceType: "desktop", Browser: "Firefox", Country: "BE", TotalTimeSpent: 31, LastVisit: now.AddDate(0, 0, -5)},
		{VisitorID: "d", HomeVisits: 1, LastVisit: now.AddDate(0, 0, -40)},
	}

	s := buildSummary(stats, now)

	assert.Equal(t, 4, s.UniqueVisitors)
	assert.Equal(t, 8, s.TotalVisits)
	assert.Equal(t, 1, s.TodayVisits)
	// Tablette comptée mobile, device vide compté desktop
	assert.Equal(t, 2, s.MobileVisits)
	assert.Equal(t, 2, s.DesktopVisits)
	// (120+30+31+0)/4 = 45.25, arrondi à 45
	assert.Equal(t, 45, s.AvgTimeSpent)
}

func TestBuildSummaryPageViewsSorted(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	stats := []VisitorStat{
		{VisitorID: "a", HomeVisits: 1, ServicesVisits: 5, ContactVisits: 2, LastVisit: now},
	}

	s := buildSummary(stats, now)

	require.NotEmpty(t, s.PageViews)
	assert.Equal(t, "services", s.PageViews[0].Page)
	assert.Equal(t, 5, s.PageViews[0].Views)
	for i := 1; i < len(s.PageViews); i++ {
		assert.GreaterOrEqual(t, s.PageViews[i-1].Views, s.PageViews[i].Views)
		assert.Equal(t, 0, s.PageViews[i].AvgTime)
	}
}

func TestBuildSummaryBrowserAndCountry(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	stats := []VisitorStat{
		{VisitorID: "a", Browser: "Chrome", Country: "FR", LastVisit: now},
		{VisitorID: "b", Browser: "Chrome", Country: "FR", LastVisit: now},
		{VisitorID: "c", Browser: "", Country: "", LastVisit: now},
	}

	s := buildSummary(stats, now)

	require.Len(t, s.BrowserStats, 2)
	assert.Equal(t, BrowserStat{Browser: "Chrome", Count: 2}, s.BrowserStats[0])
	assert.Equal(t, BrowserStat{Browser: "Other", Count: 1}, s.BrowserStats[1])

	// Le pays vide n'est pas compté
	require.Len(t, s.CountryStats, 1)
	assert.Equal(t, CountryStat{Country: "FR", Count: 2}, s.CountryStats[0])
}

func TestBuildSummaryMonthlySeries(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	stats := []VisitorStat{
		// Visiteur revenu aujourd'hui : compté uniquement sur sa dernière visite
		{VisitorID: "a", HomeVisits: 10, LastVisit: now},
		{VisitorID: "b", HomeVisits: 1, LastVisit: now.AddDate(0, 0, -29)},
		{VisitorID: "c", HomeVisits: 1, LastVisit: now.AddDate(0, 0, -30)},
	}

	s := buildSummary(stats, now)

	require.Len(t, s.MonthlySeries, 30)
	assert.Equal(t, "2026-02-14", s.MonthlySeries[0].Date)
	assert.Equal(t, 1, s.MonthlySeries[0].Visits)
	assert.Equal(t, "2026-03-15", s.MonthlySeries[29].Date)
	assert.Equal(t, 1, s.MonthlySeries[29].Visits)

	total := 0
	for _, p := range s.MonthlySeries {
		total += p.Visits
	}
	// Le visiteur hors fenêtre de 30 jours n'apparaît pas
	assert.Equal(t, 2, total)
}

func TestBuildSummaryHourlySeries(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	stats := []VisitorStat{
		{VisitorID: "a", LastVisit: time.Date(2026, 3, 15, 9, 5, 0, 0, time.UTC)},
		{VisitorID: "b", LastVisit: time.Date(2026, 3, 15, 9, 45, 0, 0, time.UTC)},
		{VisitorID: "c", LastVisit: time.Date(2026, 3, 14, 9, 10, 0, 0, time.UTC)},
		{VisitorID: "d", LastVisit: time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)},
	}

	s := buildSummary(stats, now)

	require.Len(t, s.HourlySeries, 24)
	assert.Equal(t, 2, s.HourlySeries[9].Today)
	assert.Equal(t, 1, s.HourlySeries[9].Yesterday)
	assert.Equal(t, 1, s.HourlySeries[23].Yesterday)
	for _, h := range s.HourlySeries {
		assert.Equal(t, h.Hour == 14, h.Current)
	}
}

func TestComputeSummaryFromDB(t *testing.T) {
	as := setupTestService(t)

	_, err := as.RecordVisit("/services", "visitor-1", "Mozilla/5.0 (iPhone) Mobile", "")
	require.NoError(t, err)
	_, err = as.RecordVisit("/", "visitor-2", "Mozilla/5.0 (Windows NT 10.0) Chrome/126.0 Safari/537.36", "")
	require.NoError(t, err)

	s, err := as.ComputeSummary()
	require.NoError(t, err)
	assert.Equal(t, 2, s.UniqueVisitors)
	assert.Equal(t, 2, s.TotalVisits)
	assert.Equal(t, 2, s.TodayVisits)
	assert.Equal(t, 1, s.MobileVisits)
	assert.Equal(t, 1, s.DesktopVisits)
}
