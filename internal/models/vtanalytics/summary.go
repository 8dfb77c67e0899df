package vtanalytics

import (
	"fmt"
	"sort"
	"time"
)

// Au delà de ce nombre de lignes, les totaux deviennent une approximation :
// on ne lit que les visiteurs les plus récents
const maxSummaryRows = 1000

// Summary regroupe toutes les statistiques dérivées du tableau de bord
type Summary struct {
	UniqueVisitors int            `json:"unique_visitors"`
	TotalVisits    int            `json:"total_visits"`
	TodayVisits    int            `json:"today_visits"`
	MobileVisits   int            `json:"mobile_visits"`
	DesktopVisits  int            `json:"desktop_visits"`
	AvgTimeSpent   int            `json:"avg_time_spent"` // secondes
	PageViews      []PageViewStat `json:"page_views"`
	BrowserStats   []BrowserStat  `json:"browser_stats"`
	CountryStats   []CountryStat  `json:"country_stats"`
	MonthlySeries  []DailyPoint   `json:"monthly_series"`
	HourlySeries   []HourlyPoint  `json:"hourly_series"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

type PageViewStat struct {
	Page  string `json:"page"`
	Views int    `json:"views"`
	// Jamais calculé par l'ancien site, conservé à 0 pour le front
	AvgTime int `json:"avg_time"`
}

type BrowserStat struct {
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}

type CountryStat struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type DailyPoint struct {
	Date   string `json:"date"`
	Visits int    `json:"visits"`
}

type HourlyPoint struct {
	Hour      int  `json:"hour"`
	Today     int  `json:"today"`
	Yesterday int  `json:"yesterday"`
	Current   bool `json:"current"`
}

// ComputeSummary relit les lignes de compteurs et dérive toutes les
// statistiques en mémoire, comme le faisait le tableau de bord d'origine
func (as *AnalyticsService) ComputeSummary() (*Summary, error) {
	var stats []VisitorStat
	err := as.db.Order("last_visit desc").Limit(maxSummaryRows).Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching visitor stats: %w", err)
	}

	return buildSummary(stats, time.Now()), nil
}

// buildSummary est séparé de la lecture pour être testable avec une horloge fixe
func buildSummary(stats []VisitorStat, now time.Time) *Summary {
	summary := &Summary{
		UniqueVisitors: len(stats),
		GeneratedAt:    now,
	}

	today := dateOf(now)
	yesterday := dateOf(now.AddDate(0, 0, -1))

	pageTotals := make(map[string]int, len(pageColumns))
	browsers := make(map[string]int)
	countries := make(map[string]int)
	daily := make(map[string]int)
	var hourlyToday, hourlyYesterday [24]int
	totalTime := 0

	for i := range stats {
		row := &stats[i]

		summary.TotalVisits += row.TotalVisits()
		totalTime += row.TotalTimeSpent

		lastDate := dateOf(row.LastVisit)
		if lastDate == today {
			summary.TodayVisits++
			hourlyToday[row.LastVisit.Hour()]++
		} else if lastDate == yesterday {
			hourlyYesterday[row.LastVisit.Hour()]++
		}
		daily[lastDate]++

		// Tablettes comptées côté mobile, inconnu côté desktop
		switch row.DeviceType {
		case "mobile", "tablet":
			summary.MobileVisits++
		}

		browser := row.Browser
		if browser == "" {
			browser = "Other"
		}
		browsers[browser]++

		if row.Country != "" {
			countries[row.Country]++
		}

		for page := range pageColumns {
			pageTotals[page] += row.Counter(page)
		}
	}

	summary.DesktopVisits = summary.UniqueVisitors - summary.MobileVisits

	// Moyenne entière, 0 sans visiteur
	if summary.UniqueVisitors > 0 {
		summary.AvgTimeSpent = int(float64(totalTime)/float64(summary.UniqueVisitors) + 0.5)
	}

	summary.PageViews = make([]PageViewStat, 0, len(pageTotals))
	for page, views := range pageTotals {
		summary.PageViews = append(summary.PageViews, PageViewStat{Page: page, Views: views})
	}
	sort.Slice(summary.PageViews, func(i, j int) bool {
		return summary.PageViews[i].Views > summary.PageViews[j].Views
	})

	summary.BrowserStats = make([]BrowserStat, 0, len(browsers))
	for browser, count := range browsers {
		summary.BrowserStats = append(summary.BrowserStats, BrowserStat{Browser: browser, Count: count})
	}
	sort.Slice(summary.BrowserStats, func(i, j int) bool {
		return summary.BrowserStats[i].Count > summary.BrowserStats[j].Count
	})

	summary.CountryStats = make([]CountryStat, 0, len(countries))
	for country, count := range countries {
		summary.CountryStats = append(summary.CountryStats, CountryStat{Country: country, Count: count})
	}
	sort.Slice(summary.CountryStats, func(i, j int) bool {
		return summary.CountryStats[i].Count > summary.CountryStats[j].Count
	})

	// Série des 30 derniers jours, du plus ancien au plus récent.
	// Un visiteur n'est compté que le jour de sa dernière visite :
	// simplification assumée de l'ancien site, à conserver telle quelle
	summary.MonthlySeries = make([]DailyPoint, 0, 30)
	for i := 29; i >= 0; i-- {
		date := dateOf(now.AddDate(0, 0, -i))
		summary.MonthlySeries = append(summary.MonthlySeries, DailyPoint{
			Date:   date,
			Visits: daily[date],
		})
	}

	// Comparaison horaire aujourd'hui / hier, heure courante marquée
	currentHour := now.Hour()
	summary.HourlySeries = make([]HourlyPoint, 0, 24)
	for hour := 0; hour < 24; hour++ {
		summary.HourlySeries = append(summary.HourlySeries, HourlyPoint{
			Hour:      hour,
			Today:     hourlyToday[hour],
			Yesterday: hourlyYesterday[hour],
			Current:   hour == currentHour,
		})
	}

	return summary
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
