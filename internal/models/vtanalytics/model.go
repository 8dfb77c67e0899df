package vtanalytics

import (
	"strings"
	"time"
)

// VisitorStat est la ligne de compteurs agrégés d'un visiteur :
// une ligne unique par visitor_id, un compteur par page connue.
// Les compteurs ne décroissent jamais et la ligne n'est jamais supprimée.
type VisitorStat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VisitorID      string    `gorm:"uniqueIndex;not null" json:"visitor_id"`
	HomeVisits     int       `gorm:"default:0" json:"home_visits"`
	ServicesVisits int       `gorm:"default:0" json:"services_visits"`
	ContactVisits  int       `gorm:"default:0" json:"contact_visits"`
	AboutVisits    int       `gorm:"default:0" json:"about_visits"`
	ProductsVisits int       `gorm:"default:0" json:"products_visits"`
	ProjectsVisits int       `gorm:"default:0" json:"projects_visits"`
	AdminVisits    int       `gorm:"default:0" json:"admin_visits"`
	DeviceType     string    `json:"device_type"`
	Browser        string    `json:"browser"`
	Country        string    `json:"country"`
	TotalTimeSpent int       `gorm:"default:0" json:"total_time_spent"`
	FirstVisit     time.Time `json:"first_visit"`
	LastVisit      time.Time `gorm:"index" json:"last_visit"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName spécifie le nom de la table pour VisitorStat
func (VisitorStat) TableName() string {
	return "user_analytics"
}

// Pages connues et leur colonne de compteur associée
var pageColumns = map[string]string{
	"home":     "home_visits",
	"services": "services_visits",
	"contact":  "contact_visits",
	"about":    "about_visits",
	"products": "products_visits",
	"projects": "projects_visits",
	"admin":    "admin_visits",
}

// Counter retourne la valeur du compteur d'une page connue
func (v *VisitorStat) Counter(page string) int {
	switch page {
	case "home":
		return v.HomeVisits
	case "services":
		return v.ServicesVisits
	case "contact":
		return v.ContactVisits
	case "about":
		return v.AboutVisits
	case "products":
		return v.ProductsVisits
	case "projects":
		return v.ProjectsVisits
	case "admin":
		return v.AdminVisits
	}
	return 0
}

// TotalVisits retourne la somme de tous les compteurs de pages de la ligne
func (v *VisitorStat) TotalVisits() int {
	return v.HomeVisits + v.ServicesVisits + v.ContactVisits + v.AboutVisits +
		v.ProductsVisits + v.ProjectsVisits + v.AdminVisits
}

// NormalizePage réduit un chemin de page en nom de page.
// Le chemin vide ou "/" désigne l'accueil.
func NormalizePage(pagePath string) string {
	page := strings.ToLower(strings.Trim(pagePath, "/"))
	if i := strings.IndexAny(page, "?#"); i != -1 {
		page = page[:i]
	}
	if page == "" {
		return "home"
	}
	// On ne garde que le premier segment (/services/seo -> services)
	if i := strings.Index(page, "/"); i != -1 {
		page = page[:i]
	}
	return page
}

// DetectDevice classe grossièrement un User-Agent en mobile, tablet ou desktop
func DetectDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)

	// Les tablettes d'abord : leur UA contient souvent aussi "mobile"
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return "tablet"
	}

	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") ||
		strings.Contains(ua, "iphone") || strings.Contains(ua, "ipod") ||
		strings.Contains(ua, "windows phone") {
		return "mobile"
	}

	return "desktop"
}

// DetectBrowser classe grossièrement un User-Agent en Chrome, Firefox, Safari ou Other
func DetectBrowser(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "firefox") || strings.Contains(ua, "fxios"):
		return "Firefox"
	case strings.Contains(ua, "edg") || strings.Contains(ua, "opr") || strings.Contains(ua, "opera"):
		// Navigateurs basés Chromium mais pas Chrome
		return "Other"
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios") || strings.Contains(ua, "chromium"):
		return "Chrome"
	case strings.Contains(ua, "safari"):
		return "Safari"
	}

	return "Other"
}
