package vtanalytics

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RecordVisit incrémente le compteur de la page visitée pour un visiteur,
// en créant sa ligne de compteurs au premier passage.
// Retourne l'id de la ligne, ou 0 avec une erreur si l'écriture a échoué :
// une visite perdue n'est pas fatale, l'appelant se contente de loguer.
func (as *AnalyticsService) RecordVisit(pagePath, visitorID, userAgent, ip string) (uint, error) {
	page := NormalizePage(pagePath)
	column, known := pageColumns[page]
	if !known {
		// Chemin inconnu : on l'impute à l'accueil, comme le faisait
		// l'ancien site, mais en le signalant au lieu de le taire
		log.Warn().Str("page", pagePath).Msg("Page inconnue, visite imputée à l'accueil")
		page = "home"
		column = pageColumns[page]
	}

	rowID, err := as.recordVisit(column, visitorID, userAgent, ip)
	if err != nil {
		log.Error().Err(err).Str("page", page).Str("visitor", visitorID).Msg("Erreur enregistrement visite")
		return 0, err
	}

	as.bumpRealtimeCounters(visitorID)
	pageVisitsTotal.WithLabelValues(page).Inc()

	return rowID, nil
}

func (as *AnalyticsService) recordVisit(column, visitorID, userAgent, ip string) (uint, error) {
	now := time.Now()

	var stat VisitorStat
	result := as.db.Where("visitor_id = ?", visitorID).First(&stat)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		stat = VisitorStat{
			VisitorID:  visitorID,
			DeviceType: DetectDevice(userAgent),
			Browser:    DetectBrowser(userAgent),
			Country:    as.Country(ip),
			FirstVisit: now,
			LastVisit:  now,
		}
		setCounter(&stat, column, 1)

		err := as.db.Create(&stat).Error
		if err == nil {
			return stat.ID, nil
		}
		if !isDuplicateKey(err) {
			return 0, err
		}

		// Un autre onglet a créé la ligne entre temps : on relit et on
		// repasse par le chemin d'incrément. Seul retry du système.
		if err := as.db.Where("visitor_id = ?", visitorID).First(&stat).Error; err != nil {
			return 0, err
		}
	} else if result.Error != nil {
		return 0, result.Error
	}

	// Ligne existante : incrément atomique du compteur de la page
	err := as.db.Model(&VisitorStat{}).
		Where("visitor_id = ?", visitorID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column + " + 1"),
			"last_visit": now,
		}).Error
	if err != nil {
		return 0, err
	}

	return stat.ID, nil
}

// RecordTimeSpent ajoute une durée de session au cumul du visiteur.
// La recherche se fait par visitor_id, jamais par id de ligne.
func (as *AnalyticsService) RecordTimeSpent(visitorID string, seconds int) error {
	if seconds <= 0 {
		return nil
	}

	err := as.db.Model(&VisitorStat{}).
		Where("visitor_id = ?", visitorID).
		Update("total_time_spent", gorm.Expr("total_time_spent + ?", seconds)).Error
	if err != nil {
		log.Error().Err(err).Str("visitor", visitorID).Msg("Erreur enregistrement durée de session")
		return err
	}

	return nil
}

func setCounter(stat *VisitorStat, column string, value int) {
	switch column {
	case "home_visits":
		stat.HomeVisits = value
	case "services_visits":
		stat.ServicesVisits = value
	case "contact_visits":
		stat.ContactVisits = value
	case "about_visits":
		stat.AboutVisits = value
	case "products_visits":
		stat.ProductsVisits = value
	case "projects_visits":
		stat.ProjectsVisits = value
	case "admin_visits":
		stat.AdminVisits = value
	}
}

// isDuplicateKey détecte une violation d'unicité sur visitor_id
// (sqlite et mysql n'utilisent pas le même message)
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
