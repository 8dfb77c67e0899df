package handlers_analytics

import (
	"fmt"
	"net/http"
	"time"

	"vitrine/internal/models/vtanalytics"
	"vitrine/internal/models/vtreports"
	"vitrine/internal/vtmiddleware"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service  *vtanalytics.AnalyticsService
	exporter *vtreports.Exporter
}

func NewAnalyticsHandler(service *vtanalytics.AnalyticsService, exporter *vtreports.Exporter) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:  service,
		exporter: exporter,
	}
}

type visitRequest struct {
	Page      string `json:"page"`
	VisitorID string `json:"visitor_id"`
}

// RecordVisit enregistre une visite de page. Une visite perdue est
// acceptable : la réponse est 202 même si l'écriture a échoué
func (ah *AnalyticsHandler) RecordVisit(c *gin.Context) {
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = vtmiddleware.Visitor(c)
	}
	if visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant visiteur manquant"})
		return
	}

	rowID, _ := ah.service.RecordVisit(req.Page, visitorID, c.Request.UserAgent(), c.ClientIP())

	c.JSON(http.StatusAccepted, gin.H{"row_id": rowID})
}

type durationRequest struct {
	VisitorID string `json:"visitor_id"`
	Seconds   int    `json:"seconds"`
}

// RecordDuration ajoute du temps passé au compteur du visiteur
func (ah *AnalyticsHandler) RecordDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = vtmiddleware.Visitor(c)
	}
	if visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant visiteur manquant"})
		return
	}

	ah.service.RecordTimeSpent(visitorID, req.Seconds)

	c.Status(http.StatusNoContent)
}

// GetSummary retourne les statistiques agrégées du tableau de bord
func (ah *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := ah.service.ComputeSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Erreur lors du calcul des statistiques",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetRealtimeStats retourne les compteurs du jour
func (ah *AnalyticsHandler) GetRealtimeStats(c *gin.Context) {
	stats, err := ah.service.GetRealtimeStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Erreur lors de la lecture des statistiques temps réel",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DownloadReport génère le rapport paginé et le sert en téléchargement
func (ah *AnalyticsHandler) DownloadReport(c *gin.Context) {
	summary, err := ah.service.ComputeSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Erreur lors du calcul des statistiques",
		})
		return
	}

	report, err := ah.exporter.ExportSummary(summary, vtreports.BuildCharts(summary))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Erreur lors de la génération du rapport",
		})
		return
	}

	filename := fmt.Sprintf("rapport-visites-%s.html", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/html; charset=utf-8", report)
}
