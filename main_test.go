package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vitrine/internal/models/vtanalytics"
	"vitrine/internal/models/vtreviews"
	"vitrine/internal/models/vtsite"
	"vitrine/internal/vtconfig"
	"vitrine/internal/vtmiddleware"

	argon2 "github.com/andskur/argon2-hashing"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============= Setup et Teardown =============

func hashPassword(t *testing.T, pass string) string {
	hash, err := argon2.GenerateFromPassword([]byte(pass), argon2.DefaultParams)
	require.NoError(t, err)
	return string(hash)
}

func setupTestSite(t *testing.T) *vtsite.Vitrine {
	config := &vtconfig.Config{
		SiteName:    "Agence Test",
		Description: "Site de test",
		Database: vtconfig.DatabaseConfig{
			Db:   "sqlite",
			Path: ":memory:",
		},
		User: vtconfig.UserConfig{
			Login: "admin",
			Hash:  hashPassword(t, "test-password-123"),
		},
		StaticPath: t.TempDir(),
		Listen: vtconfig.ListenConfig{
			Website: "localhost:0",
		},
		Services: []vtconfig.ServiceConfig{
			{Slug: "web", Name: "Développement Web", Description: "Sites **sur mesure**."},
		},
	}

	return vtsite.Init(config, "test", "test")
}

func setupTestRouter(t *testing.T, site *vtsite.Vitrine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.Use(vtmiddleware.NewSession(false))
	r.Use(vtmiddleware.VisitorCookie(false))
	setRoutes(r, site)

	return r
}

func postJSON(r *gin.Engine, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// solveCaptcha génère un CAPTCHA hors production pour récupérer la réponse
func solveCaptcha(t *testing.T, site *vtsite.Vitrine) (string, string) {
	data, err := site.Captcha.GenerateCaptcha(false)
	require.NoError(t, err)
	return data["captcha_id"].(string), data["answer"].(string)
}

func login(t *testing.T, r *gin.Engine) []*http.Cookie {
	w := postJSON(r, "/admin/login", gin.H{
		"username": "admin",
		"password": "test-password-123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// ============= Routes publiques =============

func TestHealthz(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRecordVisitEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := postJSON(r, "/api/visits", gin.H{"page": "/services", "visitor_id": "vis-1"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var stat vtanalytics.VisitorStat
	require.NoError(t, site.Db.First(&stat, "visitor_id = ?", "vis-1").Error)
	assert.Equal(t, 1, stat.ServicesVisits)
}

func TestRecordVisitWithoutVisitorID(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	// Sans visitor_id dans le corps, le cookie posé par le middleware sert de repli
	w := postJSON(r, "/api/visits", gin.H{"page": "/"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var count int64
	site.Db.Model(&vtanalytics.VisitorStat{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordDurationEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	postJSON(r, "/api/visits", gin.H{"page": "/", "visitor_id": "vis-1"})
	w := postJSON(r, "/api/visits/duration", gin.H{"visitor_id": "vis-1", "seconds": 30})
	assert.Equal(t, http.StatusNoContent, w.Code)

	var stat vtanalytics.VisitorStat
	require.NoError(t, site.Db.First(&stat, "visitor_id = ?", "vis-1").Error)
	assert.Equal(t, 30, stat.TotalTimeSpent)
}

func TestSubmitReviewEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	captchaID, answer := solveCaptcha(t, site)
	w := postJSON(r, "/api/reviews", gin.H{
		"name": "Marie Dupont", "email": "marie@example.com", "phone": "0601020304",
		"rating": 3, "services": []string{"Web Development"},
		"review":     "Très bon accompagnement du début à la fin.",
		"captcha_id": captchaID, "captcha_answer": answer,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	pending, err := site.Reviews.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].Status)
}

func TestSubmitReviewBadCaptcha(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := postJSON(r, "/api/reviews", gin.H{
		"name": "Marie", "email": "m@e.fr", "rating": 4, "review": "ok ok ok",
		"captcha_id": "bogus", "captcha_answer": "42",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	captchaID, answer := solveCaptcha(t, site)
	w := postJSON(r, "/api/contact", gin.H{
		"name": "Jean Moreau", "phone": "+33 6 12 34 56 78",
		"email": "jean@example.com", "service": "seo",
		"message":    "Bonjour, je souhaite un audit de référencement.",
		"captcha_id": captchaID, "captcha_answer": answer,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	list, err := site.Contacts.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestContactEndpointIgnoresServerFields(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	// id, statut et horodatages envoyés par le client sont ignorés
	captchaID, answer := solveCaptcha(t, site)
	w := postJSON(r, "/api/contact", gin.H{
		"id": 99, "status": "resolved",
		"created_at": "2000-01-01T00:00:00Z", "updated_at": "2000-01-01T00:00:00Z",
		"name": "Jean Moreau", "phone": "+33 6 12 34 56 78",
		"email": "jean@example.com", "service": "seo",
		"message":    "Bonjour, je souhaite un audit de référencement.",
		"captcha_id": captchaID, "captcha_answer": answer,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	list, err := site.Contacts.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Status)
	assert.NotEqual(t, uint(99), list[0].ID)
	assert.Equal(t, time.Now().Year(), list[0].CreatedAt.Year())
}

func TestContactEndpointInvalidName(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	captchaID, answer := solveCaptcha(t, site)
	w := postJSON(r, "/api/contact", gin.H{
		"name": "Jean 123", "phone": "+33 6 12 34 56 78",
		"email": "jean@example.com", "message": "Un message suffisamment long.",
		"captcha_id": captchaID, "captcha_answer": answer,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServicesEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/services", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Développement Web")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/services/inconnu", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaptchaEndpoint(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/files/captcha", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "captcha_id")
}

// ============= Authentification et administration =============

func TestAdminRequiresAuth(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	for _, path := range []string{"/admin/api/summary", "/admin/api/reviews", "/admin/api/enquiries"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	w := postJSON(r, "/admin/login", gin.H{"username": "admin", "password": "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndSummary(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	postJSON(r, "/api/visits", gin.H{"page": "/services", "visitor_id": "vis-1"})

	cookies := login(t, r)

	req := httptest.NewRequest("GET", "/admin/api/summary", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary vtanalytics.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.UniqueVisitors)
	assert.Equal(t, 1, summary.TotalVisits)
	assert.Len(t, summary.MonthlySeries, 30)
}

func TestModerationFlow(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	review, err := site.Reviews.Submit(&vtreviews.Submission{
		Name: "Marie Dupont", Email: "marie@example.com", Rating: 5,
		Review: "Très bon accompagnement du début à la fin.",
	})
	require.NoError(t, err)

	cookies := login(t, r)

	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/api/reviews/%d/approve", review.ID), nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// L'avis publié apparaît sur l'endpoint public
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/reviews", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Marie Dupont")
}

func TestReportDownload(t *testing.T) {
	site := setupTestSite(t)
	r := setupTestRouter(t, site)

	postJSON(r, "/api/visits", gin.H{"page": "/", "visitor_id": "vis-1"})

	cookies := login(t, r)

	req := httptest.NewRequest("GET", "/admin/api/report", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))
	assert.Contains(t, w.Body.String(), "Agence Test")
}
