package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	handlers_analytics "vitrine/internal/handlers/analytics"
	handlers_contacts "vitrine/internal/handlers/contacts"
	handlers_reviews "vitrine/internal/handlers/reviews"
	handlers_services "vitrine/internal/handlers/services"
	"vitrine/internal/models/vtsite"
	"vitrine/internal/vtconfig"
	"vitrine/internal/vtlog"
	"vitrine/internal/vtmiddleware"

	argon2 "github.com/andskur/argon2-hashing"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const VERSION string = "0.1.0"

// BuildID est injecté au build via -ldflags
var BuildID string

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "Fichier de configuration YAML")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("fichier de configuration requis")
	}

	return *config, false, false, nil
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if versionDisplay {
		fmt.Printf("vitrine %s (%s)\n", VERSION, BuildID)
		return
	}
	if shouldCreateExample {
		vtconfig.CreateExample(shouldCreateExample, configFile)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	configuration, err := vtconfig.LoadAndValidate(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur de configuration: %v\n", err)
		os.Exit(1)
	}

	vtlog.InitLogger(configuration.Logger, configuration.Production)

	site := vtsite.Init(configuration, VERSION, BuildID)

	r := newServer(site)
	vtmiddleware.InitMiddleware(r, configuration.Production)
	setRoutes(r, site)

	startServer(r, site)
}

func newServer(site *vtsite.Vitrine) *gin.Engine {
	configuration := site.Configuration

	if configuration.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if configuration.TrustedProxies != nil {
		r.SetTrustedProxies(configuration.TrustedProxies)
	}
	if configuration.TrustedPlatform != "" {
		switch configuration.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = configuration.TrustedPlatform
		}
	}

	return r
}

func setRoutes(r *gin.Engine, site *vtsite.Vitrine) {
	configuration := site.Configuration

	analytics := handlers_analytics.NewAnalyticsHandler(site.Analytics, site.Exporter)
	reviews := handlers_reviews.NewReviewHandler(site.Reviews, site.Captcha,
		filepath.Join(configuration.StaticPath, "uploads"))
	contacts := handlers_contacts.NewContactHandler(site.Contacts, site.Captcha)
	services := handlers_services.NewServicesHandler(site.Services)

	// middleware rate limiter
	middlewareLimiter := vtmiddleware.NewLimiter()

	// Fichiers de la SPA ; les routes inconnues retombent sur index.html
	r.Static("/static/", configuration.StaticPath)
	r.NoRoute(func(c *gin.Context) {
		c.File(filepath.Join(configuration.StaticPath, "index.html"))
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": VERSION})
	})

	r.GET("/files/captcha", func(c *gin.Context) {
		site.Captcha.CaptchaHandler(c, configuration.Production)
	})

	// API publiques
	api := r.Group("/api")
	{
		api.POST("/visits", analytics.RecordVisit)
		api.POST("/visits/duration", analytics.RecordDuration)
		api.GET("/reviews", reviews.ListApproved)
		api.POST("/reviews", middlewareLimiter, reviews.Submit)
		api.POST("/reviews/image", middlewareLimiter, reviews.UploadImage)
		api.POST("/contact", middlewareLimiter, contacts.Submit)
		api.GET("/services", services.List)
		api.GET("/services/:slug", services.Get)
	}

	// Routes d'authentification
	r.POST("/admin/login", vtmiddleware.NewLimiter(), loginHandler)
	r.POST("/admin/logout", logoutHandler)

	// API d'administration protégées
	admin := r.Group("/admin/api")
	admin.Use(authRequired())
	{
		admin.GET("/summary", analytics.GetSummary)
		admin.GET("/realtime", analytics.GetRealtimeStats)
		admin.GET("/report", analytics.DownloadReport)

		admin.GET("/reviews", reviews.List)
		admin.PUT("/reviews/:id/approve", reviews.Approve)
		admin.PUT("/reviews/:id/reject", reviews.Reject)
		admin.PUT("/reviews/:id", reviews.Edit)
		admin.DELETE("/reviews/:id", reviews.Delete)

		admin.GET("/enquiries", contacts.List)
		admin.PUT("/enquiries/:id", contacts.UpdateStatus)
		admin.DELETE("/enquiries/:id", contacts.Delete)
	}
}

func startServer(r *gin.Engine, site *vtsite.Vitrine) {
	configuration := site.Configuration

	if configuration.Listen.Metrics != "" {
		log.Info().Msgf("Metrics disponible sur http://%s/metrics", configuration.Listen.Metrics)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			http.ListenAndServe(configuration.Listen.Metrics, nil)
		}()
	}

	log.Info().Msgf("Website démarré sur http://%s", configuration.Listen.Website)
	r.Run(configuration.Listen.Website)
}

// ============= HANDLERS D'AUTHENTIFICATION =============

func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification requise"})
			c.Abort()
			return
		}
		c.Set("authenticated", true)
		c.Next()
	}
}

func loginHandler(c *gin.Context) {
	configuration := vtsite.GetInstance().Configuration

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// Vérification login / pass
	err := argon2.CompareHashAndPassword([]byte(configuration.User.Hash), []byte(req.Password))
	if err != nil || req.Username != configuration.User.Login {
		log.Warn().Str("user", req.Username).Str("ip", c.ClientIP()).Msg("Tentative de connexion échouée")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects"})
		return
	}
	log.Info().Str("user", req.Username).Str("ip", c.ClientIP()).Msg("Connexion réussie")

	// Créer la session
	session := sessions.Default(c)
	session.Set("user_id", "admin")
	session.Set("username", req.Username)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Connexion réussie",
		"redirect": "/admin",
	})
}

func logoutHandler(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}
