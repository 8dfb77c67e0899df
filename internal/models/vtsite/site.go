package vtsite

import (
	"fmt"

	"vitrine/internal/models/vtanalytics"
	"vitrine/internal/models/vtcaptchas"
	"vitrine/internal/models/vtcontacts"
	"vitrine/internal/models/vtmarkdown"
	"vitrine/internal/models/vtreports"
	"vitrine/internal/models/vtreviews"
	"vitrine/internal/models/vtservices"
	"vitrine/internal/vtconfig"
	"vitrine/internal/vtlog"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	instance *Vitrine
)

// Vitrine porte tous les services du site, initialisés une fois
// au démarrage et partagés par les handlers
type Vitrine struct {
	Db            *gorm.DB
	Configuration *vtconfig.Config
	Redis         *redis.Client
	Captcha       *vtcaptchas.Captchas
	Analytics     *vtanalytics.AnalyticsService
	Reviews       *vtreviews.ReviewService
	Contacts      *vtcontacts.ContactService
	Services      *vtservices.Catalog
	Exporter      *vtreports.Exporter
	Version       string
	BuildID       string
}

func GetInstance() *Vitrine {
	if instance == nil {
		instance = &Vitrine{}
	}
	return instance
}

func Init(config *vtconfig.Config, version string, buildid string) *Vitrine {
	instance = &Vitrine{
		Configuration: config,
		Version:       version,
		BuildID:       buildid,
	}
	instance.initDatabase()
	instance.initRedis()
	instance.initCaptcha()
	instance.initServices()
	instance.initAnalytics()

	instance.Reviews = vtreviews.NewReviewService(instance.Db)
	instance.Contacts = vtcontacts.NewContactService(instance.Db)
	instance.Exporter = vtreports.NewExporter(config.SiteName)

	return instance
}

func (vt *Vitrine) initDatabase() {
	var err error

	level := "warn"
	if vt.Configuration.Logger.Level == "debug" || !vt.Configuration.Production {
		level = "trace"
	}
	gormLogger := vtlog.NewGormLogger(level)

	var db *gorm.DB
	switch vt.Configuration.Database.Db {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(vt.Configuration.Database.Path), &gorm.Config{
			Logger: gormLogger,
		})
	case "mysql":
		db, err = gorm.Open(mysql.Open(vt.Configuration.Database.Dsn), &gorm.Config{
			Logger: gormLogger,
		})
	default:
		err = fmt.Errorf("le type de database doit etre sqlite ou mysql")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Erreur connexion base de données")
	}

	err = db.AutoMigrate(
		&vtanalytics.VisitorStat{},
		&vtreviews.Review{},
		&vtcontacts.ContactEnquiry{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Erreur migration")
	}

	vt.Db = db
}

func (vt *Vitrine) initRedis() {
	if vt.Configuration.Database.Redis.Addr == "" {
		return
	}

	vt.Redis = redis.NewClient(&redis.Options{
		Addr: vt.Configuration.Database.Redis.Addr,
		DB:   vt.Configuration.Database.Redis.Db,
	})
}

func (vt *Vitrine) initCaptcha() {
	vt.Captcha = vtcaptchas.New(vt.Redis)
}

func (vt *Vitrine) initServices() {
	vtmarkdown.InitMarkdown()

	catalog, err := vtservices.NewCatalog(vt.Configuration.Services)
	if err != nil {
		log.Fatal().Err(err).Msg("Erreur dans la configuration des services")
	}
	vt.Services = catalog
}

func (vt *Vitrine) initAnalytics() {
	vt.Analytics = vtanalytics.NewAnalyticsService(vt.Db, vt.Redis, vt.Configuration.Analytics.GeoIPPath)
}
