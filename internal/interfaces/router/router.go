package router

import (
	"errors"
	"net/http"

	authsvc "carbon-ledger/internal/application/auth"
	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/ledger"
	"carbon-ledger/internal/config"
	"carbon-ledger/internal/infrastructure/database"
	adminhandler "carbon-ledger/internal/interfaces/handlers/admin"
	authhandler "carbon-ledger/internal/interfaces/handlers/auth"
	healthhandler "carbon-ledger/internal/interfaces/handlers/health"
	mkthandler "carbon-ledger/internal/interfaces/handlers/marketplace"
	platformhandler "carbon-ledger/internal/interfaces/handlers/platform"
	projecthandler "carbon-ledger/internal/interfaces/handlers/projects"
	sensorhandler "carbon-ledger/internal/interfaces/handlers/sensors"
	tokenhandler "carbon-ledger/internal/interfaces/handlers/tokens"
	"carbon-ledger/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp opens the database and Redis, prepares the ledger and registers every route.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil, nil, errors.New("REDIS_URL is required for sessions")
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		rdb.Close()
		return nil, nil, nil, err
	}
	if err := prepare(db, cfg); err != nil {
		rdb.Close()
		return nil, nil, nil, err
	}

	l := ledger.New(db, ledger.Options{
		Admin:     cfg.AdminAccount,
		Threshold: cfg.CarbonCreditThreshold,
		Rate:      cfg.GenerationRate,
		Decimals:  cfg.TokenDecimals,
		Publisher: &events.RedisPublisher{Rdb: rdb, Channel: cfg.EventsChannel},
	})

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})
	app.Use(middleware.Tracing())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.CORSOriginSuffix,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	register(app, cfg, db, rdb, l)
	return app, db, rdb, nil
}

// prepare migrates the schema and seeds the platform row and the admin login.
func prepare(db *gorm.DB, cfg *config.Config) error {
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if _, err := database.EnsurePlatformState(db, database.Genesis{
		FeeBps:   cfg.PlatformFeeBps,
		MinPrice: cfg.MinPrice,
	}); err != nil {
		return err
	}
	return authsvc.EnsureAdmin(db, cfg.AdminAccount, cfg.AdminPassword)
}

func register(app *fiber.App, cfg *config.Config, db *gorm.DB, rdb *redis.Client, l *ledger.Ledger) {
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		Ledger:         l.Store,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	sessionCfg := middleware.SessionConfig{Secret: cfg.SessionSecret, IsProduction: cfg.IsProduction()}
	ah := &authhandler.Handlers{
		Accounts: &authsvc.GormAccountFinder{DB: db},
		Rdb:      rdb,
		Config:   sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)
	authGroup.Delete("/sessions", ah.LogoutAll)

	api := app.Group("/api/v1")

	// Reads are public.
	ph := &projecthandler.Handlers{Service: l.Registry}
	api.Get("/projects/:id", ph.Get)
	api.Get("/projects/:id/sensors", ph.Sensors)
	api.Get("/projects/:id/offsets", ph.Offsets)
	api.Get("/users/:account/projects", ph.UserProjects)
	api.Get("/users/:account/footprint", ph.Footprint)

	sh := &sensorhandler.Handlers{Registry: l.Registry, Issuance: l.Issuance}
	api.Get("/sensors/:address", sh.Get)

	th := &tokenhandler.Handlers{Tokens: l.Tokens, Treasury: l.Treasury}
	api.Get("/tokens/:account", th.Balance)

	plh := &platformhandler.Handlers{Registry: l.Registry, Tokens: l.Tokens}
	api.Get("/platform/stats", plh.Stats)
	api.Get("/platform/fee", plh.Fee)
	api.Get("/platform/min-price", plh.MinPrice)

	// Mutations act as the session principal.
	requireAuth := middleware.RequireAuth()
	api.Post("/projects", requireAuth, ph.Register)
	api.Patch("/projects/:id/status", requireAuth, ph.SetStatus)
	api.Patch("/projects/:id/price", requireAuth, ph.SetPrice)
	api.Post("/sensors/readings", requireAuth, sh.Report)

	mh := &mkthandler.Handlers{Service: l.Marketplace}
	api.Post("/marketplace/purchase", requireAuth, mh.Purchase)

	adh := &adminhandler.Handlers{Service: l.Admin}
	ag := api.Group("/admin", requireAuth)
	ag.Post("/projects/:id/verify", adh.VerifyProject)
	ag.Post("/sensors/:address/verify", adh.VerifySensor)
	ag.Put("/footprints/:account", adh.SetFootprint)
	ag.Put("/fee", adh.SetFee)
	ag.Put("/min-price", adh.SetMinPrice)
	ag.Post("/withdraw", adh.Withdraw)
	ag.Patch("/projects/:id/active", adh.SetProjectActive)
	ag.Post("/pause", adh.Pause)
	ag.Post("/unpause", adh.Unpause)
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
