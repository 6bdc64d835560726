package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/api/handlers"
	"github.com/vibecreator/mixpost-api/internal/api/middleware"
	"github.com/vibecreator/mixpost-api/internal/service"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Posts       service.PostService
	Calendar    service.CalendarService
	Accounts    service.AccountService
	Media       service.MediaService
	Tags        service.TagService
	Settings    service.SettingsService
	Users       service.UserService
	Keys        service.ApiKeyService
	Dashboard   service.DashboardService
	Reports     service.ReportService
	System      service.SystemService
	Idempotency service.IdempotencyService
}

type Options struct {
	// Registry serves /metrics when set.
	Registry *prometheus.Registry
	Limiter  *middleware.RateLimiter
	// AccessLog disables the request logger when false.
	AccessLog bool
}

func NewApp(cfg config.Config, log *zap.Logger, s Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + service.IdempotencyHeader,
		ExposeHeaders: middleware.ReplayedHeader,
		MaxAge:        3600,
	}))

	if opts.Registry != nil {
		app.Use(middleware.NewMetrics(opts.Registry).Handler())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg, log, s.Keys)
	idempotency := middleware.NewIdempotencyMiddleware(log, s.Idempotency).Handler()

	account := handlers.NewAccountHandler(s.Accounts)
	// provider redirects carry no credential
	app.Get("/api/accounts/callback/:provider", account.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Handler())
	}

	user := handlers.NewUserHandler(s.Users)
	api.Get("/user", user.GetUserInfo)
	api.Put("/user", user.UpdateUser)

	settings := handlers.NewSettingsHandler(s.Settings)
	api.Get("/settings", settings.GetSettingsInfo)
	api.Put("/settings", settings.UpdateSettings)

	apiKeys := handlers.NewApiKeyHandler(s.Keys)
	api.Get("/tokens", apiKeys.ListKeys)
	api.Post("/tokens", apiKeys.CreateApiKey)
	api.Delete("/tokens/:id", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(s.Posts, cfg)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts", idempotency, post.CreatePost)
	api.Delete("/posts", post.RemovePosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/:id/schedule", idempotency, post.SchedulePost)
	api.Post("/posts/:id/retry", idempotency, post.RetryPost)
	api.Post("/posts/:id/duplicate", idempotency, post.DuplicatePost)

	calendar := handlers.NewCalendarHandler(s.Calendar)
	api.Get("/calendar", calendar.GetCalendar)

	api.Get("/accounts", account.ListAccounts)
	api.Get("/accounts/add/:provider", account.AddAccount)
	api.Put("/accounts/:id", account.RefreshAccount)
	api.Delete("/accounts/:id", account.DeleteAccount)

	media := handlers.NewMediaHandler(s.Media, cfg)
	api.Get("/media/uploads", media.ListUploads)
	api.Post("/media/upload", media.Upload)
	api.Post("/media/download", media.Download)
	api.Delete("/media", media.RemoveMedia)

	tag := handlers.NewTagHandler(s.Tags)
	api.Get("/tags", tag.ListTags)
	api.Post("/tags", tag.CreateTag)
	api.Put("/tags/:id", tag.UpdateTag)
	api.Delete("/tags/:id", tag.RemoveTag)

	dashboard := handlers.NewDashboardHandler(s.Dashboard, s.Reports)
	api.Get("/dashboard", dashboard.GetDashboard)
	api.Get("/reports", dashboard.GetReport)

	system := handlers.NewSystemHandler(s.System)
	api.Get("/system/status", system.GetStatus)
	api.Get("/services", system.ListServices)

	return app
}
