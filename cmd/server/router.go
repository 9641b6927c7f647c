package main

import (
	"context"
	"fmt"
	"time"

	"note-keeper/cmd/server/handlers"
	authHandlers "note-keeper/cmd/server/handlers/auth"
	"note-keeper/cmd/server/handlers/httperr"
	mediaHandlers "note-keeper/cmd/server/handlers/media"
	notesHandlers "note-keeper/cmd/server/handlers/notes"
	"note-keeper/cmd/server/middlewares"
	"note-keeper/internal/clients/cloudinary"
	"note-keeper/internal/clients/mongo"
	"note-keeper/internal/config"
	"note-keeper/internal/logger"
	authServices "note-keeper/internal/services/auth"
	mediaServices "note-keeper/internal/services/media"
	notesServices "note-keeper/internal/services/notes"
	util "note-keeper/internal/utils"

	_ "note-keeper/docs" // Load swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	RateLimitExpiration = 1 * time.Minute
	multipartOverhead   = 1 << 20
)

// services bundles everything the HTTP layer depends on.
type services struct {
	auth  authHandlers.AuthService
	notes notesHandlers.Service
	media mediaHandlers.Service
	// files is nil unless media is kept in GridFS
	files mediaHandlers.FileOpener
}

// buildServices wires repositories, the media store and the services on top
// of them.
func buildServices(ctx context.Context, cfg config.Config, db *mongodriver.Database) (*services, error) {
	usersRepo, err := mongo.NewUsersRepo(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("users repository: %w", err)
	}

	notesRepo, err := mongo.NewNotesRepo(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", notesServices.ErrCreateNotesRepo, err)
	}

	var (
		store mediaServices.Store
		files mediaHandlers.FileOpener
	)
	switch cfg.MediaBackend {
	case config.MediaBackendCloudinary:
		cld, err := cloudinary.New(cfg, logger.L())
		if err != nil {
			return nil, fmt.Errorf("cloudinary: %w", err)
		}
		store = cld
	default:
		gridfs := mongo.NewMediaStore(db, cfg.PublicBaseURL)
		store = gridfs
		files = gridfs
	}
	logger.L().Info("media backend ready", "backend", cfg.MediaBackend)

	limits := mediaServices.Limits{
		MaxImageBytes:    cfg.MediaMaxImageBytes,
		MaxAudioBytes:    cfg.MediaMaxAudioBytes,
		MaxAudioDuration: time.Duration(cfg.MediaMaxAudioSeconds) * time.Second,
	}

	return &services{
		auth:  authServices.NewService(usersRepo, cfg, logger.L()),
		notes: notesServices.NewService(notesRepo, store, logger.L(), cfg.MediaDeleteConcurrency),
		media: mediaServices.NewService(store, limits, logger.L()),
		files: files,
	}, nil
}

// bodyLimit fits a full image batch or one audio clip plus form overhead.
func bodyLimit(cfg config.Config) int {
	limit := max(mediaServices.MaxImagesPerUpload*cfg.MediaMaxImageBytes, cfg.MediaMaxAudioBytes)
	return int(limit) + multipartOverhead
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, svc *services) (*fiber.App, error) {
	v, err := util.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
		BodyLimit:    bodyLimit(cfg),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowHeaders:     "Content-Type, Authorization",
		AllowCredentials: cfg.CORSAllowOrigins != "*",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app)
	}

	// outside the versioned API so health checks are not logged
	app.Get("/healthz", handlers.Healthz)

	app.Get("/docs/*", swagger.HandlerDefault)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		}))
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	authLimiter := middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration)
	authH := authHandlers.NewHandlers(svc.auth, v, cfg.CookieSecure)

	authGrp := v1.Group("/auth", authLimiter)
	authGrp.Post("/sign-up", authH.SignUp)
	authGrp.Post("/sign-in", authH.SignIn)
	authGrp.Post("/sign-out", authH.SignOut)

	notesH := notesHandlers.NewHandlers(svc.notes, v)

	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Get("/favourites", notesH.ListFavourites)
	notesGrp.Get("/:id", notesH.Get)
	notesGrp.Put("/:id", notesH.Update)
	notesGrp.Patch("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Delete)

	uploadLimiter := middlewares.BuildRateLimiter(cfg.MediaUploadRatePerMin, RateLimitExpiration)
	mediaH := mediaHandlers.NewHandlers(svc.media, svc.files)

	mediaGrp := v1.Group("/media", jwtMiddleware)
	mediaGrp.Post("/images", uploadLimiter, mediaH.UploadImages)
	mediaGrp.Post("/audio", uploadLimiter, mediaH.UploadAudio)
	mediaGrp.Get("/files/:id", mediaH.File)

	v1.Get("/me", jwtMiddleware, handlers.Me)

	return app, nil
}
