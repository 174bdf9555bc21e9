package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yt-sections/config"
	"yt-sections/downloader"
	"yt-sections/handlers"
	"yt-sections/llm"
	"yt-sections/logger"
	"yt-sections/repository/sqlite"
	"yt-sections/services/qa"
	"yt-sections/services/sections"
	"yt-sections/services/video"
	"yt-sections/storage"
	"yt-sections/transcription"
	"yt-sections/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logConfig, err := logger.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := sqlite.InitDB(cfg.Database.Path, cfg.Database.MaxConnections)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	// Artifact mirror is optional. A disabled mirror stays a nil interface
	// so the services skip it entirely.
	var videoMirror video.Mirror
	var sectionMirror sections.Mirror
	if cfg.Spaces.Enabled {
		spaces, err := storage.NewSpacesClient(cfg.Spaces)
		if err != nil {
			log.Fatalf("Failed to initialize spaces client: %v", err)
		}
		videoMirror = spaces
		sectionMirror = spaces
	}

	audioDownloader := downloader.New(downloader.Config{
		BinaryPath: cfg.Pipeline.DownloaderPath,
		DataDir:    cfg.DataDir,
	})
	transcriber := transcription.NewClient(cfg.Deepgram)
	validator := validation.NewValidator(cfg)

	invoker := llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		RequestTimeout:    cfg.LLM.RequestTimeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})

	videoService := video.NewService(
		repo,
		audioDownloader,
		transcriber,
		validator,
		videoMirror,
		video.Config{ProcessTimeout: cfg.Pipeline.ProcessTimeout},
	)
	sectionService := sections.NewService(repo, invoker, sectionMirror, sections.Config{
		Model:       cfg.LLM.Model,
		Provider:    cfg.LLM.Provider,
		Temperature: 0.2,
	})
	qaService := qa.NewService(repo, invoker, qa.Config{
		Model:       cfg.LLM.Model,
		Provider:    cfg.LLM.Provider,
		Temperature: 0.2,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "yt-sections",
	})

	setupMiddleware(app, cfg, logConfig)

	videoHandler := handlers.NewVideoHandler(videoService)
	sectionHandler := handlers.NewSectionHandler(sectionService)
	qaHandler := handlers.NewQAHandler(qaService)

	app.Post("/api/videos", videoHandler.Submit)
	app.Get("/api/videos/:id", videoHandler.Get)
	app.Post("/api/videos/:id/sections", sectionHandler.Synthesize)
	app.Post("/api/videos/:id/ask", qaHandler.Ask)
	app.Get("/health", handlers.HealthCheck)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(fiberLogger.New(*logConfig))

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORS.AllowedOrigins, ","),
		AllowMethods: strings.Join(cfg.CORS.AllowedMethods, ","),
		AllowHeaders: strings.Join(cfg.CORS.AllowedHeaders, ","),
	}))

	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"error":   "Rate limit exceeded",
				})
			},
		}))
	}

	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))

	app.Use(etag.New())
}
