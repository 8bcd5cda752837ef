// Package app wires configuration into the extraction and invoice
// components shared by the HTTP service and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/luminary/luminary-backend/internal/auth"
	"github.com/luminary/luminary-backend/internal/auth/jwt"
	"github.com/luminary/luminary-backend/internal/docprocessing/events"
	"github.com/luminary/luminary-backend/internal/docprocessing/handler"
	"github.com/luminary/luminary-backend/internal/docprocessing/processor"
	"github.com/luminary/luminary-backend/internal/docprocessing/repository"
	"github.com/luminary/luminary-backend/internal/docprocessing/service"
	"github.com/luminary/luminary-backend/internal/docprocessing/storage"
	invoicehandler "github.com/luminary/luminary-backend/internal/invoice/handler"
	"github.com/luminary/luminary-backend/pkg/config"
	"github.com/luminary/luminary-backend/pkg/database"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/luminary/luminary-backend/pkg/messaging"
)

// ServiceName identifies the HTTP service in logs, health and events
const ServiceName = "extract-service"

// Extraction is the core pipeline: upload store, OCR engine, processor
// registry and orchestrator.
type Extraction struct {
	Store    *storage.UploadStore
	Engine   processor.OCREngine
	Registry *processor.Registry
	Service  *service.Service
}

// Close releases the OCR engine's client, if it holds one
func (e *Extraction) Close() error {
	if c, ok := e.Engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewExtraction builds the pipeline from cfg. opts are appended to the
// options derived from configuration.
func NewExtraction(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...service.Option) (*Extraction, error) {
	store, err := storage.NewUploadStore(cfg.Extraction.UploadDir, log)
	if err != nil {
		return nil, err
	}

	engine, err := processor.NewOCREngine(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ocr engine: %w", err)
	}

	registry := processor.NewDefaultRegistry(engine, cfg.Extraction.EnhanceImages, log)

	opts = append([]service.Option{
		service.WithTimeout(cfg.Extraction.Timeout),
		service.WithBatchWorkers(cfg.Extraction.BatchWorkers),
	}, opts...)

	return &Extraction{
		Store:    store,
		Engine:   engine,
		Registry: registry,
		Service:  service.NewService(registry, log, opts...),
	}, nil
}

// App is the fully wired HTTP service
type App struct {
	cfg *config.Config
	log *logger.Logger

	Extraction *Extraction
	DB         *database.DB
	Audit      *repository.AuditRepository
	RabbitMQ   *messaging.RabbitMQ
}

// New connects the optional database and broker and builds the pipeline.
// Anything opened before a failure is closed again.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (a *App, err error) {
	a = &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	var opts []service.Option

	if cfg.Database.Enabled() {
		a.DB, err = database.New(&cfg.Database, log)
		if err != nil {
			return a, err
		}
		a.Audit = repository.NewAuditRepository(a.DB)
		if cfg.Database.AutoMigrate {
			if err = a.Audit.EnsureSchema(ctx); err != nil {
				return a, fmt.Errorf("audit schema: %w", err)
			}
		}
		opts = append(opts, service.WithAudit(a.Audit))
	} else {
		log.Info().Msg("database not configured, extraction audit disabled")
	}

	if cfg.RabbitMQ.Enabled() {
		a.RabbitMQ, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			return a, err
		}
		publisher, perr := events.NewChallanEventPublisher(a.RabbitMQ, cfg.RabbitMQ.Exchange, log)
		if perr != nil {
			return a, fmt.Errorf("event publisher: %w", perr)
		}
		opts = append(opts, service.WithEvents(publisher))
	} else {
		log.Info().Msg("rabbitmq not configured, extraction events disabled")
	}

	a.Extraction, err = NewExtraction(ctx, cfg, log, opts...)
	if err != nil {
		return a, err
	}

	log.Info().
		Str("ocr_engine", a.Extraction.Engine.Name()).
		Str("upload_dir", a.Extraction.Store.Dir()).
		Bool("auth", cfg.Auth.Enabled).
		Msg("extraction pipeline ready")

	return a, nil
}

// Router builds the HTTP routes. GET / and GET /health are public; /api is
// gated by the allowlist when auth is enabled.
func (a *App) Router() http.Handler {
	cfg := a.cfg

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(a.log))
	r.Use(httputil.Recoverer(a.log))
	if cfg.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	health := handler.NewHealthHandler(ServiceName)
	if a.DB != nil {
		health.AddCheck("database", a.DB.Health)
	}
	if a.RabbitMQ != nil {
		rmq := a.RabbitMQ
		health.AddCheck("rabbitmq", func(context.Context) map[string]string {
			return rmq.Health()
		})
	}

	extract := handler.NewHandler(
		a.Extraction.Service,
		a.Extraction.Store,
		cfg.Extraction.MaxUploadSizeBytes(),
		cfg.Extraction.MaxBatchFiles,
		a.log,
	)
	if a.Audit != nil {
		extract.WithAudit(a.Audit)
	}
	invoices := invoicehandler.NewHandler(cfg.Invoice, a.log)

	r.Get("/", health.Liveness)
	r.Get("/health", health.Health)

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth.Enabled {
			gate := auth.NewAllowlist(jwt.NewManager(&cfg.Auth), cfg.Auth.AllowedEmails, a.log)
			r.Use(gate.Middleware)
		}
		extract.Routes(r)
		invoices.Routes(r)
	})

	return r
}

// Close shuts down every dependency New opened
func (a *App) Close() error {
	var errs []error
	if a.Extraction != nil {
		errs = append(errs, a.Extraction.Close())
	}
	if a.RabbitMQ != nil {
		errs = append(errs, a.RabbitMQ.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
