package container

import (
	"context"
	"net/http"

	"go-restaurant-grid/internal/config"
	"go-restaurant-grid/internal/geo"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/internal/lookup"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/parser"
	"go-restaurant-grid/internal/publish"
	"go-restaurant-grid/internal/render"
	"go-restaurant-grid/internal/service"
	"go-restaurant-grid/internal/storage"
	"go-restaurant-grid/internal/transport"
	"go-restaurant-grid/pkg/models"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	events      *observer.EventPublisher
	metrics     *observer.MetricsObserver
	gridService service.GridService
	remote      *publish.Multi
	handler     http.Handler
}

// NewContainer builds the dependency graph shared by the CLI and the API
// server.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metrics := observer.NewMetricsObserver()
	events.Subscribe(metrics)

	client, err := lookup.NewClient(cfg.YelpAPIKey,
		lookup.WithBaseURL(cfg.YelpBaseURL),
		lookup.WithDefaultLocation(cfg.DefaultLocation),
		lookup.WithMaxPhotos(models.ImageSlots),
	)
	if err != nil {
		return nil, err
	}

	loader := storage.NewLoader(
		storage.WithRemoteFetcher(storage.NewHTTPImageFetcher(storage.WithHTTPTimeout(cfg.ImageFetchTimeout))),
		storage.WithTimeout(cfg.ImageFetchTimeout),
	)

	renderer := render.NewRenderer(loader,
		render.WithFontPath(cfg.FontPath),
		render.WithEvents(events),
		render.WithImageWorkers(cfg.LookupWorkers),
	)

	gridService := service.NewGridService(client, renderer,
		service.WithParser(parser.New(parser.WithDefaultLocation(cfg.DefaultLocation))),
		service.WithOrigin(geo.Point{Lat: cfg.OriginLat, Lon: cfg.OriginLon}),
		service.WithFailurePolicy(cfg.FailurePolicy),
		service.WithWorkers(cfg.LookupWorkers),
		service.WithEvents(events),
	)

	remote, err := remotePublishers(ctx, cfg, events)
	if err != nil {
		return nil, err
	}

	handler := transport.NewHandler(gridService, remote, metrics.Handler(), cfg)

	return &Container{
		config:      cfg,
		events:      events,
		metrics:     metrics,
		gridService: gridService,
		remote:      remote,
		handler:     handler,
	}, nil
}

func remotePublishers(ctx context.Context, cfg *config.Config, events observer.Subject) (*publish.Multi, error) {
	var sinks []publish.Publisher
	if cfg.Azure.Enabled() {
		az, err := publish.NewAzureBlobPublisher(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Azure.Container)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, az)
	}
	if cfg.S3.Enabled() {
		s3p, err := publish.NewS3Publisher(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3p)
	}
	return publish.NewMulti(events, sinks...), nil
}

// CLIPublisher writes the grid to OUTPUT_FILE and then to any configured
// remote sinks.
func (c *Container) CLIPublisher() *publish.Multi {
	sinks := []publish.Publisher{publish.NewFilePublisher(c.config.OutputFile)}
	return publish.NewMulti(c.events, append(sinks, c.remote.Publishers()...)...)
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// GridService returns the orchestrator
func (c *Container) GridService() service.GridService {
	return c.gridService
}

// Metrics returns the Prometheus observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
