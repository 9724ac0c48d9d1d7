package server

import (
	"context"
	"errors"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cubestudio/dataset-admin/pkg/config"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/metrics"
)

const APIPrefix = "/dataset_modelview/api"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Config       *config.Config
	Logger       *logrus.Logger
	Service      contract.DatasetService
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	HealthChecks map[string]HealthCheck
}

func NewApp(opts Options) (*fiber.App, error) {
	cfg := opts.Config
	log := opts.Logger

	if opts.Metrics == nil {
		opts.Metrics = metrics.Discard()
	}

	parser, err := NewHTTPRequestParser()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             64 * 1024 * 1024,
		ReadBufferSize:        16384,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          600 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "dataset-admin/" + cfg.Version,
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(log),
	})

	app.Use(compress.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))
	app.Use(instrument(opts.Metrics))

	app.Get("/health", healthHandler(opts.HealthChecks))
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.SendString(cfg.Version)
	})

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{logger: log, service: opts.Service, parser: parser}

	api := app.Group(APIPrefix, identity(cfg.Auth))
	api.Get("/", h.listDatasets)
	api.Post("/", h.createDataset)
	api.Post("/upload/:id", h.uploadChunk)
	api.Get("/download/:id/:partition?", h.downloadDataset)
	api.Post("/download/:id/:partition?", h.downloadDataset)
	api.Get("/preview/:name/:version?/:segment?", h.previewDataset)
	api.Post("/preview/:name/:version?/:segment?", h.previewDataset)
	api.Post("/action/save_store/:id", h.backupDataset)
	api.Get("/:id", h.getDataset)
	api.Put("/:id", h.updateDataset)
	api.Delete("/:id", h.deleteDataset)

	for _, mount := range staticMounts(cfg) {
		app.Static(mount.prefix, mount.root)
	}

	return app, nil
}

func newErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *contract.Error
		if !errors.As(err, &e) {
			code := contract.ErrorCodeInternal

			var f *fiber.Error
			if errors.As(err, &f) {
				switch f.Code {
				case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
					code = contract.ErrorCodeBadRequest
				case fiber.StatusServiceUnavailable:
					code = contract.ErrorCodeTemporarilyUnavailable
				case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
					code = contract.ErrorCodeEndpointNotFound
				}
			}

			e = contract.NewError(code, err.Error())
		}

		var fn func(format string, args ...any)

		switch e.StatusCode() {
		case fiber.StatusBadRequest, fiber.StatusUnauthorized, fiber.StatusForbidden, fiber.StatusConflict:
			fn = log.Infof
		case fiber.StatusServiceUnavailable:
			fn = log.Warnf
		case fiber.StatusNotFound:
			fn = log.Debugf
		default:
			fn = log.Errorf
		}

		fn("Error encountered in %s %s: %s", c.Method(), c.Path(), err)

		return c.Status(e.StatusCode()).JSON(e)
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}

	var e *contract.Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}

	var f *fiber.Error
	if errors.As(err, &f) {
		return f.Code
	}

	return fiber.StatusInternalServerError
}

func instrument(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if !strings.HasPrefix(route, APIPrefix) && route != "/health" && route != "/version" && route != "/metrics" {
			route = "other"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(statusOf(c, err))).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())

		return err
	}
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).SendString(name + ": " + err.Error())
			}
		}

		return c.SendString("OK")
	}
}

type staticMount struct {
	prefix string
	root   string
}

// staticMounts serves the bundled assets plus every rewritten directory
// under the static path, matching the URLs handed out for local files.
// Assets are tried first, then the rewrites from the most specific prefix.
func staticMounts(cfg *config.Config) []staticMount {
	base := "/" + strings.Trim(cfg.Dataset.StaticPath, "/")

	var mounts []staticMount

	for _, rewrite := range cfg.Dataset.Rewrites {
		if !strings.HasPrefix(rewrite.Prefix, rewrite.Strip) {
			continue
		}

		mounts = append(mounts, staticMount{
			prefix: path.Join(base, strings.TrimPrefix(rewrite.Prefix, rewrite.Strip)),
			root:   path.Clean(rewrite.Prefix),
		})
	}

	sort.SliceStable(mounts, func(i, j int) bool {
		return len(mounts[i].prefix) > len(mounts[j].prefix)
	})

	if cfg.StaticFolder != "" {
		mounts = append([]staticMount{{prefix: base, root: cfg.StaticFolder}}, mounts...)
	}

	return mounts
}
