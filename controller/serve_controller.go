package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sstab/utils"
)

// ServeController exposes a parsed log over HTTP. The API is up at once;
// parsing runs in the background.
type ServeController struct {
	cfg     *utils.Config
	input   string
	echo    *echo.Echo
	handler *Handler
	parser  *ParseController
}

// NewServeController builds the echo server, the API routes and a private
// prometheus registry exposed on /metrics.
func NewServeController(cfg *utils.Config, input string) *ServeController {
	reg := prometheus.NewRegistry()
	metrics := utils.NewMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = goJSONSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	h := NewHandler(nil)
	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return &ServeController{
		cfg:     cfg,
		input:   input,
		echo:    e,
		handler: h,
		parser:  NewParseController(cfg, metrics),
	}
}

// Echo returns the underlying server, mainly for tests.
func (sc *ServeController) Echo() *echo.Echo { return sc.echo }

// Load parses the input and publishes the result, or the failure, to the API.
func (sc *ServeController) Load(ctx context.Context) error {
	t0 := time.Now()
	res, err := sc.parser.Parse(ctx, sc.input)
	if err != nil {
		sc.handler.SetError(err)
		return err
	}
	sc.handler.SetData(res)
	utils.L().Info("parse complete in %v  (records=%d, failed=%d); API is fully ready",
		time.Since(t0), res.Summary.Parsed, res.Summary.Failed)
	return nil
}

// Run serves until ctx is cancelled, then shuts the server down.
func (sc *ServeController) Run(ctx context.Context) error {
	go func() {
		utils.L().Info("background: parsing %s", sc.input)
		if err := sc.Load(ctx); err != nil {
			utils.L().Error("background parse failed: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		utils.L().Info("server ready on %s (data loading in background)", sc.cfg.Serve.Addr)
		errCh <- sc.echo.Start(sc.cfg.Serve.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sc.echo.Shutdown(shutdownCtx)
	}
}
