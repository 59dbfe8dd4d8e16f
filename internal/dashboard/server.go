package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"BandSentinel/internal/logger"
	"BandSentinel/internal/model"
	"BandSentinel/internal/render"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource supplies reports to the dashboard.
type ReportSource interface {
	// Latest returns the report of the last refresh cycle, or nil.
	Latest() *model.Report
	// Evaluate evaluates the current snapshot at deviation.
	Evaluate(deviation float64) *model.Report
	RefreshedAt() time.Time
}

// Options describes what the dashboard offers and where it listens.
type Options struct {
	Host             string
	Port             int
	Window           int
	Deviation        float64
	DeviationOptions []float64
	Symbols          []string
	Interval         string
	Provider         string
	RefreshSeconds   int
	ShutdownTimeout  time.Duration
}

// Server is the HTTP presentation layer.
type Server struct {
	echo *echo.Echo
	opts Options
	src  ReportSource
	hub  *Hub
	log  *logger.Logger
	page *template.Template
}

// NewServer creates the dashboard server and registers its routes.
func NewServer(src ReportSource, opts Options, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(recovery(log))
	e.Use(requestLogging(log))

	s := &Server{
		echo: e,
		opts: opts,
		src:  src,
		hub:  NewHub(log),
		log:  log,
		page: template.Must(template.New("index").Funcs(template.FuncMap{
			"price": render.FormatPrice,
		}).Parse(indexHTML)),
	}

	e.GET("/", s.handleIndex)
	e.GET("/api/signals", s.handleSignals)
	e.GET("/api/config", s.handleConfig)
	e.GET("/ws", s.handleWS)
	e.GET("/healthz", s.handleHealth)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Hub returns the websocket hub; feed it cycle reports via Broadcast.
func (s *Server) Hub() *Hub { return s.hub }

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start starts listening in the background.
func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	go func() {
		s.log.Info("http server listening", logger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", logger.Error(err))
		}
	}()
}

// Stop disconnects websocket clients and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	ctx, cancel := context.WithTimeout(ctx, s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// deviation reads the "deviation" query parameter. It must be one of the
// configured options; absent means the default.
func (s *Server) deviation(c echo.Context) (float64, error) {
	raw := c.QueryParam("deviation")
	if raw == "" {
		return s.opts.Deviation, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("deviation %q is not a number", raw)
	}
	for _, o := range s.opts.DeviationOptions {
		if o == d {
			return d, nil
		}
	}
	return 0, fmt.Errorf("deviation %v is not one of the available options", d)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSignals(c echo.Context) error {
	d, err := s.deviation(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, s.src.Evaluate(d))
}

type configResponse struct {
	Provider         string    `json:"provider"`
	Interval         string    `json:"interval"`
	Window           int       `json:"window"`
	Deviation        float64   `json:"deviation"`
	DeviationOptions []float64 `json:"deviation_options"`
	Symbols          []string  `json:"symbols"`
}

func (s *Server) handleConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, configResponse{
		Provider:         s.opts.Provider,
		Interval:         s.opts.Interval,
		Window:           s.opts.Window,
		Deviation:        s.opts.Deviation,
		DeviationOptions: s.opts.DeviationOptions,
		Symbols:          s.opts.Symbols,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := map[string]any{"status": "ok", "ws_clients": s.hub.Len()}
	if t := s.src.RefreshedAt(); !t.IsZero() {
		resp["refreshed_at"] = t
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWS(c echo.Context) error {
	return s.hub.serve(c, s.src.Latest())
}

type pageData struct {
	Deviation      float64
	Options        []float64
	Window         int
	Interval       string
	RefreshSeconds int
	GeneratedAt    string
	Banner         string
	HasSignals     bool
	Pending        bool
	Rows           []render.Row
	Failures       []model.PairFailure
}

func (s *Server) handleIndex(c echo.Context) error {
	d, err := s.deviation(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	data := pageData{
		Deviation:      d,
		Options:        s.opts.DeviationOptions,
		Window:         s.opts.Window,
		Interval:       s.opts.Interval,
		RefreshSeconds: s.opts.RefreshSeconds,
	}
	refreshed := s.src.RefreshedAt()
	if refreshed.IsZero() {
		data.Pending = true
		data.Banner = render.MessagePending
		return s.renderPage(c, data)
	}

	report := s.src.Evaluate(d)
	data.Rows = render.Rows(report)
	data.HasSignals = len(data.Rows) > 0
	data.Banner = render.Banner(report)
	data.Failures = report.Failures
	data.GeneratedAt = refreshed.Format("2006-01-02 15:04:05")
	return s.renderPage(c, data)
}

func (s *Server) renderPage(c echo.Context, data pageData) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return s.page.Execute(c.Response(), data)
}
