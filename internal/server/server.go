package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hummingbird-labs/hummingbird/config"
	"github.com/hummingbird-labs/hummingbird/internal/capability"
	"github.com/hummingbird-labs/hummingbird/internal/enrich"
	"github.com/hummingbird-labs/hummingbird/internal/logocache"
	"github.com/hummingbird-labs/hummingbird/internal/plan"
	"github.com/hummingbird-labs/hummingbird/internal/runner"
	"github.com/hummingbird-labs/hummingbird/internal/session"
	"github.com/hummingbird-labs/hummingbird/provider"
	"github.com/hummingbird-labs/hummingbird/tools/web_search"
)

// Server is the HTTP surface of the recommendation backend.
type Server struct {
	cfg        *config.Config
	store      session.Store
	controller *session.Controller
	runs       *planRunner
	logger     *log.Logger
}

// Run wires the full application from configuration and blocks serving HTTP.
func Run(cfg *config.Config) error {
	logger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)
	ctx := context.Background()

	cache, err := logocache.Open(cfg.LogoCache.Path)
	if err != nil {
		return fmt.Errorf("opening logo cache: %w", err)
	}
	if cfg.LogoCache.DefaultLogoURL != "" {
		if _, ok := cache.Default(); !ok {
			if err := cache.Put(logocache.DefaultKey, cfg.LogoCache.DefaultLogoURL); err != nil {
				logger.Printf("seeding default logo: %v", err)
			}
		}
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm provider: %w", err)
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey)
	if err != nil {
		return fmt.Errorf("creating search provider: %w", err)
	}

	registry, err := capability.NewRegistry([]capability.Tool{
		&capability.ListTool{LLM: llm, Model: cfg.LLM.Routing.Model(cfg.LLM.Routing.Listing), MaxItems: 10},
		&capability.StructureTool{LLM: llm, Model: cfg.LLM.Routing.Model(cfg.LLM.Routing.Structuring)},
		&capability.SearchTool{Searcher: searcher, MaxResults: cfg.Search.MaxResults},
	}, nil)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	generation, err := plan.GenerationPlan()
	if err != nil {
		return fmt.Errorf("loading generation plan: %w", err)
	}

	var store session.Store
	switch cfg.Sessions.Store {
	case "redis":
		store, err = session.NewRedisStore(ctx, cfg.Sessions)
		if err != nil {
			return fmt.Errorf("creating redis session store: %w", err)
		}
	default:
		store = session.NewInMemoryStore()
	}

	srv := New(cfg, store, llm, registry, generation, cache)
	return srv.listen(cfg.Server.Address)
}

// New assembles a server from already-built dependencies. Split from Run so
// tests can inject stubs.
func New(cfg *config.Config, store session.Store, llm provider.Provider,
	registry *capability.Registry, generation *plan.Plan, cache *logocache.Cache) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		controller: session.NewController(store, llm, cfg.LLM.Routing.Model(cfg.LLM.Routing.Clarify)),
		runs: newPlanRunner(store, runner.New(registry), generation,
			enrich.New(cache, registry), cfg.General.DefaultTimeout),
		logger: log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}
}

// echoInstance builds the router with middleware and routes registered.
func (s *Server) echoInstance() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, headerWebhookSignature},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", s.webhookAuth)
	api.POST("/sessions/:id/messages", s.handleMessage)
	api.GET("/sessions/:id/recommendations", s.handleRecommendations)
	api.POST("/sessions/:id/end", s.handleEnd)
	return e
}

func (s *Server) listen(address string) error {
	e := s.echoInstance()
	s.logger.Printf("listening on %s", address)
	return e.Start(address)
}

// httpErrorHandler renders every error as a JSON envelope.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if !c.Response().Committed {
		if jsonErr := c.JSON(code, map[string]string{"error": msg}); jsonErr != nil {
			s.logger.Printf("writing error response: %v", jsonErr)
		}
	}
}
