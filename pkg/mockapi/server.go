// Package mockapi is a self-contained analytics service speaking the exact
// wire contract the dashboard client expects. It keeps trials in sqlite so
// list queries run through real filters, and reuses the offline package's
// explanation and chat semantics, so the two backends never drift apart.
package mockapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/loader"
	"github.com/ptscope/ptscope/pkg/model"
)

// Config holds everything the server needs; zero values get sensible
// defaults in New.
type Config struct {
	// DBPath is the sqlite file; ":memory:" keeps the store ephemeral.
	DBPath string
	// DataPath optionally seeds from a JSONL dataset instead of the
	// generator.
	DataPath string
	// SeedCount sizes the generated portfolio when DataPath is empty.
	SeedCount int
	Logger    zerolog.Logger
}

// Server owns the database and the gin engine.
type Server struct {
	db        *gorm.DB
	engine    *gin.Engine
	responder assistant.Responder
	log       zerolog.Logger
}

// New opens the database, seeds it when empty, and wires the routes.
func New(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	if cfg.SeedCount < 1 {
		cfg.SeedCount = 120
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping database handle: %w", err)
	}
	// A single connection keeps an in-memory database visible to every
	// request; sqlite is single-writer regardless.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&trialRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &Server{
		db:        db,
		responder: assistant.NewCanned(),
		log:       cfg.Logger,
	}
	if err := s.seed(cfg); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), observe())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/trials", s.listTrials)
		api.GET("/trials/analytics", s.trialAnalytics)
		api.GET("/trials/:id/shap", s.trialExplanation)
		api.POST("/chat", s.chat)
	}
	s.engine = r

	return s, nil
}

// Handler exposes the engine, mainly so tests can mount it on httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Count returns the number of stored trials.
func (s *Server) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&trialRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting trials: %w", err)
	}
	return n, nil
}

// seed fills an empty database from the JSONL dataset or the generator. A
// reopened file-backed database keeps its rows.
func (s *Server) seed(cfg Config) error {
	n, err := s.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug().Int64("trials", n).Msg("database already seeded")
		return nil
	}

	var trials []model.Trial
	if cfg.DataPath != "" {
		trials, err = loader.LoadTrials(cfg.DataPath)
		if err != nil {
			return fmt.Errorf("seeding from %s: %w", cfg.DataPath, err)
		}
		s.log.Info().Str("path", cfg.DataPath).Int("trials", len(trials)).Msg("seeded from dataset")
	} else {
		trials = Seed(cfg.SeedCount)
		s.log.Info().Int("trials", len(trials)).Msg("seeded from generator")
	}

	recs := make([]trialRecord, len(trials))
	for i, t := range trials {
		recs[i] = toRecord(t)
	}
	if err := s.db.CreateInBatches(recs, 100).Error; err != nil {
		return fmt.Errorf("inserting seed rows: %w", err)
	}
	return nil
}

// allTrials loads the full portfolio in stable ID order.
func (s *Server) allTrials() ([]model.Trial, error) {
	var recs []trialRecord
	if err := s.db.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("loading trials: %w", err)
	}
	return toTrials(recs), nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// observe records the request counter and latency histogram per route.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
