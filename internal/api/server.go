// Package api serves venue closure status over HTTP.
package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/memstore"
	"github.com/pcdogyu/market-closure/internal/runtimecfg"
	"github.com/pcdogyu/market-closure/internal/service"
	"github.com/pcdogyu/market-closure/internal/store/sqlite"
	"github.com/pcdogyu/market-closure/internal/symbol"
)

type Server struct {
	mgr *runtimecfg.Manager
	reg *service.Registry
	mem *memstore.Store
	db  *sql.DB
	log *zap.Logger
}

func New(mgr *runtimecfg.Manager, reg *service.Registry, mem *memstore.Store, db *sql.DB, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mem == nil {
		mem = memstore.New()
	}
	return &Server{mgr: mgr, reg: reg, mem: mem, db: db, log: logger}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/venues", s.listVenues)
	api.GET("/venues/:name", s.getVenue)
	api.GET("/venues/:name/history", s.venueHistory)
	api.GET("/symbols/:symbol", s.getSymbol)
	api.GET("/config", s.getConfig)
	api.POST("/config", s.postConfig)
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// listVenues evaluates every venue live; ?cached=1 serves the monitor's
// last snapshot instead.
func (s *Server) listVenues(c *gin.Context) {
	if c.Query("cached") == "1" {
		c.JSON(http.StatusOK, s.mem.Snapshot())
		return
	}
	c.JSON(http.StatusOK, s.reg.StatusAll())
}

// getVenue accepts an optional ?at=RFC3339 to evaluate another instant,
// or ?cached=1 for the monitor's last status of the venue.
func (s *Server) getVenue(c *gin.Context) {
	name := c.Param("name")
	if c.Query("cached") == "1" {
		st, ok := s.mem.Get(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no cached status"})
			return
		}
		c.JSON(http.StatusOK, st)
		return
	}
	if st, ok := s.status(c, name); ok {
		c.JSON(http.StatusOK, st)
	}
}

type symbolStatus struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
	service.VenueStatus
}

// getSymbol reports the status of the venue a symbol trades on.
func (s *Server) getSymbol(c *gin.Context) {
	sym := c.Param("symbol")
	code, err := symbol.CodeOnly(sym)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name, err := s.reg.VenueForSymbol(sym)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if st, ok := s.status(c, name); ok {
		c.JSON(http.StatusOK, symbolStatus{Symbol: sym, Code: code, VenueStatus: st})
	}
}

// status evaluates name, honoring ?at. On failure it writes the error
// response and returns false.
func (s *Server) status(c *gin.Context, name string) (service.VenueStatus, bool) {
	var (
		st  service.VenueStatus
		err error
	)
	if at := c.Query("at"); at != "" {
		t, perr := time.Parse(time.RFC3339, at)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at must be RFC3339"})
			return st, false
		}
		st, err = s.reg.StatusAt(name, t)
	} else {
		st, err = s.reg.Status(name)
	}
	if errors.Is(err, service.ErrUnknownVenue) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return st, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return st, false
	}
	return st, true
}

func (s *Server) venueHistory(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.mgr.Get().Venue(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown venue"})
		return
	}
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not enabled"})
		return
	}
	limit := parseLimit(c.Query("limit"), 200, 2000)
	rows, err := sqlite.QueryStatus(s.db, name, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, toConfigView(s.mgr.Get()))
}

func (s *Server) postConfig(c *gin.Context) {
	var p runtimecfg.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := s.mgr.Update(p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("config updated", zap.String("venue", p.Venue))
	c.JSON(http.StatusOK, toConfigView(cfg))
}

// configView leaves out credentials.
type configView struct {
	HTTPAddr          string         `json:"http_addr"`
	RetentionDays     int            `json:"retention_days"`
	IntervalSeconds   int            `json:"monitor_interval_seconds"`
	OnlyRecordChanges bool           `json:"only_record_changes"`
	Venues            []config.Venue `json:"venues"`
}

func toConfigView(cfg config.Config) configView {
	v := configView{
		HTTPAddr:          cfg.HTTPAddr,
		RetentionDays:     cfg.RetentionDays,
		IntervalSeconds:   cfg.Monitor.IntervalSeconds,
		OnlyRecordChanges: true,
		Venues:            cfg.Venues,
	}
	if cfg.Monitor.OnlyRecordChanges != nil {
		v.OnlyRecordChanges = *cfg.Monitor.OnlyRecordChanges
	}
	return v
}

func parseLimit(s string, def, max int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
