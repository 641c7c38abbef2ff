package server

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fileplane/fileplane/internal/backend"
	"github.com/fileplane/fileplane/internal/config"
	"github.com/fileplane/fileplane/internal/file"
)

// Server wraps the HTTP surface and its dependencies.
type Server struct {
	router  *gin.Engine
	backend backend.Backend
	log     *zap.Logger
	cfg     config.ServerConfig
}

// New builds the server around a backend.
func New(b backend.Backend, log *zap.Logger, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logging(log))
	router.Use(cors.Default())
	if cfg.RateLimit.Enabled {
		router.Use(RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	s := &Server{
		router:  router,
		backend: b,
		log:     log,
		cfg:     cfg.Server,
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.POST("/list", s.list)
	v1.POST("/read", s.read)
	v1.POST("/write", s.write)
	v1.POST("/edit", s.edit)
	v1.POST("/grep", s.grep)
	v1.POST("/glob", s.glob)
	v1.GET("/download", s.download)

	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	s.log.Info("starting http server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// respond renders v as JSON through sonic.
func respond(c *gin.Context, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// fail maps a contract error to an HTTP status.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch backend.KindOf(err) {
	case backend.KindNotFound:
		status = http.StatusNotFound
	case backend.KindAlreadyExists, backend.KindAmbiguousMatch:
		status = http.StatusConflict
	case backend.KindInvalidPath, backend.KindInvalidArgument, backend.KindMalformedPattern:
		status = http.StatusBadRequest
	case backend.KindPermissionDenied:
		status = http.StatusForbidden
	case backend.KindSubstrate:
		status = http.StatusBadGateway
	}
	respond(c, status, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}

type listRequest struct {
	Path string `json:"path"`
}

func (s *Server) list(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := s.backend.List(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"entries": entries})
}

type readRequest struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

func (s *Server) read(c *gin.Context) {
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content, err := s.backend.Read(c.Request.Context(), req.Path, req.Offset, req.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"content": content})
}

type writeRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) write(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	path, err := s.backend.Write(c.Request.Context(), req.Path, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"path": path})
}

type editRequest struct {
	Path       string `json:"path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

func (s *Server) edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := s.backend.Edit(c.Request.Context(), req.Path, req.OldString, req.NewString, req.ReplaceAll)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"occurrences": count})
}

type grepRequest struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
	Glob    string `json:"glob"`
}

func (s *Server) grep(c *gin.Context) {
	var req grepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	matches, err := s.backend.Grep(c.Request.Context(), req.Pattern, req.Path, req.Glob)
	if err != nil {
		// Contract: a malformed pattern is a descriptive string, not
		// a failure.
		if backend.IsKind(err, backend.KindMalformedPattern) {
			respond(c, http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"matches": matches})
}

type globRequest struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

func (s *Server) glob(c *gin.Context) {
	var req globRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := s.backend.Glob(c.Request.Context(), req.Pattern, req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) download(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respond(c, http.StatusBadRequest, gin.H{"error": "path query parameter required"})
		return
	}
	rr, ok := s.backend.(backend.RawReader)
	if !ok {
		respond(c, http.StatusNotImplemented, gin.H{"error": "backend does not support raw downloads"})
		return
	}
	data, err := rr.Raw(c.Request.Context(), path)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, file.Sniff(data), data)
}
