package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thinkflow/internal/repository"
	"thinkflow/internal/retrospect"
)

// Error codes returned in the response envelope.
const (
	codeInvalidID         = "INVALID_ID"
	codeNotFound          = "NOT_FOUND"
	codeNotATask          = "NOT_A_TASK"
	codeTaskDetailMissing = "TASK_DETAIL_MISSING"
	codeTitleRequired     = "TITLE_REQUIRED"
	codeContentRequired   = "CONTENT_REQUIRED"
	codeInvalidBody       = "INVALID_BODY"
	codeInternal          = "INTERNAL_ERROR"
)

// actorHeader carries the acting user's id; authentication is out of
// scope, so the value is trusted as-is.
const actorHeader = "X-Actor-ID"

// Server provides the HTTP handlers for the ThinkFlow backend.
type Server struct {
	engine         *gin.Engine
	items          *repository.ItemRepository
	details        *repository.TaskDetailRepository
	tags           *repository.TagRepository
	comments       *repository.CommentRepository
	retro          *retrospect.Service
	logger         *slog.Logger
	staticDir      string
	defaultActorID uint
}

// Options bundles the server's collaborators.
type Options struct {
	DB             *gorm.DB
	Retrospect     *retrospect.Service
	Logger         *slog.Logger
	StaticDir      string
	DefaultActorID uint
}

// New constructs the HTTP server with routes and middleware configured.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:         router,
		items:          repository.NewItemRepository(opts.DB),
		details:        repository.NewTaskDetailRepository(opts.DB),
		tags:           repository.NewTagRepository(opts.DB),
		comments:       repository.NewCommentRepository(opts.DB),
		retro:          opts.Retrospect,
		logger:         logger,
		staticDir:      opts.StaticDir,
		defaultActorID: opts.DefaultActorID,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		items := api.Group("/items")
		{
			items.GET("", s.handleListItems)
			items.POST("", s.handleCreateItem)
			items.GET(":id", s.handleGetItem)
			items.PATCH(":id", s.handleUpdateItem)
			items.DELETE(":id", s.handleDeleteItem)

			items.GET(":id/tags", s.handleListItemTags)
			items.POST(":id/tags/:tagId", s.handleAttachTag)
			items.DELETE(":id/tags/:tagId", s.handleDetachTag)

			items.GET(":id/detail", s.handleGetDetail)
			items.POST(":id/detail", s.handleCreateDetail)
			items.PATCH(":id/detail", s.handleUpdateDetail)
			items.DELETE(":id/detail", s.handleDeleteDetail)

			items.GET(":id/comments", s.handleListComments)
			items.POST(":id/comments", s.handleCreateComment)

			items.GET(":id/retrospect", s.handleRetrospectState)
			items.POST(":id/retrospect/draft", s.handleEnsureDraft)
			items.PUT(":id/retrospect", s.handleSaveRetrospect)
		}

		comments := api.Group("/comments")
		{
			comments.GET(":id", s.handleGetComment)
			comments.PATCH(":id", s.handleUpdateComment)
			comments.DELETE(":id", s.handleDeleteComment)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", s.handleListTags)
			tags.POST("", s.handleCreateTag)
			tags.GET(":id", s.handleGetTag)
			tags.PATCH(":id", s.handleUpdateTag)
			tags.DELETE(":id", s.handleDeleteTag)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actorID resolves the acting user from the request header, falling back
// to the configured default.
func (s *Server) actorID(c *gin.Context) uint {
	raw := c.GetHeader(actorHeader)
	if raw == "" {
		return s.defaultActorID
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return s.defaultActorID
	}
	return uint(id)
}

// parseID converts a path parameter to uint with error handling.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, codeInvalidID)
		return 0, false
	}
	return uint(id), true
}

// respondSuccess wraps a payload in the JSON envelope.
func respondSuccess(c *gin.Context, status int, data any) {
	respondSuccessMeta(c, status, data, nil)
}

func respondSuccessMeta(c *gin.Context, status int, data, meta any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
		"meta":    meta,
		"message": nil,
	})
}

// respondFail returns a failure envelope with a stable code.
func respondFail(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{
		"success": false,
		"data":    nil,
		"meta":    nil,
		"message": code,
	})
}

// respondError logs an unclassified error and returns a 500 envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	if err != nil {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	respondFail(c, http.StatusInternalServerError, codeInternal)
}
