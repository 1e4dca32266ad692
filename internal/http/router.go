package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/smallbiznis/boardview/internal/config"
	"github.com/smallbiznis/boardview/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/boardview/internal/http/middleware"
	"github.com/smallbiznis/boardview/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, boardHandler *handler.BoardHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpmiddleware.Session())

	r.GET("/", boardHandler.Index)
	r.GET("/login", boardHandler.Login)
	r.GET("/callback", boardHandler.Callback)
	r.GET("/logout", boardHandler.Logout)

	api := r.Group("/api")
	{
		api.GET("/boards", boardHandler.ListBoards)
		api.GET("/boards/:id", boardHandler.GetBoard)
		api.GET("/boards/:id/report", boardHandler.GetBoardReport)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
