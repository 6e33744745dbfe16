package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"user-registry/internal/container"
	handlers "user-registry/internal/interface/http"
	"user-registry/internal/interface/middleware"
)

// UserModule wires the user CRUD handlers into routes under /api.
// POST /users, GET /users, GET /users/search, GET/PATCH/DELETE /users/:id.
type UserModule struct {
	Handler    *handlers.UserHandler
	RateMax    int
	RateWindow time.Duration
}

func NewUserModule(h *handlers.UserHandler, rateMax int, rateWindow time.Duration) *UserModule {
	return &UserModule{Handler: h, RateMax: rateMax, RateWindow: rateWindow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(container.GetRedis(), m.RateMax, m.RateWindow, middleware.KeyByIP(), nil)

	users := rg.Group("/users")
	users.Use(limiter)
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/search", m.Handler.Search)
		users.GET("/:id", m.Handler.Get)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
