package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/moltbook/observatory/src/config"
	"github.com/moltbook/observatory/src/council"
	"github.com/moltbook/observatory/src/publication"
)

func New(cfg config.Config, coordinator *publication.Coordinator, panel *council.Council, audit AuditReader) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:3000"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	authH := NewAuth([]byte(cfg.JWTSecret))
	pubH := NewPublications(coordinator, panel, audit)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/token", authH.Token)
		v1.GET("/health", pubH.Health)

		secured := v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.POST("/publications", pubH.Submit)
		secured.GET("/publications/queue", pubH.Queue)
		secured.POST("/publications/process", pubH.ProcessQueue)
		secured.POST("/publications/:id/review", pubH.Review)
		secured.POST("/publications/:id/publish", pubH.Publish)
		secured.POST("/safety/check", pubH.SafetyCheck)
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		admin.GET("/integrity", pubH.Integrity)
	}

	return r
}
