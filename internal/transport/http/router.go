package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the JSON API, the quiz websocket and the health check.
func NewRouter(h *Handler, ws *WSHandler, tokens TokenParser) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapF(ws.ServeWS))

	api := router.Group("/api")
	{
		api.GET("/regions", h.Regions)
		api.GET("/quizzes", h.ListQuizzes)
		api.GET("/quizzes/:id", h.GetQuiz)
		api.GET("/catalog/:category/:name", h.ItemDetails)
		api.GET("/redeem/tiers", h.Tiers)
		api.GET("/leaderboard", h.Leaderboard)

		auth := api.Group("/auth")
		{
			auth.POST("/game/signup", h.GameSignup)
			auth.POST("/game/login", h.GameLogin)
			auth.POST("/email/signup", h.EmailSignup)
			auth.POST("/email/login", h.EmailLogin)
		}

		protected := api.Group("/")
		protected.Use(RequireAuth(tokens))
		{
			protected.GET("/profile", h.Profile)
			protected.GET("/profile/history", h.History)
			protected.GET("/profile/achievements", h.Achievements)

			protected.POST("/sessions", h.StartSession)
			protected.GET("/sessions/current", h.CurrentSession)
			protected.POST("/sessions/current/select", h.SelectAnswer)
			protected.POST("/sessions/current/advance", h.Advance)
			protected.POST("/sessions/current/settle", h.Settle)
			protected.DELETE("/sessions/current", h.Abandon)

			protected.POST("/redeem", h.Redeem)
		}
	}
	return router
}
