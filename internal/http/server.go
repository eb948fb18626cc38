package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the HTTP server with all routes registered.
func NewServer(addr string, h *Handler) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/cards", h.ListCardDefinitions)
		v1.GET("/cards/:id", h.GetCardDefinition)

		v1.POST("/user-cards", h.AddUserCard)
		v1.GET("/user-cards", h.ListUserCards)
		v1.GET("/user-cards/:id", h.GetUserCard)
		v1.PATCH("/user-cards/:id", h.UpdateUserCard)
		v1.DELETE("/user-cards/:id", h.DeleteUserCard)
		v1.GET("/user-cards/:id/caps", h.GetUserCardCaps)

		v1.POST("/transactions", h.RecordTransaction)
		v1.GET("/transactions", h.ListTransactions)
		v1.GET("/transactions/:id", h.GetTransaction)
		v1.PATCH("/transactions/:id", h.UpdateTransaction)
		v1.DELETE("/transactions/:id", h.DeleteTransaction)

		v1.POST("/recommendations", h.Recommend)

		v1.GET("/backup", h.ExportBackup)
		v1.POST("/backup", h.ImportBackup)
	}

	return &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}
