package api

import (
	"net/http"

	"api_pos/internal/auth"
	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers every endpoint of the terminal on the given Gin
// engine. Product administration and user management are only reachable
// with an admin session; selling and browsing need any session.
func InitRoutes(e *gin.Engine, salesService *sales.Service, authService *auth.Service, logger *zap.Logger) {
	salesHandler := NewSalesHandler(salesService, logger)
	authHandler := NewAuthHandler(authService, logger)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	e.POST("/login", authHandler.handleLogin)

	authed := e.Group("/", requireSession(authService, logger))
	authed.POST("/logout", authHandler.handleLogout)
	authed.GET("/session", authHandler.handleSession)
	authed.GET("/products", salesHandler.handleListProducts)
	authed.GET("/products/:id", salesHandler.handleGetProduct)
	authed.POST("/sales", salesHandler.handleSell)
	authed.GET("/sales", salesHandler.handleListSales)

	admin := authed.Group("/", requireRole(auth.RoleAdmin))
	admin.POST("/products", salesHandler.handleUpsertProduct)
	admin.PATCH("/products/:id/stock", salesHandler.handleRestock)
	admin.DELETE("/products/:id", salesHandler.handleDeleteProduct)
	admin.GET("/users", authHandler.handleListUsers)
	admin.POST("/users", authHandler.handleCreateUser)
	admin.DELETE("/users/:username", authHandler.handleDeleteUser)
}
