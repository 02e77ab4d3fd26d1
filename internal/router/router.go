// Package router assembles the gin engine.
package router

import (
	"github.com/gin-gonic/gin"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/internal/handler"
	"pdf-chat-go/internal/middleware"
	"pdf-chat-go/internal/service"
)

// Services are the dependencies of the HTTP surface.
type Services struct {
	Documents service.DocumentService
	Chat      service.ChatService
	// Limiter is nil when rate limiting is disabled.
	Limiter middleware.Limiter
}

// New registers every route on a fresh engine with request logging and recovery.
func New(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	if cfg.Server.MaxUploadMB > 0 {
		r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	}

	limit := func(route string, perMinute int) gin.HandlerFunc {
		if svc.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(svc.Limiter, route, perMinute)
	}

	pdfHandler := handler.NewPDFHandler(svc.Documents, cfg.Server.MaxUploadMB)
	chatHandler := handler.NewChatHandler(svc.Chat, svc.Documents)
	rl := cfg.RateLimit

	v1 := r.Group("/v1")
	{
		v1.POST("/pdf", limit("pdf", rl.PDF), pdfHandler.Upload)
		v1.GET("/pdf/:pdf_id", limit("pdf_info", rl.Default), pdfHandler.Get)
		v1.POST("/chat/:pdf_id", limit("chat", rl.Chat), chatHandler.Chat)
		v1.GET("/chat/:pdf_id/ws", limit("chat_ws", rl.Chat), chatHandler.Handle)
	}
	r.GET("/health", limit("health", rl.Default), handler.Health)

	return r
}
