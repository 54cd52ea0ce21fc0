package main

import (
	"github.com/gin-gonic/gin"
	"payment-links.backend/internal/interfaces/http/handlers"
	"payment-links.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	paymentLinkHandler    *handlers.PaymentLinkHandler
	statusHandler         *handlers.PaymentLinkStatusHandler
	currencyConfigHandler *handlers.CurrencyConfigHandler
	authMiddleware        gin.HandlerFunc
	idempotency           gin.HandlerFunc
}

func registerPayUWebhookRoute(r *gin.Engine, h *handlers.PayUWebhookHandler) {
	// PayU posts here; other methods get 405 from the handler itself
	r.Any("/payu/webhook", h.HandleWebhook)
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Storefront status poll (public)
		v1.POST("/payment-links/status", d.statusHandler.CheckStatus)

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.POST("/orders/:orderId/payment-links", d.idempotency, d.paymentLinkHandler.CreatePaymentLink)
			admin.GET("/orders/:orderId/payment-links", d.paymentLinkHandler.ListPaymentLinks)
			admin.GET("/orders/:orderId/payment-summary", d.paymentLinkHandler.GetPaymentSummary)
			admin.POST("/payment-links/:invoice/refresh", d.paymentLinkHandler.RefreshPaymentLink)
			admin.DELETE("/payment-links/:id", d.paymentLinkHandler.DeletePaymentLink)

			admin.GET("/currency-configs", d.currencyConfigHandler.ListConfigs)
			admin.POST("/currency-configs", d.currencyConfigHandler.CreateConfig)
			admin.GET("/currency-configs/active-currencies", d.currencyConfigHandler.ListActiveCurrencies)
			admin.GET("/currency-configs/:id", d.currencyConfigHandler.GetConfig)
			admin.PUT("/currency-configs/:id", d.currencyConfigHandler.UpdateConfig)
			admin.DELETE("/currency-configs/:id", d.currencyConfigHandler.DeleteConfig)
			admin.POST("/currency-configs/:id/status", d.currencyConfigHandler.SetConfigStatus)
		}
	}
}
