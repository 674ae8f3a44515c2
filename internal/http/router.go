package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts the local API. Only loopback clients on a local Host are served;
// browsers additionally need their origin in allowedOrigins.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	origins := normalizeOrigins(allowedOrigins)
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           CORSMaxAge,
		}))
	}

	api := r.Group("/api", localOnly())
	{
		api.GET("/health", h.Health)

		api.GET("/networks", h.ListNetworks)
		api.GET("/networks/:chainId", h.GetNetwork)

		api.GET("/wallet", h.WalletState)
		api.POST("/wallet/connect", h.ConnectWallet)
		api.POST("/wallet/disconnect", h.DisconnectWallet)

		d := api.Group("/dex")
		d.POST("/pairs", h.CreatePair)
		d.POST("/liquidity/add", h.AddLiquidity)
		d.POST("/liquidity/remove", h.RemoveLiquidity)
		d.POST("/swap", h.Swap)
		d.GET("/reserves", h.Reserves)
		d.GET("/liquidity", h.LiquidityBalance)
		d.GET("/pair-id", h.PairID)
		d.GET("/allowance", h.Allowance)

		api.GET("/tokens", h.ListTokens)
		api.POST("/tokens", h.AddToken)
		api.GET("/tokens/:address", h.TokenInfo)
		api.DELETE("/tokens/:address", h.RemoveToken)
		api.GET("/tokens/:address/balance", h.TokenBalance)
	}

	return r
}
