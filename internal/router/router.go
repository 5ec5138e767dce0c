// Package router wires handlers onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-zone-service/internal/auth"
	"github.com/iliyamo/parking-zone-service/internal/config"
	"github.com/iliyamo/parking-zone-service/internal/handler"
	"github.com/iliyamo/parking-zone-service/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Applications *handler.ApplicationHandler
	Locations    *handler.LocationHandler
	Zones        *handler.ZoneHandler
	AdminOwners  *handler.AdminOwnerHandler
	Public       *handler.PublicHandler
}

// Register mounts all routes. Public browse endpoints sit behind the Redis
// response cache and rate limiter; everything mutating sits behind JWT auth
// plus a capability guard, and the repositories re-check roles on top.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public browse surface (the "view_map" capability needs no token).
	pub := e.Group("/v1",
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	pub.GET("/locations", h.Public.ListLocations)
	pub.GET("/locations/:id/zones", h.Public.ListZones)
	pub.GET("/locations/:id/availability", h.Public.GetAvailability)

	// Session endpoints.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Any authenticated role.
	me := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	me.GET("/me", h.Auth.Me)
	me.POST("/owner-applications", h.Applications.Submit)
	me.GET("/owner-applications", h.Applications.ListMine)

	// Owner surface.
	owner := e.Group("/v1/owner",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireCapability(auth.CapManageOwnLocations))
	owner.POST("/locations", h.Locations.Create)
	owner.GET("/locations", h.Locations.ListMine)
	owner.PUT("/locations/:id", h.Locations.Update)
	owner.DELETE("/locations/:id", h.Locations.Delete)
	owner.POST("/locations/:id/zones", h.Zones.Create)
	owner.PUT("/zones/:id", h.Zones.Update)
	owner.PATCH("/zones/:id/availability", h.Zones.AdjustAvailability)
	owner.DELETE("/zones/:id", h.Zones.Delete)

	// Admin surface.
	admin := e.Group("/v1/admin", middleware.JWTAuth(cfg.JWTSecret))
	admin.GET("/owner-applications",
		h.Applications.ListForReview,
		middleware.RequireCapability(auth.CapReviewApplications))
	admin.POST("/owner-applications/:id/decision",
		h.Applications.Decide,
		middleware.RequireCapability(auth.CapReviewApplications))
	admin.DELETE("/owners/:id",
		h.AdminOwners.RemoveOwner,
		middleware.RequireCapability(auth.CapRemoveOwners))
}
