package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
)

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Allocation *AllocationHandler
	Manifest   *ManifestHandler
	Event      *EventHandler
	Challenge  *ChallengeHandler
	Elder      *ElderHandler
	Postal     *PostalHandler
}

// Register mounts the API routes. auth guards every route that needs a session.
func Register(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	api.POST("/auth/challenge", h.Challenge.Begin)
	api.POST("/auth/challenge/answer", h.Challenge.Answer)
	api.GET("/manifests/shared/:token", h.Manifest.Shared)
	api.GET("/postal-codes/:cep", h.Postal.Lookup)

	secured := api.Group("")
	secured.Use(auth)
	secured.GET("/auth/me", h.Challenge.Me)

	secured.GET("/events", h.Event.List)
	secured.GET("/events/:eventId", h.Event.Get)
	secured.POST("/events/:eventId/duplicate", h.Event.Duplicate)
	secured.GET("/events/:eventId/share", h.Event.Share)
	secured.GET("/drivers/me/tasks", middleware.RequireDriver(), h.Event.MyTasks)

	secured.GET("/elders", h.Elder.List)
	secured.GET("/elders/neighborhoods", h.Elder.Neighborhoods)
	secured.POST("/elders/whatsapp", h.Elder.WhatsApp)

	board := secured.Group("/allocation/events/:eventId")
	board.GET("", h.Allocation.Board)
	board.POST("/assignments", h.Allocation.Assign)
	board.DELETE("/assignments/:elderId", h.Allocation.Unassign)
	board.PATCH("/assignments/:elderId", h.Allocation.Update)
	board.POST("/assignments/:elderId/cycle-status", h.Allocation.CycleStatus)
	board.POST("/assignments/:elderId/cycle-trip", h.Allocation.CycleTripType)
	board.POST("/auto-match", h.Allocation.AutoMatch)
	board.GET("/persist-log", h.Allocation.PersistLog)
	board.GET("/manifests", h.Manifest.All)
	board.GET("/manifests/:driverId", h.Manifest.Driver)
	board.POST("/manifests/:driverId/share", h.Manifest.Share)
}
