// README: API surface; registers HTTP routes and delegates to module services.
package http

import (
	"github.com/gin-gonic/gin"

	"haulmatch/internal/http/middleware"
	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/consolidation"
	"haulmatch/internal/modules/matching"
)

type ServerDeps struct {
	Booking       *booking.Service
	Matching      *matching.Service
	Consolidation *consolidation.Service
}

type Server struct {
	booking       *booking.Service
	matching      *matching.Service
	consolidation *consolidation.Service
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		booking:       deps.Booking,
		matching:      deps.Matching,
		consolidation: deps.Consolidation,
	}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.POST("/bookings", s.handleCreateBooking)
	api.GET("/bookings/:id", s.handleGetBooking)
	api.GET("/bookings/:id/history", s.handleBookingHistory)
	api.POST("/bookings/:id/match", s.handleMatchBooking)
	api.POST("/bookings/:id/accept", s.handleAcceptBooking)
	api.POST("/bookings/:id/start", s.handleStartBooking)
	api.POST("/bookings/:id/complete", s.handleCompleteBooking)
	api.POST("/bookings/:id/cancel", s.handleCancelBooking)
	api.POST("/consolidations", s.handleConsolidate)

	return r
}
