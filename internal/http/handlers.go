// README: Booking, matching, and consolidation handlers.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"haulmatch/internal/modules/booking"
	"haulmatch/internal/modules/consolidation"
	"haulmatch/internal/types"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

type createBookingReq struct {
	RequestID          string          `json:"request_id"`
	UserID             string          `json:"user_id"`
	BookingType        string          `json:"booking_type"`
	BookingMode        string          `json:"booking_mode"`
	WeightKg           float64         `json:"weight_kg"`
	ProductType        string          `json:"product_type"`
	Dimensions         string          `json:"dimensions"`
	Perishable         bool            `json:"perishable"`
	NeedsRefrigeration bool            `json:"needs_refrigeration"`
	UrgentDelivery     bool            `json:"urgent_delivery"`
	InsuredValue       int64           `json:"insured_value"`
	SpecialCargo       []string        `json:"special_cargo"`
	From               locationReq     `json:"from_location"`
	To                 locationReq     `json:"to_location"`
	Recurrence         json.RawMessage `json:"recurrence"`
}

type locationReq struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"latitude"`
	Lng     *float64 `json:"longitude"`
}

func (l locationReq) toLocation() types.Location {
	return types.Location{Address: l.Address, Lat: l.Lat, Lng: l.Lng}
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	b, err := s.booking.Create(c.Request.Context(), booking.CreateCommand{
		RequestID:          req.RequestID,
		UserID:             types.ID(req.UserID),
		Type:               booking.Type(req.BookingType),
		Mode:               booking.Mode(req.BookingMode),
		WeightKg:           req.WeightKg,
		ProductType:        req.ProductType,
		Dimensions:         req.Dimensions,
		Perishable:         req.Perishable,
		NeedsRefrigeration: req.NeedsRefrigeration,
		UrgentDelivery:     req.UrgentDelivery,
		InsuredValue:       req.InsuredValue,
		SpecialCargo:       req.SpecialCargo,
		From:               req.From.toLocation(),
		To:                 req.To.toLocation(),
		Recurrence:         req.Recurrence,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking_id": b.ID, "status": b.Status, "cost": b.Cost})
}

func (s *Server) handleGetBooking(c *gin.Context) {
	b, err := s.booking.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleBookingHistory(c *gin.Context) {
	history, err := s.booking.StatusHistory(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) handleMatchBooking(c *gin.Context) {
	candidate, err := s.matching.MatchBooking(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if candidate == nil {
		c.JSON(http.StatusOK, gin.H{"matched": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": true, "transporter_id": candidate.ID})
}

type acceptBookingReq struct {
	TransporterID string `json:"transporter_id"`
	VehicleID     string `json:"vehicle_id"`
}

func (s *Server) handleAcceptBooking(c *gin.Context) {
	var req acceptBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := s.booking.Accept(c.Request.Context(), booking.AcceptCommand{
		BookingID:     types.ID(c.Param("id")),
		TransporterID: types.ID(req.TransporterID),
		VehicleID:     types.ID(req.VehicleID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": booking.StatusAccepted})
}

func (s *Server) handleStartBooking(c *gin.Context) {
	err := s.booking.Start(c.Request.Context(), booking.StartCommand{BookingID: types.ID(c.Param("id"))})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": booking.StatusInProgress})
}

func (s *Server) handleCompleteBooking(c *gin.Context) {
	err := s.booking.Complete(c.Request.Context(), booking.CompleteCommand{BookingID: types.ID(c.Param("id"))})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": booking.StatusCompleted})
}

type cancelBookingReq struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelBooking(c *gin.Context) {
	var req cancelBookingReq
	_ = c.ShouldBindJSON(&req)
	err := s.booking.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": booking.StatusCancelled})
}

type consolidateReq struct {
	BookingIDs []string `json:"booking_ids"`
}

func (s *Server) handleConsolidate(c *gin.Context) {
	var req consolidateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ids := make([]types.ID, len(req.BookingIDs))
	for i, id := range req.BookingIDs {
		ids[i] = types.ID(id)
	}
	result, err := s.consolidation.MatchConsolidatedBookings(c.Request.Context(), ids)
	if err != nil {
		if errors.Is(err, consolidation.ErrInsufficientBookings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeBookingError(c, err)
		return
	}
	resp := gin.H{
		"booking_id": result.Booking.ID,
		"request_id": result.Booking.RequestID,
		"weight_kg":  result.Booking.WeightKg,
		"matched":    result.Transporter != nil,
	}
	if result.Transporter != nil {
		resp["transporter_id"] = result.Transporter.ID
	}
	c.JSON(http.StatusCreated, resp)
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrTransporterMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
