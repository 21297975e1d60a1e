package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
)

type CreateRFPRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ClosesAt    *time.Time `json:"closes_at"`
}

func (s *Server) CreateRFP(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rfp, err := s.rfpSvc.Create(c.Request.Context(), principal, rfpdomain.CreateRFPRequest{
		Title:       req.Title,
		Description: req.Description,
		ClosesAt:    req.ClosesAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rfp)
}

func (s *Server) PublishRFP(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rfp, err := s.rfpSvc.Publish(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rfp)
}

func (s *Server) CloseRFP(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rfp, err := s.rfpSvc.Close(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rfp)
}

func (s *Server) GetRFP(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rfp, err := s.rfpSvc.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rfp)
}

func (s *Server) ListRFPs(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	rfps, err := s.rfpSvc.List(c.Request.Context(), principal)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rfps": rfps})
}

func (s *Server) RegisterForRFP(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	registration, err := s.rfpSvc.Register(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registration)
}

func (s *Server) ListRegistrations(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	registrations, err := s.rfpSvc.ListRegistrations(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": registrations})
}

func (s *Server) ApproveRegistration(c *gin.Context) {
	s.reviewRegistration(c, true)
}

func (s *Server) RejectRegistration(c *gin.Context) {
	s.reviewRegistration(c, false)
}

func (s *Server) reviewRegistration(c *gin.Context, approve bool) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	registration, err := s.rfpSvc.ReviewRegistration(c.Request.Context(), principal, c.Param("id"), approve)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, registration)
}
