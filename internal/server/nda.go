package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ndadomain "github.com/rfpdock/rfpdock/internal/nda/domain"
)

type SignNDARequest struct {
	SignaturePayload map[string]any `json:"signature_payload"`
}

type CountersignNDARequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (s *Server) SignIndividualNDA(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	// The body is optional; signing without a payload is a bare attestation.
	var req SignNDARequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	record, err := s.ndaSvc.SignIndividual(c.Request.Context(), principal, c.Param("id"), req.SignaturePayload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) SignCompanyNDA(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	record, err := s.ndaSvc.SignCompany(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) CountersignNDA(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CountersignNDARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.ndaSvc.Countersign(c.Request.Context(), principal, ndadomain.CountersignRequest{
		NDAID:   c.Param("id"),
		Approve: req.Approve,
		Reason:  req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) ListRFPNDAs(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	records, err := s.ndaSvc.ListForRFP(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ndas": records})
}
