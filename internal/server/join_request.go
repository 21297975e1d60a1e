package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	joinrequestdomain "github.com/rfpdock/rfpdock/internal/joinrequest/domain"
)

type SubmitJoinRequestRequest struct {
	CompanyID string `json:"company_id"`
	Message   string `json:"message"`
}

type RejectJoinRequestRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) SubmitJoinRequest(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req SubmitJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	request, err := s.joinRequestSvc.Request(c.Request.Context(), principal, joinrequestdomain.RequestJoin{
		CompanyID: req.CompanyID,
		Message:   req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (s *Server) ListJoinRequests(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	requests, err := s.joinRequestSvc.ListForCompany(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"join_requests": requests})
}

func (s *Server) ApproveJoinRequest(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	request, err := s.joinRequestSvc.Approve(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (s *Server) RejectJoinRequest(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	// The body is optional; an empty reason means a bare rejection.
	var req RejectJoinRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	request, err := s.joinRequestSvc.Reject(c.Request.Context(), principal, c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}
