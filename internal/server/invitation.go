package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/rfpdock/rfpdock/internal/invitation/domain"
	"go.uber.org/zap"
)

type IssueInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RedeemInvitationRequest struct {
	Token string `json:"token"`
}

func (s *Server) IssueInvitation(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	companyID := c.Param("id")
	allowed, err := s.limiter.AllowInvite(c.Request.Context(), companyID)
	if err != nil {
		s.log.Warn("invite rate limit check failed", zap.Error(err))
		allowed = true
	}
	if !allowed {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req IssueInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.invitationSvc.Issue(c.Request.Context(), principal, invitationdomain.IssueRequest{
		CompanyID: companyID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) RedeemInvitation(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req RedeemInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invitation, err := s.invitationSvc.Redeem(c.Request.Context(), principal, req.Token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

func (s *Server) ListCompanyInvitations(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invitations, err := s.invitationSvc.ListByCompany(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.invitationSvc.Revoke(c.Request.Context(), principal, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
