package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	"go.uber.org/zap"
)

type CreateCompanyRequest struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Domain   string `json:"domain"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companySvc.Create(c.Request.Context(), principal, companydomain.CreateCompanyRequest{
		Name:     req.Name,
		Industry: req.Industry,
		Domain:   req.Domain,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

func (s *Server) GetCompany(c *gin.Context) {
	company, err := s.companySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) ListCompanyMembers(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	members, err := s.companySvc.ListMembers(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) RemoveCompanyMember(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.companySvc.RemoveMember(c.Request.Context(), principal, c.Param("id"), c.Param("userId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) SearchCompanies(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	allowed, err := s.limiter.AllowSearch(c.Request.Context(), principal.ID)
	if err != nil {
		// Fail open: losing redis should not take the directory down.
		s.log.Warn("search rate limit check failed", zap.Error(err))
		allowed = true
	}
	if !allowed {
		AbortWithError(c, ErrRateLimited)
		return
	}

	results, err := s.companySvc.Search(c.Request.Context(), principal, c.Query("q"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": results})
}

func (s *Server) SuggestCompanies(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	results, err := s.companySvc.Suggest(c.Request.Context(), principal)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": results})
}
