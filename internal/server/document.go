package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
)

type CreateDocumentRequest struct {
	RFPID            string `json:"rfp_id"`
	Title            string `json:"title"`
	FilePath         string `json:"file_path"`
	ContentType      string `json:"content_type"`
	SizeBytes        int64  `json:"size_bytes"`
	RequiresNDA      bool   `json:"requires_nda"`
	RequiresApproval bool   `json:"requires_approval"`
}

func (s *Server) CreateDocument(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	document, err := s.documentSvc.Create(c.Request.Context(), principal, documentdomain.CreateDocumentRequest{
		RFPID:            req.RFPID,
		Title:            req.Title,
		FilePath:         req.FilePath,
		ContentType:      req.ContentType,
		SizeBytes:        req.SizeBytes,
		RequiresNDA:      req.RequiresNDA,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, document)
}

func (s *Server) GetDocument(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	document, err := s.documentSvc.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func (s *Server) ListRFPDocuments(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	documents, err := s.documentSvc.ListForRFP(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// DownloadDocument runs the entitlement gates and returns a short-lived
// link rather than streaming the object through the API.
func (s *Server) DownloadDocument(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	download, err := s.documentSvc.DownloadURL(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, download)
}
