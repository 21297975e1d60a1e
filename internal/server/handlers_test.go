package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	"github.com/rfpdock/rfpdock/internal/config"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/identity/session"
	invitationdomain "github.com/rfpdock/rfpdock/internal/invitation/domain"
	joinrequestdomain "github.com/rfpdock/rfpdock/internal/joinrequest/domain"
	"go.uber.org/zap"
)

func withPrincipal(p identitydomain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextPrincipalKey, p)
		c.Next()
	}
}

func testServer() *Server {
	return &Server{
		cfg:      config.Config{},
		log:      zap.NewNop(),
		sessions: session.NewManager(config.Config{}),
	}
}

type fakeIdentityService struct {
	authenticateErr error
}

func (f *fakeIdentityService) CreateUser(ctx context.Context, req identitydomain.CreateUserRequest) (*identitydomain.User, error) {
	_ = ctx
	return &identitydomain.User{ID: snowflake.ID(1), Email: req.Email}, nil
}

func (f *fakeIdentityService) Login(ctx context.Context, req identitydomain.LoginRequest) (*identitydomain.LoginResult, error) {
	_ = ctx
	_ = req
	return &identitydomain.LoginResult{RawToken: "token"}, nil
}

func (f *fakeIdentityService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	return nil
}

func (f *fakeIdentityService) Authenticate(ctx context.Context, rawToken string) (identitydomain.Principal, error) {
	_ = ctx
	_ = rawToken
	if f.authenticateErr != nil {
		return identitydomain.Principal{}, f.authenticateErr
	}
	return identitydomain.Principal{ID: snowflake.ID(7), Email: "user@acme.example", PlatformRole: identitydomain.RoleBidder}, nil
}

type fakeInvitationService struct {
	redeemErr error
}

func (f *fakeInvitationService) Issue(ctx context.Context, principal identitydomain.Principal, req invitationdomain.IssueRequest) (*invitationdomain.IssueResponse, error) {
	_ = ctx
	_ = principal
	_ = req
	return &invitationdomain.IssueResponse{Token: "one-time"}, nil
}

func (f *fakeInvitationService) Redeem(ctx context.Context, principal identitydomain.Principal, token string) (*invitationdomain.InvitationResponse, error) {
	_ = ctx
	_ = principal
	_ = token
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return &invitationdomain.InvitationResponse{Status: "ACCEPTED"}, nil
}

func (f *fakeInvitationService) ListByCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]invitationdomain.InvitationResponse, error) {
	_ = ctx
	_ = principal
	_ = companyID
	return nil, nil
}

func (f *fakeInvitationService) Revoke(ctx context.Context, principal identitydomain.Principal, invitationID string) error {
	_ = ctx
	_ = principal
	_ = invitationID
	return nil
}

type fakeCompanyService struct {
	searchCalls int
}

func (f *fakeCompanyService) Create(ctx context.Context, principal identitydomain.Principal, req companydomain.CreateCompanyRequest) (*companydomain.CompanyResponse, error) {
	_ = ctx
	_ = principal
	return &companydomain.CompanyResponse{Name: req.Name}, nil
}

func (f *fakeCompanyService) GetByID(ctx context.Context, id string) (*companydomain.CompanyResponse, error) {
	_ = ctx
	_ = id
	return nil, companydomain.ErrNotFound
}

func (f *fakeCompanyService) ListMembers(ctx context.Context, principal identitydomain.Principal, companyID string) ([]companydomain.MemberResponse, error) {
	_ = ctx
	_ = principal
	_ = companyID
	return nil, companydomain.ErrForbidden
}

func (f *fakeCompanyService) RemoveMember(ctx context.Context, principal identitydomain.Principal, companyID, userID string) error {
	_ = ctx
	_ = principal
	_ = companyID
	_ = userID
	return nil
}

func (f *fakeCompanyService) Search(ctx context.Context, principal identitydomain.Principal, term string) ([]companydomain.CompanySummary, error) {
	f.searchCalls++
	_ = ctx
	_ = principal
	_ = term
	return []companydomain.CompanySummary{{Name: "Acme"}}, nil
}

func (f *fakeCompanyService) Suggest(ctx context.Context, principal identitydomain.Principal) ([]companydomain.CompanySummary, error) {
	_ = ctx
	_ = principal
	return nil, nil
}

type fakeDocumentService struct {
	downloadErr error
}

func (f *fakeDocumentService) Create(ctx context.Context, principal identitydomain.Principal, req documentdomain.CreateDocumentRequest) (*documentdomain.DocumentResponse, error) {
	_ = ctx
	_ = principal
	_ = req
	return &documentdomain.DocumentResponse{}, nil
}

func (f *fakeDocumentService) Get(ctx context.Context, principal identitydomain.Principal, documentID string) (*documentdomain.DocumentResponse, error) {
	_ = ctx
	_ = principal
	_ = documentID
	return &documentdomain.DocumentResponse{}, nil
}

func (f *fakeDocumentService) ListForRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]documentdomain.DocumentResponse, error) {
	_ = ctx
	_ = principal
	_ = rfpID
	return nil, nil
}

func (f *fakeDocumentService) DownloadURL(ctx context.Context, principal identitydomain.Principal, documentID string) (*documentdomain.DownloadResponse, error) {
	_ = ctx
	_ = principal
	_ = documentID
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &documentdomain.DownloadResponse{URL: "/files/doc.pdf"}, nil
}

type fakeJoinRequestService struct {
	approveErr   error
	rejectReason string
}

func (f *fakeJoinRequestService) Request(ctx context.Context, principal identitydomain.Principal, req joinrequestdomain.RequestJoin) (*joinrequestdomain.JoinRequestResponse, error) {
	_ = ctx
	_ = principal
	_ = req
	return &joinrequestdomain.JoinRequestResponse{Status: "PENDING"}, nil
}

func (f *fakeJoinRequestService) ListForCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]joinrequestdomain.JoinRequestResponse, error) {
	_ = ctx
	_ = principal
	_ = companyID
	return nil, nil
}

func (f *fakeJoinRequestService) Approve(ctx context.Context, principal identitydomain.Principal, requestID string) (*joinrequestdomain.JoinRequestResponse, error) {
	_ = ctx
	_ = principal
	_ = requestID
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &joinrequestdomain.JoinRequestResponse{Status: "APPROVED"}, nil
}

func (f *fakeJoinRequestService) Reject(ctx context.Context, principal identitydomain.Principal, requestID, reason string) (*joinrequestdomain.JoinRequestResponse, error) {
	_ = ctx
	_ = principal
	_ = requestID
	f.rejectReason = reason
	return &joinrequestdomain.JoinRequestResponse{Status: "REJECTED"}, nil
}

func TestAuthRequiredRejectsMissingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.identitySvc = &fakeIdentityService{}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/rfps", srv.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rfps", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsExpiredSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.identitySvc = &fakeIdentityService{authenticateErr: identitydomain.ErrSessionExpired}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/rfps", srv.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rfps", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "stale"})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestRedeemExpiredInvitationReturnsGone(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.invitationSvc = &fakeInvitationService{redeemErr: invitationdomain.ErrExpired}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/invitations/redeem", withPrincipal(identitydomain.Principal{ID: 7}), srv.RedeemInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/redeem", bytes.NewBufferString(`{"token":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d", resp.Code)
	}
}

func TestRedeemMismatchedEmailReturnsForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.invitationSvc = &fakeInvitationService{redeemErr: invitationdomain.ErrEmailMismatch}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/invitations/redeem", withPrincipal(identitydomain.Principal{ID: 7}), srv.RedeemInvitation)

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/redeem", bytes.NewBufferString(`{"token":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestDownloadDeniedForMissingNDA(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.documentSvc = &fakeDocumentService{downloadErr: documentdomain.ErrNDARequired}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/documents/:id/download", withPrincipal(identitydomain.Principal{ID: 7}), srv.DownloadDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/42/download", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Type != "entitlement_denied" {
		t.Fatalf("expected entitlement_denied, got %q", body.Error.Type)
	}
}

func TestApproveResolvedJoinRequestReturnsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.joinRequestSvc = &fakeJoinRequestService{approveErr: joinrequestdomain.ErrAlreadyResolved}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/join-requests/:id/approve", withPrincipal(identitydomain.Principal{ID: 7}), srv.ApproveJoinRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/join-requests/9/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestRejectJoinRequestForwardsReason(t *testing.T) {
	gin.SetMode(gin.TestMode)

	joinRequestSvc := &fakeJoinRequestService{}
	srv := testServer()
	srv.joinRequestSvc = joinRequestSvc

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/join-requests/:id/reject", withPrincipal(identitydomain.Principal{ID: 7}), srv.RejectJoinRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/join-requests/9/reject",
		bytes.NewBufferString(`{"reason":"no longer with the company"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if joinRequestSvc.rejectReason != "no longer with the company" {
		t.Fatalf("expected reason to reach the service, got %q", joinRequestSvc.rejectReason)
	}

	// No body means a bare rejection.
	req = httptest.NewRequest(http.MethodPost, "/api/join-requests/9/reject", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if joinRequestSvc.rejectReason != "" {
		t.Fatalf("expected empty reason, got %q", joinRequestSvc.rejectReason)
	}
}

func TestSearchPassesThroughWithoutLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	companySvc := &fakeCompanyService{}
	srv := testServer()
	srv.companySvc = companySvc

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/companies/search", withPrincipal(identitydomain.Principal{ID: 7}), srv.SearchCompanies)

	req := httptest.NewRequest(http.MethodGet, "/api/companies/search?q=acme", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if companySvc.searchCalls != 1 {
		t.Fatalf("expected one search call, got %d", companySvc.searchCalls)
	}
}

func TestCreateCompanyRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := testServer()
	srv.companySvc = &fakeCompanyService{}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/companies", withPrincipal(identitydomain.Principal{ID: 7}), srv.CreateCompany)

	req := httptest.NewRequest(http.MethodPost, "/api/companies", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
