package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rfpdock/rfpdock/internal/authorization"
	"github.com/rfpdock/rfpdock/internal/company"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	"github.com/rfpdock/rfpdock/internal/config"
	"github.com/rfpdock/rfpdock/internal/document"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	"github.com/rfpdock/rfpdock/internal/entitlement"
	"github.com/rfpdock/rfpdock/internal/identity"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/identity/session"
	"github.com/rfpdock/rfpdock/internal/invitation"
	invitationdomain "github.com/rfpdock/rfpdock/internal/invitation/domain"
	"github.com/rfpdock/rfpdock/internal/joinrequest"
	joinrequestdomain "github.com/rfpdock/rfpdock/internal/joinrequest/domain"
	"github.com/rfpdock/rfpdock/internal/nda"
	ndadomain "github.com/rfpdock/rfpdock/internal/nda/domain"
	"github.com/rfpdock/rfpdock/internal/notification"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	"github.com/rfpdock/rfpdock/internal/observability"
	obslogger "github.com/rfpdock/rfpdock/internal/observability/logger"
	obsmetrics "github.com/rfpdock/rfpdock/internal/observability/metrics"
	obstracing "github.com/rfpdock/rfpdock/internal/observability/tracing"
	"github.com/rfpdock/rfpdock/internal/providers/blob"
	"github.com/rfpdock/rfpdock/internal/providers/email"
	"github.com/rfpdock/rfpdock/internal/ratelimit"
	"github.com/rfpdock/rfpdock/internal/rfp"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	identity.Module,
	company.Module,
	invitation.Module,
	joinrequest.Module,
	rfp.Module,
	document.Module,
	nda.Module,
	entitlement.Module,
	notification.Module,
	email.Module,
	blob.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server exited", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	sessions        *session.Manager
	identitySvc     identitydomain.Service
	authzSvc        authorization.Service
	companySvc      companydomain.Service
	invitationSvc   invitationdomain.Service
	joinRequestSvc  joinrequestdomain.Service
	rfpSvc          rfpdomain.Service
	documentSvc     documentdomain.Service
	ndaSvc          ndadomain.Service
	notificationSvc notificationdomain.Service
	limiter         *ratelimit.PortalLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Sessions        *session.Manager
	IdentitySvc     identitydomain.Service
	AuthzSvc        authorization.Service
	CompanySvc      companydomain.Service
	InvitationSvc   invitationdomain.Service
	JoinRequestSvc  joinrequestdomain.Service
	RFPSvc          rfpdomain.Service
	DocumentSvc     documentdomain.Service
	NDASvc          ndadomain.Service
	NotificationSvc notificationdomain.Service
	Limiter         *ratelimit.PortalLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		sessions:        p.Sessions,
		identitySvc:     p.IdentitySvc,
		authzSvc:        p.AuthzSvc,
		companySvc:      p.CompanySvc,
		invitationSvc:   p.InvitationSvc,
		joinRequestSvc:  p.JoinRequestSvc,
		rfpSvc:          p.RFPSvc,
		documentSvc:     p.DocumentSvc,
		ndaSvc:          p.NDASvc,
		notificationSvc: p.NotificationSvc,
		limiter:         p.Limiter,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Companies --------
	api.POST("/companies", s.RequireCapability(authorization.ObjectCompany, authorization.ActionCreate), s.CreateCompany)
	api.GET("/companies/search", s.RequireCapability(authorization.ObjectCompany, authorization.ActionView), s.SearchCompanies)
	api.GET("/companies/suggest", s.RequireCapability(authorization.ObjectCompany, authorization.ActionView), s.SuggestCompanies)
	api.GET("/companies/:id", s.RequireCapability(authorization.ObjectCompany, authorization.ActionView), s.GetCompany)
	api.GET("/companies/:id/members", s.RequireCapability(authorization.ObjectCompany, authorization.ActionView), s.ListCompanyMembers)
	api.DELETE("/companies/:id/members/:userId", s.RequireCapability(authorization.ObjectCompany, authorization.ActionManage), s.RemoveCompanyMember)

	// -------- Invitations --------
	api.POST("/companies/:id/invitations", s.RequireCapability(authorization.ObjectInvitation, authorization.ActionManage), s.IssueInvitation)
	api.GET("/companies/:id/invitations", s.RequireCapability(authorization.ObjectInvitation, authorization.ActionManage), s.ListCompanyInvitations)
	api.POST("/invitations/redeem", s.RequireCapability(authorization.ObjectInvitation, authorization.ActionRedeem), s.RedeemInvitation)
	api.POST("/invitations/:id/revoke", s.RequireCapability(authorization.ObjectInvitation, authorization.ActionManage), s.RevokeInvitation)

	// -------- Join requests --------
	api.POST("/join-requests", s.RequireCapability(authorization.ObjectJoinRequest, authorization.ActionCreate), s.SubmitJoinRequest)
	api.GET("/companies/:id/join-requests", s.RequireCapability(authorization.ObjectJoinRequest, authorization.ActionReview), s.ListJoinRequests)
	api.POST("/join-requests/:id/approve", s.RequireCapability(authorization.ObjectJoinRequest, authorization.ActionReview), s.ApproveJoinRequest)
	api.POST("/join-requests/:id/reject", s.RequireCapability(authorization.ObjectJoinRequest, authorization.ActionReview), s.RejectJoinRequest)

	// -------- RFPs --------
	api.GET("/rfps", s.RequireCapability(authorization.ObjectRFP, authorization.ActionView), s.ListRFPs)
	api.POST("/rfps", s.RequireCapability(authorization.ObjectRFP, authorization.ActionCreate), s.CreateRFP)
	api.GET("/rfps/:id", s.RequireCapability(authorization.ObjectRFP, authorization.ActionView), s.GetRFP)
	api.POST("/rfps/:id/publish", s.RequireCapability(authorization.ObjectRFP, authorization.ActionManage), s.PublishRFP)
	api.POST("/rfps/:id/close", s.RequireCapability(authorization.ObjectRFP, authorization.ActionManage), s.CloseRFP)

	// -------- Registrations --------
	api.POST("/rfps/:id/register", s.RequireCapability(authorization.ObjectRegistration, authorization.ActionCreate), s.RegisterForRFP)
	api.GET("/rfps/:id/registrations", s.RequireCapability(authorization.ObjectRegistration, authorization.ActionReview), s.ListRegistrations)
	api.POST("/registrations/:id/approve", s.RequireCapability(authorization.ObjectRegistration, authorization.ActionReview), s.ApproveRegistration)
	api.POST("/registrations/:id/reject", s.RequireCapability(authorization.ObjectRegistration, authorization.ActionReview), s.RejectRegistration)

	// -------- Documents --------
	api.GET("/rfps/:id/documents", s.RequireCapability(authorization.ObjectDocument, authorization.ActionView), s.ListRFPDocuments)
	api.POST("/documents", s.RequireCapability(authorization.ObjectDocument, authorization.ActionCreate), s.CreateDocument)
	api.GET("/documents/:id", s.RequireCapability(authorization.ObjectDocument, authorization.ActionView), s.GetDocument)
	api.GET("/documents/:id/download", s.RequireCapability(authorization.ObjectDocument, authorization.ActionDownload), s.DownloadDocument)

	// -------- NDAs --------
	api.POST("/rfps/:id/nda/sign", s.RequireCapability(authorization.ObjectNDA, authorization.ActionSign), s.SignIndividualNDA)
	api.POST("/rfps/:id/nda/sign-company", s.RequireCapability(authorization.ObjectNDA, authorization.ActionSign), s.SignCompanyNDA)
	api.GET("/rfps/:id/ndas", s.RequireCapability(authorization.ObjectNDA, authorization.ActionView), s.ListRFPNDAs)
	api.POST("/ndas/:id/countersign", s.RequireCapability(authorization.ObjectNDA, authorization.ActionReview), s.CountersignNDA)

	// -------- Notifications --------
	api.GET("/notifications", s.RequireCapability(authorization.ObjectNotification, authorization.ActionView), s.ListNotifications)
	api.POST("/notifications/:id/read", s.RequireCapability(authorization.ObjectNotification, authorization.ActionView), s.MarkNotificationRead)
}
