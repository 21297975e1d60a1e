package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

type serviceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewService(log *zap.Logger, enforcer *casbin.SyncedEnforcer) Service {
	return &serviceImpl{
		log:      log.Named("authorization.service"),
		enforcer: enforcer,
	}
}

func (s *serviceImpl) Authorize(ctx context.Context, principal identitydomain.Principal, object, action string) error {
	if principal.ID == 0 {
		return ErrInvalidActor
	}

	role := strings.ToLower(strings.TrimSpace(principal.PlatformRole))
	if role == "" {
		return ErrInvalidActor
	}

	allowed, err := s.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("capability denied",
			zap.Int64("user_id", int64(principal.ID)),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action))
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Every signed-in bidder can browse, apply and sign.
		{"role:bidder", ObjectCompany, ActionView},
		{"role:bidder", ObjectCompany, ActionCreate},
		{"role:bidder", ObjectCompany, ActionManage},
		{"role:bidder", ObjectInvitation, ActionManage},
		{"role:bidder", ObjectInvitation, ActionRedeem},
		{"role:bidder", ObjectJoinRequest, ActionCreate},
		{"role:bidder", ObjectJoinRequest, ActionReview},
		{"role:bidder", ObjectRFP, ActionView},
		{"role:bidder", ObjectRegistration, ActionCreate},
		{"role:bidder", ObjectDocument, ActionView},
		{"role:bidder", ObjectDocument, ActionDownload},
		{"role:bidder", ObjectNDA, ActionSign},
		{"role:bidder", ObjectNDA, ActionView},
		{"role:bidder", ObjectNotification, ActionView},

		// The reviewing side additionally runs the RFP lifecycle.
		{"role:client_reviewer", ObjectRFP, ActionCreate},
		{"role:client_reviewer", ObjectRFP, ActionManage},
		{"role:client_reviewer", ObjectRegistration, ActionReview},
		{"role:client_reviewer", ObjectDocument, ActionCreate},
		{"role:client_reviewer", ObjectNDA, ActionReview},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:client_reviewer", "role:bidder"},
		{"role:admin", "role:client_reviewer"},
	}
	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping); err != nil {
			return err
		}
	}
	return nil
}
