package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rfpdock/rfpdock/internal/clock"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	companyrepository "github.com/rfpdock/rfpdock/internal/company/repository"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	identityrepository "github.com/rfpdock/rfpdock/internal/identity/repository"
	"github.com/rfpdock/rfpdock/internal/joinrequest/domain"
	"github.com/rfpdock/rfpdock/internal/joinrequest/repository"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingEmitter struct {
	events []notificationdomain.Event
}

func (e *recordingEmitter) Emit(ctx context.Context, event notificationdomain.Event) {
	e.events = append(e.events, event)
}

type fixture struct {
	svc     domain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clk     *clock.FakeClock
	emitter *recordingEmitter
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&identitydomain.User{},
		&companydomain.Company{},
		&companydomain.Membership{},
		&domain.JoinRequest{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	emitter := &recordingEmitter{}
	svc := NewService(
		zap.NewNop(),
		db,
		repository.NewRepository(db),
		companyrepository.NewRepository(db),
		identityrepository.NewRepository(db),
		emitter,
		node,
		clk,
	)
	return &fixture{svc: svc, db: db, node: node, clk: clk, emitter: emitter}
}

func (f *fixture) user(t *testing.T, email string) identitydomain.Principal {
	t.Helper()

	user := identitydomain.User{
		ID:           f.node.Generate(),
		Email:        email,
		PasswordHash: "x",
		PlatformRole: identitydomain.RoleBidder,
		CreatedAt:    f.clk.Now(),
		UpdatedAt:    f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return identitydomain.Principal{ID: user.ID, Email: user.Email, PlatformRole: user.PlatformRole}
}

func (f *fixture) company(t *testing.T, name string, admin identitydomain.Principal) snowflake.ID {
	t.Helper()

	company := companydomain.Company{
		ID:                 f.node.Generate(),
		Name:               name,
		Slug:               name,
		VerificationStatus: companydomain.VerificationPending,
		CreatedAt:          f.clk.Now(),
		UpdatedAt:          f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&company).Error)
	require.NoError(t, f.db.Create(&companydomain.Membership{
		ID:        f.node.Generate(),
		CompanyID: company.ID,
		UserID:    admin.ID,
		Role:      companydomain.RoleAdmin,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}).Error)
	return company.ID
}

func TestRequestCreatesPendingMembership(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	companyID := f.company(t, "acme", admin)
	applicant := f.user(t, "applicant@example.com")

	resp, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{
		CompanyID: companyID.String(),
		Message:   "former contractor",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, resp.Status)

	var member companydomain.Membership
	require.NoError(t, f.db.First(&member, "user_id = ?", applicant.ID).Error)
	require.Equal(t, companydomain.RolePending, member.Role)

	// Company admins get notified.
	require.Len(t, f.emitter.events, 1)
	require.Equal(t, notificationdomain.EventJoinRequestSubmitted, f.emitter.events[0].Type)
	require.Equal(t, admin.ID, f.emitter.events[0].RecipientUserID)
}

func TestRequestRejectsDuplicateAndExistingMembership(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	companyID := f.company(t, "acme", admin)
	applicant := f.user(t, "applicant@example.com")

	_, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.NoError(t, err)

	_, err = f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.ErrorIs(t, err, domain.ErrDuplicatePending)

	_, err = f.svc.Request(context.Background(), admin, domain.RequestJoin{CompanyID: companyID.String()})
	require.ErrorIs(t, err, domain.ErrMembershipExists)
}

func TestApprovePromotesMembership(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	companyID := f.company(t, "acme", admin)
	applicant := f.user(t, "applicant@example.com")

	resp, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), admin, resp.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, approved.Status)

	var member companydomain.Membership
	require.NoError(t, f.db.First(&member, "user_id = ?", applicant.ID).Error)
	require.Equal(t, companydomain.RoleMember, member.Role)

	last := f.emitter.events[len(f.emitter.events)-1]
	require.Equal(t, notificationdomain.EventJoinRequestApproved, last.Type)
	require.Equal(t, applicant.ID, last.RecipientUserID)
}

func TestRejectRemovesProvisionalMembership(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	companyID := f.company(t, "acme", admin)
	applicant := f.user(t, "applicant@example.com")

	resp, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), admin, resp.ID, "no record of prior work")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, rejected.Status)

	var count int64
	require.NoError(t, f.db.Model(&companydomain.Membership{}).
		Where("user_id = ?", applicant.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// The requester hears why.
	last := f.emitter.events[len(f.emitter.events)-1]
	require.Equal(t, notificationdomain.EventJoinRequestRejected, last.Type)
	require.Equal(t, applicant.ID, last.RecipientUserID)
	require.Equal(t, "no record of prior work", last.Payload["reason"])
	require.Contains(t, last.Body, "no record of prior work")

	// Free to apply elsewhere immediately.
	otherAdmin := f.user(t, "admin@globex.com")
	otherCompany := f.company(t, "globex", otherAdmin)
	_, err = f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: otherCompany.String()})
	require.NoError(t, err)
}

func TestResolveIsFirstWriterWins(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	second := f.user(t, "admin2@acme.com")
	companyID := f.company(t, "acme", admin)
	require.NoError(t, f.db.Create(&companydomain.Membership{
		ID:        f.node.Generate(),
		CompanyID: companyID,
		UserID:    second.ID,
		Role:      companydomain.RoleAdmin,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}).Error)
	applicant := f.user(t, "applicant@example.com")

	resp, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), admin, resp.ID)
	require.NoError(t, err)

	// The losing reviewer sees the terminal state, and the membership
	// granted by the winner is untouched.
	_, err = f.svc.Reject(context.Background(), second, resp.ID, "")
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)

	var member companydomain.Membership
	require.NoError(t, f.db.First(&member, "user_id = ?", applicant.ID).Error)
	require.Equal(t, companydomain.RoleMember, member.Role)
}

func TestListForCompanyRequiresAdmin(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com")
	companyID := f.company(t, "acme", admin)
	applicant := f.user(t, "applicant@example.com")

	_, err := f.svc.Request(context.Background(), applicant, domain.RequestJoin{CompanyID: companyID.String()})
	require.NoError(t, err)

	_, err = f.svc.ListForCompany(context.Background(), applicant, companyID.String())
	require.ErrorIs(t, err, domain.ErrForbidden)

	rows, err := f.svc.ListForCompany(context.Background(), admin, companyID.String())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "applicant@example.com", rows[0].Email)
}
