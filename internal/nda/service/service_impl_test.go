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
	"github.com/rfpdock/rfpdock/internal/nda/domain"
	"github.com/rfpdock/rfpdock/internal/nda/repository"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
	rfprepository "github.com/rfpdock/rfpdock/internal/rfp/repository"
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
	svc      domain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	emitter  *recordingEmitter
	reviewer identitydomain.Principal
	rfpID    snowflake.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&identitydomain.User{},
		&companydomain.Company{},
		&companydomain.Membership{},
		&rfpdomain.RFP{},
		&domain.NDARecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	emitter := &recordingEmitter{}
	svc := NewService(
		zap.NewNop(),
		repository.NewRepository(db),
		rfprepository.NewRepository(db),
		companyrepository.NewRepository(db),
		identityrepository.NewRepository(db),
		emitter,
		node,
		clk,
	)

	f := &fixture{svc: svc, db: db, node: node, clk: clk, emitter: emitter}
	f.reviewer = f.user(t, "reviewer@client.com", identitydomain.RoleClientReviewer)

	now := clk.Now()
	rfp := rfpdomain.RFP{
		ID:          node.Generate(),
		Title:       "Data Center Build",
		Status:      rfpdomain.StatusPublished,
		CreatedBy:   f.reviewer.ID,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&rfp).Error)
	f.rfpID = rfp.ID
	return f
}

func (f *fixture) user(t *testing.T, email, role string) identitydomain.Principal {
	t.Helper()

	user := identitydomain.User{
		ID:           f.node.Generate(),
		Email:        email,
		PasswordHash: "x",
		PlatformRole: role,
		CreatedAt:    f.clk.Now(),
		UpdatedAt:    f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&user).Error)
	return identitydomain.Principal{ID: user.ID, Email: user.Email, PlatformRole: user.PlatformRole}
}

func (f *fixture) companyFor(t *testing.T, name string, admin identitydomain.Principal, role string) snowflake.ID {
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
		Role:      role,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}).Error)
	return company.ID
}

func TestSignIndividual(t *testing.T) {
	f := setup(t)
	bidder := f.user(t, "bidder@acme.com", identitydomain.RoleBidder)

	signed, err := f.svc.SignIndividual(context.Background(), bidder, f.rfpID.String(), map[string]any{
		"full_name": "Pat Bidder",
		"title":     "Director of Sales",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSigned, signed.Status)
	require.Equal(t, domain.ScopeIndividual, signed.Scope)
	require.Equal(t, "Pat Bidder", signed.SignaturePayload["full_name"])

	// Signing again keeps the row but refreshes the attestation.
	f.clk.Advance(48 * time.Hour)
	again, err := f.svc.SignIndividual(context.Background(), bidder, f.rfpID.String(), map[string]any{
		"full_name": "Pat Q. Bidder",
	})
	require.NoError(t, err)
	require.Equal(t, signed.ID, again.ID)
	require.True(t, again.SignedAt.After(signed.SignedAt))
	require.Equal(t, "Pat Q. Bidder", again.SignaturePayload["full_name"])

	var count int64
	require.NoError(t, f.db.Model(&domain.NDARecord{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var stored domain.NDARecord
	require.NoError(t, f.db.First(&stored, "id = ?", signed.ID).Error)
	require.Equal(t, domain.StatusSigned, stored.Status)
	require.True(t, stored.SignedAt.Equal(f.clk.Now()))
	require.JSONEq(t, `{"full_name":"Pat Q. Bidder"}`, string(stored.SignaturePayload))
}

func TestCountersignApproveAndReject(t *testing.T) {
	f := setup(t)
	bidder := f.user(t, "bidder@acme.com", identitydomain.RoleBidder)

	signed, err := f.svc.SignIndividual(context.Background(), bidder, f.rfpID.String(), nil)
	require.NoError(t, err)

	// Bidders cannot countersign.
	_, err = f.svc.Countersign(context.Background(), bidder, domain.CountersignRequest{NDAID: signed.ID, Approve: true})
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Rejection without a reason is refused.
	_, err = f.svc.Countersign(context.Background(), f.reviewer, domain.CountersignRequest{NDAID: signed.ID, Approve: false})
	require.ErrorIs(t, err, domain.ErrReasonRequired)

	approved, err := f.svc.Countersign(context.Background(), f.reviewer, domain.CountersignRequest{NDAID: signed.ID, Approve: true})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.CountersignedAt)

	// Already resolved.
	_, err = f.svc.Countersign(context.Background(), f.reviewer, domain.CountersignRequest{
		NDAID: signed.ID, Approve: false, Reason: "changed my mind",
	})
	require.ErrorIs(t, err, domain.ErrNotCounterable)

	last := f.emitter.events[len(f.emitter.events)-1]
	require.Equal(t, notificationdomain.EventNDAApproved, last.Type)
	require.Equal(t, bidder.ID, last.RecipientUserID)
}

func TestResignAfterRejectionResets(t *testing.T) {
	f := setup(t)
	bidder := f.user(t, "bidder@acme.com", identitydomain.RoleBidder)

	signed, err := f.svc.SignIndividual(context.Background(), bidder, f.rfpID.String(), nil)
	require.NoError(t, err)

	rejected, err := f.svc.Countersign(context.Background(), f.reviewer, domain.CountersignRequest{
		NDAID: signed.ID, Approve: false, Reason: "wrong legal entity",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, rejected.Status)
	require.Equal(t, "wrong legal entity", rejected.RejectReason)

	resigned, err := f.svc.SignIndividual(context.Background(), bidder, f.rfpID.String(), nil)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSigned, resigned.Status)
	require.Empty(t, resigned.RejectReason)
	require.Nil(t, resigned.CountersignedAt)
	require.Equal(t, signed.ID, resigned.ID)
}

func TestSignCompanyRequiresAdmin(t *testing.T) {
	f := setup(t)
	admin := f.user(t, "admin@acme.com", identitydomain.RoleBidder)
	companyID := f.companyFor(t, "acme", admin, companydomain.RoleAdmin)

	member := f.user(t, "member@acme.com", identitydomain.RoleBidder)
	require.NoError(t, f.db.Create(&companydomain.Membership{
		ID:        f.node.Generate(),
		CompanyID: companyID,
		UserID:    member.ID,
		Role:      companydomain.RoleMember,
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	}).Error)
	loner := f.user(t, "solo@example.com", identitydomain.RoleBidder)

	_, err := f.svc.SignCompany(context.Background(), member, f.rfpID.String())
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SignCompany(context.Background(), loner, f.rfpID.String())
	require.ErrorIs(t, err, domain.ErrNoCompany)

	signed, err := f.svc.SignCompany(context.Background(), admin, f.rfpID.String())
	require.NoError(t, err)
	require.Equal(t, domain.ScopeCompany, signed.Scope)
	require.Equal(t, companyID.String(), signed.CompanyID)

	// The RFP owner hears about the pending countersignature.
	last := f.emitter.events[len(f.emitter.events)-1]
	require.Equal(t, notificationdomain.EventCompanyNDASigned, last.Type)
	require.Equal(t, f.reviewer.ID, last.RecipientUserID)
}

func TestListForRFPScopesToOwnRecords(t *testing.T) {
	f := setup(t)
	adminA := f.user(t, "admin@acme.com", identitydomain.RoleBidder)
	companyA := f.companyFor(t, "acme", adminA, companydomain.RoleAdmin)
	adminB := f.user(t, "admin@globex.com", identitydomain.RoleBidder)
	f.companyFor(t, "globex", adminB, companydomain.RoleAdmin)

	_, err := f.svc.SignCompany(context.Background(), adminA, f.rfpID.String())
	require.NoError(t, err)
	_, err = f.svc.SignCompany(context.Background(), adminB, f.rfpID.String())
	require.NoError(t, err)
	_, err = f.svc.SignIndividual(context.Background(), adminA, f.rfpID.String(), nil)
	require.NoError(t, err)

	all, err := f.svc.ListForRFP(context.Background(), f.reviewer, f.rfpID.String())
	require.NoError(t, err)
	require.Len(t, all, 3)

	own, err := f.svc.ListForRFP(context.Background(), adminA, f.rfpID.String())
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, record := range own {
		if record.Scope == domain.ScopeIndividual {
			require.Equal(t, adminA.ID.String(), record.UserID)
		} else {
			require.Equal(t, companyA.String(), record.CompanyID)
		}
	}
}
