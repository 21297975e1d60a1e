package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	companyrepository "github.com/rfpdock/rfpdock/internal/company/repository"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	"github.com/rfpdock/rfpdock/internal/entitlement/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	ndadomain "github.com/rfpdock/rfpdock/internal/nda/domain"
	ndarepository "github.com/rfpdock/rfpdock/internal/nda/repository"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
	rfprepository "github.com/rfpdock/rfpdock/internal/rfp/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	resolver *resolver
	db       *gorm.DB
	node     *snowflake.Node
	rfpID    snowflake.ID
	now      time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Membership{},
		&rfpdomain.RFP{},
		&rfpdomain.CompanyRegistration{},
		&ndadomain.NDARecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		// ttl 0 disables caching so state changes are visible immediately.
		resolver: newResolver(
			rfprepository.NewRepository(db),
			companyrepository.NewRepository(db),
			ndarepository.NewRepository(db),
			nil,
			0,
		),
		db:   db,
		node: node,
		now:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	rfp := rfpdomain.RFP{
		ID:        node.Generate(),
		Title:     "Data Center Build",
		Status:    rfpdomain.StatusPublished,
		CreatedBy: node.Generate(),
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, db.Create(&rfp).Error)
	f.rfpID = rfp.ID
	return f
}

func (f *fixture) principal(role string) identitydomain.Principal {
	return identitydomain.Principal{ID: f.node.Generate(), Email: "user@example.com", PlatformRole: role}
}

func (f *fixture) company(t *testing.T, name string) snowflake.ID {
	t.Helper()

	company := companydomain.Company{
		ID:        f.node.Generate(),
		Name:      name,
		Slug:      name,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.db.Create(&company).Error)
	return company.ID
}

func (f *fixture) join(t *testing.T, companyID snowflake.ID, userID snowflake.ID, role string) {
	t.Helper()

	require.NoError(t, f.db.Create(&companydomain.Membership{
		ID:        f.node.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		Role:      role,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}).Error)
}

func (f *fixture) approveRegistration(t *testing.T, companyID snowflake.ID) {
	t.Helper()

	require.NoError(t, f.db.Create(&rfpdomain.CompanyRegistration{
		ID:          f.node.Generate(),
		RFPID:       f.rfpID,
		CompanyID:   companyID,
		Status:      rfpdomain.RegistrationApproved,
		RequestedBy: f.node.Generate(),
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	}).Error)
}

func (f *fixture) ndaRecord(t *testing.T, scope, status string, userID, companyID snowflake.ID) {
	t.Helper()

	require.NoError(t, f.db.Create(&ndadomain.NDARecord{
		ID:        f.node.Generate(),
		RFPID:     f.rfpID,
		Scope:     scope,
		UserID:    userID,
		CompanyID: companyID,
		Status:    status,
		SignedBy:  userID,
		SignedAt:  f.now,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}).Error)
}

func (f *fixture) document(requiresNDA, requiresApproval bool) documentdomain.Document {
	return documentdomain.Document{
		ID:               f.node.Generate(),
		RFPID:            f.rfpID,
		Title:            "spec.pdf",
		FilePath:         "rfps/spec.pdf",
		RequiresNDA:      requiresNDA,
		RequiresApproval: requiresApproval,
	}
}

func TestAnonymousIsDenied(t *testing.T) {
	f := setup(t)

	_, err := f.resolver.CanAccess(context.Background(), identitydomain.Principal{}, f.document(false, false))
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestOpenDocumentGrantedToAnyAuthenticatedUser(t *testing.T) {
	f := setup(t)

	// No company, no registration, no NDA.
	decision, err := f.resolver.CanAccess(context.Background(), f.principal(identitydomain.RoleBidder), f.document(false, false))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestApprovalGateCheckedBeforeNDA(t *testing.T) {
	f := setup(t)
	bidder := f.principal(identitydomain.RoleBidder)

	// Lacking both gates, the denial names the approval gate.
	decision, err := f.resolver.CanAccess(context.Background(), bidder, f.document(true, true))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonApprovalRequired, decision.Reason)
}

func TestIndividualNDAWithoutApprovalStillDeniedForApproval(t *testing.T) {
	f := setup(t)
	bidder := f.principal(identitydomain.RoleBidder)
	f.ndaRecord(t, ndadomain.ScopeIndividual, ndadomain.StatusSigned, bidder.ID, 0)

	decision, err := f.resolver.CanAccess(context.Background(), bidder, f.document(true, true))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonApprovalRequired, decision.Reason)
}

func TestSignedIndividualNDASufficesWhileCompanyNDARequiresApproval(t *testing.T) {
	f := setup(t)
	doc := f.document(true, false)

	// A merely signed personal NDA opens the document.
	individual := f.principal(identitydomain.RoleBidder)
	f.ndaRecord(t, ndadomain.ScopeIndividual, ndadomain.StatusSigned, individual.ID, 0)
	decision, err := f.resolver.CanAccess(context.Background(), individual, doc)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// A merely signed company NDA does not; it needs the countersignature.
	member := f.principal(identitydomain.RoleBidder)
	companyID := f.company(t, "acme")
	f.join(t, companyID, member.ID, companydomain.RoleMember)
	f.ndaRecord(t, ndadomain.ScopeCompany, ndadomain.StatusSigned, 0, companyID)

	decision, err = f.resolver.CanAccess(context.Background(), member, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonNDARequired, decision.Reason)

	// Countersigned, the same company NDA covers the member.
	require.NoError(t, f.db.Model(&ndadomain.NDARecord{}).
		Where("scope = ? AND company_id = ?", ndadomain.ScopeCompany, companyID).
		Update("status", ndadomain.StatusApproved).Error)

	decision, err = f.resolver.CanAccess(context.Background(), member, doc)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestRejectedIndividualNDADoesNotCount(t *testing.T) {
	f := setup(t)
	bidder := f.principal(identitydomain.RoleBidder)
	f.ndaRecord(t, ndadomain.ScopeIndividual, ndadomain.StatusRejected, bidder.ID, 0)

	decision, err := f.resolver.CanAccess(context.Background(), bidder, f.document(true, false))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonNDARequired, decision.Reason)
}

func TestCompanyNDACoversCurrentMembersOnly(t *testing.T) {
	f := setup(t)
	doc := f.document(true, false)

	companyID := f.company(t, "acme")
	f.ndaRecord(t, ndadomain.ScopeCompany, ndadomain.StatusApproved, 0, companyID)

	user := f.principal(identitydomain.RoleBidder)

	// Not a member yet: the company NDA does not apply.
	decision, err := f.resolver.CanAccess(context.Background(), user, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// Joining brings coverage.
	f.join(t, companyID, user.ID, companydomain.RoleMember)
	decision, err = f.resolver.CanAccess(context.Background(), user, doc)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// Leaving revokes it.
	require.NoError(t, f.db.Where("user_id = ?", user.ID).Delete(&companydomain.Membership{}).Error)
	decision, err = f.resolver.CanAccess(context.Background(), user, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonNDARequired, decision.Reason)
}

func TestPendingMembershipGrantsNothing(t *testing.T) {
	f := setup(t)
	doc := f.document(false, true)

	companyID := f.company(t, "acme")
	f.approveRegistration(t, companyID)

	applicant := f.principal(identitydomain.RoleBidder)
	f.join(t, companyID, applicant.ID, companydomain.RolePending)

	decision, err := f.resolver.CanAccess(context.Background(), applicant, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, domain.ReasonApprovalRequired, decision.Reason)
}

func TestApprovedRegistrationOpensApprovalGate(t *testing.T) {
	f := setup(t)
	doc := f.document(false, true)

	companyID := f.company(t, "acme")
	f.approveRegistration(t, companyID)

	member := f.principal(identitydomain.RoleBidder)
	f.join(t, companyID, member.ID, companydomain.RoleMember)

	decision, err := f.resolver.CanAccess(context.Background(), member, doc)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestReviewerBypassesGates(t *testing.T) {
	f := setup(t)

	decision, err := f.resolver.CanAccess(context.Background(), f.principal(identitydomain.RoleClientReviewer), f.document(true, true))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestDecisionCacheExpires(t *testing.T) {
	f := setup(t)
	cached := newResolver(
		rfprepository.NewRepository(f.db),
		companyrepository.NewRepository(f.db),
		ndarepository.NewRepository(f.db),
		nil,
		20*time.Millisecond,
	)
	doc := f.document(true, false)
	bidder := f.principal(identitydomain.RoleBidder)

	decision, err := cached.CanAccess(context.Background(), bidder, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	f.ndaRecord(t, ndadomain.ScopeIndividual, ndadomain.StatusSigned, bidder.ID, 0)

	// Still the cached denial.
	decision, err = cached.CanAccess(context.Background(), bidder, doc)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	time.Sleep(30 * time.Millisecond)

	decision, err = cached.CanAccess(context.Background(), bidder, doc)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}
