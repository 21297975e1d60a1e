package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rfpdock/rfpdock/internal/clock"
	"github.com/rfpdock/rfpdock/internal/company/domain"
	"github.com/rfpdock/rfpdock/internal/company/repository"
	"github.com/rfpdock/rfpdock/internal/config"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&identitydomain.User{},
		&domain.Company{},
		&domain.Membership{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	holder := config.NewStaticPortalConfigHolder(config.DefaultPortalConfig())
	svc := NewService(db, repository.NewRepository(db), node, clock.NewFakeClock(time.Now().UTC()), holder)
	return svc, db, node
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, email string) identitydomain.Principal {
	t.Helper()

	user := identitydomain.User{
		ID:           node.Generate(),
		Email:        email,
		PasswordHash: "x",
		PlatformRole: identitydomain.RoleBidder,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(&user).Error)
	return identitydomain.Principal{ID: user.ID, Email: user.Email, PlatformRole: user.PlatformRole}
}

func TestCreateCompanyMakesFounderAdmin(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")

	resp, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{
		Name:     "Acme Robotics",
		Industry: "Manufacturing",
		Domain:   "https://www.acme.com/",
	})
	require.NoError(t, err)
	require.Equal(t, "acme-robotics", resp.Slug)
	require.Equal(t, "acme.com", resp.Domain)
	require.Equal(t, domain.VerificationPending, resp.VerificationStatus)

	var member domain.Membership
	require.NoError(t, db.First(&member, "user_id = ?", founder.ID).Error)
	require.Equal(t, domain.RoleAdmin, member.Role)
}

func TestCreateCompanyRejectsSecondMembership(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")

	_, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), founder, domain.CreateCompanyRequest{Name: "Second Co"})
	require.ErrorIs(t, err, domain.ErrMembershipExists)
}

func TestListMembersRequiresMembershipOrPlatformAdmin(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")
	outsider := seedUser(t, db, node, "other@example.com")

	resp, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.ListMembers(context.Background(), outsider, resp.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	members, err := svc.ListMembers(context.Background(), founder, resp.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "founder@acme.com", members[0].Email)

	admin := identitydomain.Principal{ID: node.Generate(), Email: "ops@portal.test", PlatformRole: identitydomain.RoleAdmin}
	members, err = svc.ListMembers(context.Background(), admin, resp.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestPendingMemberCannotListMembers(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")
	applicant := seedUser(t, db, node, "applicant@example.com")

	resp, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{Name: "Acme"})
	require.NoError(t, err)

	companyID, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Membership{
		ID:        node.Generate(),
		CompanyID: companyID,
		UserID:    applicant.ID,
		Role:      domain.RolePending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}).Error)

	_, err = svc.ListMembers(context.Background(), applicant, resp.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRemoveMember(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")
	member := seedUser(t, db, node, "member@acme.com")

	resp, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{Name: "Acme"})
	require.NoError(t, err)

	companyID, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Membership{
		ID:        node.Generate(),
		CompanyID: companyID,
		UserID:    member.ID,
		Role:      domain.RoleMember,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}).Error)

	// A plain member cannot remove anyone.
	err = svc.RemoveMember(context.Background(), member, resp.ID, founder.ID.String())
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.RemoveMember(context.Background(), founder, resp.ID, member.ID.String()))

	err = svc.RemoveMember(context.Background(), founder, resp.ID, member.ID.String())
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestSearchCompanies(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")

	_, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{
		Name:     "Acme Robotics",
		Industry: "Manufacturing",
	})
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), founder, "acme")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = svc.Search(context.Background(), founder, "   ")
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = svc.Search(context.Background(), founder, "nonexistent")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSuggestSkipsFreeMailDomains(t *testing.T) {
	svc, db, node := setupService(t)
	founder := seedUser(t, db, node, "founder@acme.com")

	_, err := svc.Create(context.Background(), founder, domain.CreateCompanyRequest{
		Name:   "Acme Robotics",
		Domain: "acme.com",
	})
	require.NoError(t, err)

	corporate := seedUser(t, db, node, "new.hire@acme.com")
	results, err := svc.Suggest(context.Background(), corporate)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Acme Robotics", results[0].Name)

	free := seedUser(t, db, node, "someone@gmail.com")
	results, err = svc.Suggest(context.Background(), free)
	require.NoError(t, err)
	require.Empty(t, results)
}
