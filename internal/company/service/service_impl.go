package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/rfpdock/rfpdock/internal/clock"
	"github.com/rfpdock/rfpdock/internal/company/domain"
	"github.com/rfpdock/rfpdock/internal/config"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"gorm.io/gorm"
)

type service struct {
	db     *gorm.DB
	repo   domain.Repository
	genID  *snowflake.Node
	clk    clock.Clock
	portal *config.PortalConfigHolder
}

func NewService(db *gorm.DB, repo domain.Repository, genID *snowflake.Node, clk clock.Clock, portal *config.PortalConfigHolder) domain.Service {
	return &service{
		db:     db,
		repo:   repo,
		genID:  genID,
		clk:    clk,
		portal: portal,
	}
}

func (s *service) Create(ctx context.Context, principal identitydomain.Principal, req domain.CreateCompanyRequest) (*domain.CompanyResponse, error) {
	if principal.ID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// The founder must leave or be removed first; membership is never
		// moved implicitly.
		return nil, domain.ErrMembershipExists
	}

	now := s.clk.Now()
	companyID := s.genID.Generate()
	company := domain.Company{
		ID:                 companyID,
		Name:               name,
		Slug:               slug.Make(name),
		Industry:           strings.TrimSpace(req.Industry),
		Domain:             normalizeDomain(req.Domain),
		VerificationStatus: domain.VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateCompany(ctx, company); err != nil {
			return err
		}
		return repo.InsertMembership(ctx, domain.Membership{
			ID:        s.genID.Generate(),
			CompanyID: companyID,
			UserID:    principal.ID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return companyResponse(company), nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.CompanyResponse, error) {
	companyID, err := parseCompanyID(id)
	if err != nil {
		return nil, err
	}

	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return companyResponse(*company), nil
}

func (s *service) ListMembers(ctx context.Context, principal identitydomain.Principal, companyID string) ([]domain.MemberResponse, error) {
	id, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() {
		member, err := s.repo.ActiveMembership(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		if member == nil || member.CompanyID != id || member.Role == domain.RolePending {
			return nil, domain.ErrForbidden
		}
	}

	rows, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, domain.MemberResponse{
			UserID:    row.UserID.String(),
			Email:     row.Email,
			Role:      row.Role,
			JoinedAt:  row.CreatedAt,
			CompanyID: companyID,
		})
	}
	return resp, nil
}

func (s *service) RemoveMember(ctx context.Context, principal identitydomain.Principal, companyID, userID string) error {
	id, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}
	memberID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrInvalidUser
	}

	if !principal.IsAdmin() {
		actor, err := s.repo.ActiveMembership(ctx, principal.ID)
		if err != nil {
			return err
		}
		if actor == nil || actor.CompanyID != id || actor.Role != domain.RoleAdmin {
			return domain.ErrForbidden
		}
	}

	removed, err := s.repo.DeleteMembership(ctx, id, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (s *service) Search(ctx context.Context, principal identitydomain.Principal, term string) ([]domain.CompanySummary, error) {
	if principal.ID == 0 {
		return nil, domain.ErrInvalidUser
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.CompanySummary{}, nil
	}

	companies, err := s.repo.SearchCompanies(ctx, term, s.portal.Get().SearchLimit)
	if err != nil {
		return nil, err
	}
	return summaries(companies), nil
}

// Suggest matches the caller's corporate email domain against the directory.
// It is a ranking heuristic for onboarding, not a security boundary: free
// mail providers never produce suggestions.
func (s *service) Suggest(ctx context.Context, principal identitydomain.Principal) ([]domain.CompanySummary, error) {
	if principal.ID == 0 {
		return nil, domain.ErrInvalidUser
	}

	emailDomain := domainOfEmail(principal.Email)
	if emailDomain == "" {
		return []domain.CompanySummary{}, nil
	}

	cfg := s.portal.Get()
	for _, free := range cfg.FreeMailDomains {
		if strings.EqualFold(free, emailDomain) {
			return []domain.CompanySummary{}, nil
		}
	}

	// Match on the organization part of the domain ("acme" for acme.co.uk).
	token := emailDomain
	if idx := strings.Index(token, "."); idx > 0 {
		token = token[:idx]
	}

	companies, err := s.repo.SearchCompanies(ctx, token, cfg.SuggestionLimit)
	if err != nil {
		return nil, err
	}
	return summaries(companies), nil
}

func parseCompanyID(raw string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, domain.ErrInvalidCompany
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, domain.ErrInvalidCompany
	}
	return id, nil
}

func companyResponse(company domain.Company) *domain.CompanyResponse {
	return &domain.CompanyResponse{
		ID:                 company.ID.String(),
		Name:               company.Name,
		Slug:               company.Slug,
		Industry:           company.Industry,
		Domain:             company.Domain,
		VerificationStatus: company.VerificationStatus,
	}
}

func summaries(companies []domain.Company) []domain.CompanySummary {
	out := make([]domain.CompanySummary, 0, len(companies))
	for _, company := range companies {
		out = append(out, domain.CompanySummary{
			ID:       company.ID.String(),
			Name:     company.Name,
			Industry: company.Industry,
			Domain:   company.Domain,
		})
	}
	return out
}

func normalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, "/")
}

func domainOfEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
