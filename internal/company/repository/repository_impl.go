package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/company/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateCompany(ctx context.Context, company domain.Company) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO companies (id, name, slug, industry, domain, verification_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		company.ID,
		company.Name,
		company.Slug,
		company.Industry,
		company.Domain,
		company.VerificationStatus,
		company.CreatedAt,
		company.UpdatedAt,
	).Error
}

func (r *repository) GetCompany(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) ActiveMembership(ctx context.Context, userID snowflake.ID) (*domain.Membership, error) {
	var member domain.Membership
	err := r.db.WithContext(ctx).First(&member, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) InsertMembership(ctx context.Context, member domain.Membership) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO memberships (id, company_id, user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.CompanyID,
		member.UserID,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repository) ReplaceMembership(ctx context.Context, member domain.Membership) error {
	if err := r.db.WithContext(ctx).Exec(
		`DELETE FROM memberships WHERE user_id = ?`, member.UserID,
	).Error; err != nil {
		return err
	}
	return r.InsertMembership(ctx, member)
}

func (r *repository) PromotePendingMembership(ctx context.Context, companyID, userID snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE memberships SET role = ?, updated_at = ?
		 WHERE company_id = ? AND user_id = ? AND role = ?`,
		domain.RoleMember,
		now,
		companyID,
		userID,
		domain.RolePending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteMembership(ctx context.Context, companyID, userID snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM memberships WHERE company_id = ? AND user_id = ?`,
		companyID,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListMembers(ctx context.Context, companyID snowflake.ID) ([]domain.MemberRow, error) {
	var rows []domain.MemberRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.user_id, u.email, m.role, m.created_at
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.company_id = ?
		 ORDER BY m.created_at ASC`,
		companyID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SearchCompanies(ctx context.Context, term string, limit int) ([]domain.Company, error) {
	pattern := "%" + term + "%"
	var companies []domain.Company
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM companies
		 WHERE LOWER(name) LIKE LOWER(?) OR LOWER(industry) LIKE LOWER(?) OR LOWER(domain) LIKE LOWER(?)
		 ORDER BY name ASC
		 LIMIT ?`,
		pattern,
		pattern,
		pattern,
		limit,
	).Scan(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}
