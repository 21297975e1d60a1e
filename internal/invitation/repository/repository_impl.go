package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/invitation/domain"
	joinrequestdomain "github.com/rfpdock/rfpdock/internal/joinrequest/domain"
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

func (r *repository) Insert(ctx context.Context, invitation domain.Invitation) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO invitations (id, company_id, email, role, token, status, invited_by, expires_at, resolved_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		invitation.ID,
		invitation.CompanyID,
		invitation.Email,
		invitation.Role,
		invitation.Token,
		invitation.Status,
		invitation.InvitedBy,
		invitation.ExpiresAt,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	).Error
}

func (r *repository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).First(&invitation, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindPending(ctx context.Context, companyID snowflake.ID, email string, now time.Time) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND email = ? AND status = ? AND expires_at > ?",
			companyID, email, domain.StatusPending, now).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	return r.markResolved(ctx, id, domain.StatusAccepted, now)
}

func (r *repository) MarkExpired(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	return r.markResolved(ctx, id, domain.StatusExpired, now)
}

func (r *repository) MarkRejected(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	return r.markResolved(ctx, id, domain.StatusRejected, now)
}

func (r *repository) markResolved(ctx context.Context, id snowflake.ID, status string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		now,
		now,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ExpireDue(ctx context.Context, companyID snowflake.ID, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, resolved_at = ?, updated_at = ?
		 WHERE company_id = ? AND status = ? AND expires_at <= ?`,
		domain.StatusExpired,
		now,
		now,
		companyID,
		domain.StatusPending,
		now,
	).Error
}

func (r *repository) ListByCompany(ctx context.Context, companyID snowflake.ID) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM invitations
		 WHERE company_id = ?
		 ORDER BY created_at DESC`,
		companyID,
	).Scan(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *repository) SupersedePendingJoinRequests(ctx context.Context, userID snowflake.ID, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE join_requests SET status = ?, resolved_at = ?, updated_at = ?
		 WHERE user_id = ? AND status = ?`,
		joinrequestdomain.StatusSuperseded,
		now,
		now,
		userID,
		joinrequestdomain.StatusPending,
	).Error
}
