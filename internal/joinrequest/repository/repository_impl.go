package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/joinrequest/domain"
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

func (r *repository) Insert(ctx context.Context, request domain.JoinRequest) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO join_requests (id, company_id, user_id, message, status, reviewed_by, resolved_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		request.ID,
		request.CompanyID,
		request.UserID,
		request.Message,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.JoinRequest, error) {
	var request domain.JoinRequest
	err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindPendingByUser(ctx context.Context, userID snowflake.ID) (*domain.JoinRequest, error) {
	var request domain.JoinRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.StatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListForCompany(ctx context.Context, companyID snowflake.ID) ([]domain.JoinRequestRow, error) {
	var rows []domain.JoinRequestRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT jr.*, u.email
		 FROM join_requests jr
		 JOIN users u ON u.id = jr.user_id
		 WHERE jr.company_id = ?
		 ORDER BY jr.created_at DESC`,
		companyID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Resolve(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE join_requests SET status = ?, reviewed_by = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		reviewer,
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
