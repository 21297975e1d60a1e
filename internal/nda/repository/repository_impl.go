package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/nda/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, record domain.NDARecord) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO nda_records (id, rfp_id, scope, user_id, company_id, status, signed_by, signed_at,
		                          signature_payload, countersigned_by, countersigned_at, reject_reason,
		                          created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, '', ?, ?)`,
		record.ID,
		record.RFPID,
		record.Scope,
		record.UserID,
		record.CompanyID,
		record.Status,
		record.SignedBy,
		record.SignedAt,
		record.SignaturePayload,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.NDARecord, error) {
	var record domain.NDARecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindIndividual(ctx context.Context, rfpID, userID snowflake.ID) (*domain.NDARecord, error) {
	return r.find(ctx, "rfp_id = ? AND scope = ? AND user_id = ?", rfpID, domain.ScopeIndividual, userID)
}

func (r *repository) FindCompany(ctx context.Context, rfpID, companyID snowflake.ID) (*domain.NDARecord, error) {
	return r.find(ctx, "rfp_id = ? AND scope = ? AND company_id = ?", rfpID, domain.ScopeCompany, companyID)
}

func (r *repository) find(ctx context.Context, query string, args ...any) (*domain.NDARecord, error) {
	var record domain.NDARecord
	err := r.db.WithContext(ctx).Where(query, args...).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) ResetToSigned(ctx context.Context, id, signer snowflake.ID, payload datatypes.JSON, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE nda_records
		 SET status = ?, signed_by = ?, signed_at = ?, signature_payload = ?,
		     countersigned_by = NULL, countersigned_at = NULL, reject_reason = '', updated_at = ?
		 WHERE id = ?`,
		domain.StatusSigned,
		signer,
		now,
		payload,
		now,
		id,
	).Error
}

func (r *repository) Countersign(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, reason string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE nda_records
		 SET status = ?, countersigned_by = ?, countersigned_at = ?, reject_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		reviewer,
		now,
		reason,
		now,
		id,
		domain.StatusSigned,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByRFP(ctx context.Context, rfpID snowflake.ID) ([]domain.NDARecord, error) {
	var records []domain.NDARecord
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM nda_records
		 WHERE rfp_id = ?
		 ORDER BY created_at ASC`,
		rfpID,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
