package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/rfp/domain"
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

func (r *repository) InsertRFP(ctx context.Context, rfp domain.RFP) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO rfps (id, title, description, status, created_by, published_at, closes_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rfp.ID,
		rfp.Title,
		rfp.Description,
		rfp.Status,
		rfp.CreatedBy,
		rfp.PublishedAt,
		rfp.ClosesAt,
		rfp.CreatedAt,
		rfp.UpdatedAt,
	).Error
}

func (r *repository) GetRFP(ctx context.Context, id snowflake.ID) (*domain.RFP, error) {
	var rfp domain.RFP
	err := r.db.WithContext(ctx).First(&rfp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rfp, nil
}

func (r *repository) ListRFPs(ctx context.Context, statuses []string) ([]domain.RFP, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var rfps []domain.RFP
	if err := q.Find(&rfps).Error; err != nil {
		return nil, err
	}
	return rfps, nil
}

func (r *repository) TransitionRFP(ctx context.Context, id snowflake.ID, from, to string, publishedAt *time.Time, now time.Time) (bool, error) {
	var res *gorm.DB
	if publishedAt != nil {
		res = r.db.WithContext(ctx).Exec(
			`UPDATE rfps SET status = ?, published_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			to, publishedAt, now, id, from,
		)
	} else {
		res = r.db.WithContext(ctx).Exec(
			`UPDATE rfps SET status = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			to, now, id, from,
		)
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) InsertRegistration(ctx context.Context, registration domain.CompanyRegistration) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO company_registrations (id, rfp_id, company_id, status, requested_by, reviewed_by, resolved_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		registration.ID,
		registration.RFPID,
		registration.CompanyID,
		registration.Status,
		registration.RequestedBy,
		registration.CreatedAt,
		registration.UpdatedAt,
	).Error
}

func (r *repository) GetRegistration(ctx context.Context, rfpID, companyID snowflake.ID) (*domain.CompanyRegistration, error) {
	var registration domain.CompanyRegistration
	err := r.db.WithContext(ctx).
		Where("rfp_id = ? AND company_id = ?", rfpID, companyID).
		First(&registration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &registration, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id snowflake.ID) (*domain.CompanyRegistration, error) {
	var registration domain.CompanyRegistration
	err := r.db.WithContext(ctx).First(&registration, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, err
	}
	return &registration, nil
}

func (r *repository) ListRegistrations(ctx context.Context, rfpID snowflake.ID) ([]domain.CompanyRegistration, error) {
	var registrations []domain.CompanyRegistration
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM company_registrations
		 WHERE rfp_id = ?
		 ORDER BY created_at ASC`,
		rfpID,
	).Scan(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *repository) ResolveRegistration(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE company_registrations SET status = ?, reviewed_by = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		reviewer,
		now,
		now,
		id,
		domain.RegistrationPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
