package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/document/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, document domain.Document) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO documents (id, rfp_id, title, file_path, content_type, size_bytes, requires_nda, requires_approval, uploaded_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		document.ID,
		document.RFPID,
		document.Title,
		document.FilePath,
		document.ContentType,
		document.SizeBytes,
		document.RequiresNDA,
		document.RequiresApproval,
		document.UploadedBy,
		document.CreatedAt,
		document.UpdatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Document, error) {
	var document domain.Document
	err := r.db.WithContext(ctx).First(&document, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &document, nil
}

func (r *repository) ListByRFP(ctx context.Context, rfpID snowflake.ID) ([]domain.Document, error) {
	var documents []domain.Document
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM documents
		 WHERE rfp_id = ?
		 ORDER BY created_at ASC`,
		rfpID,
	).Scan(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}
