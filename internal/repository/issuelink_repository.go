package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmaster/internal/model"
)

type IssueLinkRepository struct {
	db *gorm.DB
}

type IssueLinkRepositoryInterface interface {
	Upsert(ctx context.Context, link *model.IssueLink) error
	GetByTaskID(ctx context.Context, taskID uuid.UUID) (*model.IssueLink, error)
}

var _ IssueLinkRepositoryInterface = (*IssueLinkRepository)(nil)

func NewIssueLinkRepository(db *gorm.DB) *IssueLinkRepository {
	return &IssueLinkRepository{db: db}
}

// Upsert stores link as the task's only issue link in a single
// INSERT ... ON CONFLICT (task_id) statement. An existing link keeps its ID
// and has every other field replaced. On return link holds the stored row.
func (r *IssueLinkRepository) Upsert(ctx context.Context, link *model.IssueLink) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "task_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"issue_url", "issue_number", "issue_title",
					"issue_state", "issue_created_at", "issue_updated_at",
				}),
			},
			clause.Returning{},
		).
		Create(link).Error
}

// GetByTaskID returns the issue linked to a task
func (r *IssueLinkRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*model.IssueLink, error) {
	var link model.IssueLink
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIssueLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}
