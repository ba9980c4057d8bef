package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepos bundles transactional repository instances handed to a unit of
// work callback. Every repository operates on the same database transaction.
type TxRepos struct {
	Challenges  ChallengeRepository
	Submissions SubmissionRepository
	Evaluations EvaluationRepository
	Comments    CommentRepository
	Activity    ActivityLogRepository
}

// UnitOfWork runs a callback inside a single database transaction. A status
// write and its side effects (points, badges, audit entries) either all
// persist or none do.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx TxRepos) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork constructs a gorm-backed unit of work.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(tx TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Challenges:  NewChallengeRepository(tx),
			Submissions: NewSubmissionRepository(tx),
			Evaluations: NewEvaluationRepository(tx),
			Comments:    NewCommentRepository(tx),
			Activity:    NewActivityLogRepository(tx),
		})
	})
}
