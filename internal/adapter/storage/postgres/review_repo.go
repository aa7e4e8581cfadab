package postgres

import (
	"context"
	"fmt"

	"tracebloom/internal/core/domain"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
)

// ReviewRepo implements ports.ReviewRepository using PostgreSQL.
type ReviewRepo struct {
	pool Pool
}

// NewReviewRepo creates a new PostgreSQL review repository.
func NewReviewRepo(pool Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// Create inserts a review. The unique constraint on (batch_id, consumer_id)
// surfaces as a duplicate review error.
func (r *ReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, batch_id, consumer_id, rating, title, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.BatchID,
		review.ConsumerID,
		review.Rating,
		review.Title,
		review.Comment,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateReview()
		}
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

// ListByBatch retrieves all reviews for a batch, newest first.
func (r *ReviewRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Review, error) {
	query := `
		SELECT id, batch_id, consumer_id, rating, title, comment, created_at
		FROM reviews
		WHERE batch_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var review domain.Review
		err := rows.Scan(
			&review.ID,
			&review.BatchID,
			&review.ConsumerID,
			&review.Rating,
			&review.Title,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review rows: %w", err)
	}
	return reviews, nil
}
