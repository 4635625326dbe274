package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const reviewColumns = `id, name, email, rating, comment, land_id, house_id, status, is_verified, created_at, updated_at`

var reviewSortColumns = map[string]string{
	"created_at": "created_at",
	"rating":     "rating",
	"name":       "name",
	"status":     "status",
}

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A missing listing surfaces as domain.ErrNotFound through the foreign key.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (name, email, rating, comment, land_id, house_id, status, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.Name,
		review.Email,
		review.Rating,
		review.Comment,
		review.LandID,
		review.HouseID,
		review.Status,
		review.IsVerified,
	).Scan(
		&review.ID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	return translate(err)
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, translate(err)
	}

	return &review, nil
}

// GetByIDs retrieves the reviews whose IDs are in ids
func (r *ReviewRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Review, error) {
	if len(ids) == 0 {
		return []*domain.Review{}, nil
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ANY($1::uuid[])`

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *ReviewRepository) buildFilter(filter domain.ReviewFilter) (*whereBuilder, error) {
	w := &whereBuilder{}

	if filter.Parent != nil {
		col, err := parentColumn(filter.Parent.Kind)
		if err != nil {
			return nil, err
		}
		w.add(col+" = $%d", filter.Parent.ID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Rating != nil {
		w.add("rating = $%d", *filter.Rating)
	}
	if filter.IsVerified != nil {
		w.add("is_verified = $%d", *filter.IsVerified)
	}
	if filter.Search != "" {
		w.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d OR comment ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	return w, nil
}

// List retrieves reviews matching the filter
func (r *ReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	w, err := r.buildFilter(filter)
	if err != nil {
		return nil, err
	}

	sortCol, ok := reviewSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY %s %s, id`, reviewColumns, w.clause(), sortCol, direction)
	if filter.Limit > 0 {
		query += " LIMIT " + w.next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + w.next(filter.Offset)
	}

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, w.args...); err != nil {
		return nil, err
	}

	return reviews, nil
}

// Count returns the number of reviews matching the filter
func (r *ReviewRepository) Count(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	w, err := r.buildFilter(filter)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews`+w.clause(), w.args...); err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateStatus writes a new status and returns the updated row
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ModerationStatus) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + reviewColumns

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, status, id); err != nil {
		return nil, translate(err)
	}

	return &review, nil
}

// UpdateStatusBulk writes a new status to every review in ids
func (r *ReviewRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status domain.ModerationStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE reviews
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2::uuid[])
	`

	result, err := r.db.ExecContext(ctx, query, status, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ApprovedRatings returns the rating of every approved review of a listing
func (r *ReviewRepository) ApprovedRatings(ctx context.Context, parent domain.ParentRef) ([]int, error) {
	col, err := parentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT rating FROM reviews WHERE %s = $1 AND status = $2`, col)

	ratings := []int{}
	if err := r.db.SelectContext(ctx, &ratings, query, parent.ID, domain.StatusApproved); err != nil {
		return nil, err
	}

	return ratings, nil
}

// CountsByStatus returns the number of reviews of a listing per status
func (r *ReviewRepository) CountsByStatus(ctx context.Context, parent domain.ParentRef) (map[domain.ModerationStatus]int, error) {
	col, err := parentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT status, COUNT(*) AS total FROM reviews WHERE %s = $1 GROUP BY status`, col)

	var rows []struct {
		Status domain.ModerationStatus `db:"status"`
		Total  int                     `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, parent.ID); err != nil {
		return nil, err
	}

	counts := make(map[domain.ModerationStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

// ApprovedHistogram returns approved review counts keyed by rating
func (r *ReviewRepository) ApprovedHistogram(ctx context.Context, parent domain.ParentRef) (map[int]int, error) {
	col, err := parentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT rating, COUNT(*) AS total FROM reviews WHERE %s = $1 AND status = $2 GROUP BY rating`, col)

	var rows []struct {
		Rating int `db:"rating"`
		Total  int `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, parent.ID, domain.StatusApproved); err != nil {
		return nil, err
	}

	histogram := make(map[int]int, len(rows))
	for _, row := range rows {
		histogram[row.Rating] = row.Total
	}

	return histogram, nil
}
