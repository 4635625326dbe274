package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

const eventColumns = `id, title, slug, description, location, organizer, starts_at, starts_at < NOW() AS is_past,
	image_url, image_key, image_caption, created_at, updated_at`

var eventSortColumns = map[string]string{
	domain.EventSortCreated: "created_at",
	domain.EventSortDate:    "starts_at",
	domain.EventSortTitle:   "title",
}

// EventRepository implements domain.EventRepository for PostgreSQL
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (title, slug, description, location, organizer, starts_at, image_url, image_key, image_caption)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, starts_at < NOW(), created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		event.Title,
		event.Slug,
		event.Description,
		event.Location,
		event.Organizer,
		event.StartsAt,
		event.ImageURL,
		event.ImageKey,
		event.ImageCaption,
	).Scan(&event.ID, &event.IsPast, &event.CreatedAt, &event.UpdatedAt)
	return translate(err)
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// GetBySlug retrieves an event by slug
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug); err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// SlugExists reports whether a slug is taken by an event other than excludeID
func (r *EventRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1 AND id <> $2)`
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

func eventWhere(filter domain.EventFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Search != "" {
		w.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d OR location ILIKE $%[1]d OR organizer ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Location != "" {
		w.add("location ILIKE $%d", "%"+filter.Location+"%")
	}
	if filter.Organizer != "" {
		w.add("organizer ILIKE $%d", "%"+filter.Organizer+"%")
	}
	if filter.Past != nil {
		if *filter.Past {
			w.addExpr("starts_at < NOW()")
		} else {
			w.addExpr("starts_at >= NOW()")
		}
	}
	if filter.Day != nil {
		start := filter.Day.UTC().Truncate(24 * time.Hour)
		w.add("starts_at >= $%d", start)
		w.add("starts_at < $%d", start.Add(24*time.Hour))
	}
	return w
}

// List retrieves a page of events ordered by the filter's sort key
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	column, ok := eventSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	w := eventWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY %s %s, id LIMIT %s OFFSET %s`,
		eventColumns, w.clause(), column, direction, w.next(filter.Limit), w.next(filter.Offset))

	events := []*domain.Event{}
	if err := r.db.SelectContext(ctx, &events, query, w.args...); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching the filter
func (r *EventRepository) Count(ctx context.Context, filter domain.EventFilter) (int, error) {
	w := eventWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM events`+w.clause(), w.args...); err != nil {
		return 0, err
	}
	return count, nil
}

// Update writes every editable column of an event
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, slug = $2, description = $3, location = $4, organizer = $5, starts_at = $6,
		    image_url = $7, image_key = $8, image_caption = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING starts_at < NOW(), updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		event.Title,
		event.Slug,
		event.Description,
		event.Location,
		event.Organizer,
		event.StartsAt,
		event.ImageURL,
		event.ImageKey,
		event.ImageCaption,
		event.ID,
	).Scan(&event.IsPast, &event.UpdatedAt)
	return translate(err)
}

// Delete removes an event
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
