package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

func TestListingRepository_Create_DuplicateSlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	listing := &domain.Listing{Kind: domain.ParentHouse, Title: "Villa", Slug: "villa", Status: domain.ListingAvailable}
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO houses").
		WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: "houses_slug_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), listing)

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Create_WithUnits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	id, unitID := uuid.New(), uuid.New()
	now := time.Now()
	listing := &domain.Listing{
		Kind:   domain.ParentLand,
		Title:  "Estate",
		Slug:   "estate",
		Status: domain.ListingAvailable,
		Units:  []domain.ListingUnit{{Size: 600, Unit: "sqm", Price: 5000000, Available: true}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO lands").
		WillReturnRows(sqlmock.NewRows([]string{"id", "average_rating", "total_reviews", "version", "created_at", "updated_at"}).
			AddRow(id.String(), nil, 0, 1, now, now))
	mock.ExpectQuery(`INSERT INTO listing_units \(land_id, size, unit, price, available\)`).
		WithArgs(id, 600.0, "sqm", 5000000.0, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(unitID.String(), now))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), listing))

	require.Len(t, listing.Units, 1)
	assert.Equal(t, unitID, listing.Units[0].ID)
	assert.Equal(t, id, listing.Units[0].ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Create_UnitFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	now := time.Now()
	listing := &domain.Listing{
		Kind:  domain.ParentHouse,
		Title: "Duplex",
		Slug:  "duplex",
		Units: []domain.ListingUnit{{Size: -1, Unit: "sqm"}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO houses").
		WillReturnRows(sqlmock.NewRows([]string{"id", "average_rating", "total_reviews", "version", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), nil, 0, 1, now, now))
	mock.ExpectQuery("INSERT INTO listing_units").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "listing_units_size_check"})
	mock.ExpectRollback()

	assert.Error(t, repo.Create(context.Background(), listing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_GetByID_SetsKind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM lands WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "description", "location", "price", "status", "average_rating", "total_reviews", "version", "created_at", "updated_at"}).
			AddRow(id.String(), "Plot", "plot", nil, "Lekki", 1000.0, "AVAILABLE", "4.5", 2, 3, now, now))

	listing, err := repo.GetByID(context.Background(), domain.ParentLand, id)

	require.NoError(t, err)
	assert.Equal(t, domain.ParentLand, listing.Kind)
	require.NotNil(t, listing.AverageRating)
	assert.Equal(t, 4.5, *listing.AverageRating)
	assert.Equal(t, 3, listing.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_UpdateAggregate(t *testing.T) {
	ref := domain.HouseRef(uuid.New())
	avg := 4.0
	agg := domain.RatingAggregate{AverageRating: &avg, TotalReviews: 3, Version: 7}

	t.Run("written", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewListingRepository(db)

		mock.ExpectExec("UPDATE houses").
			WithArgs(&avg, 3, ref.ID, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateAggregate(context.Background(), ref, agg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version moved", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewListingRepository(db)

		mock.ExpectExec("UPDATE houses").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(ref.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, repo.UpdateAggregate(context.Background(), ref, agg), domain.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("listing gone", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewListingRepository(db)

		mock.ExpectExec("UPDATE houses").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(ref.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, repo.UpdateAggregate(context.Background(), ref, agg), domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListingRepository_GetAggregate_NullAverage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	ref := domain.LandRef(uuid.New())
	mock.ExpectQuery("SELECT average_rating, total_reviews, version FROM lands").
		WithArgs(ref.ID).
		WillReturnRows(sqlmock.NewRows([]string{"average_rating", "total_reviews", "version"}).AddRow(nil, 0, 1))

	agg, err := repo.GetAggregate(context.Background(), ref)

	require.NoError(t, err)
	assert.Nil(t, agg.AverageRating)
	assert.Equal(t, 0, agg.TotalReviews)
	assert.Equal(t, 1, agg.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM houses WHERE \(title ILIKE \$1 OR location ILIKE \$1 OR description ILIKE \$1\) ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("%sea%", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	listings, err := repo.List(context.Background(), domain.ParentHouse, domain.ListingFilter{Search: "sea", Limit: 20, Offset: 40})

	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
