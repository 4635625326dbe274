package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

// Postgres error codes translated into domain errors
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// translate maps driver errors onto domain sentinels and leaves everything else untouched
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pqErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// parentColumn returns the reviews column that references a listing kind
func parentColumn(kind domain.ParentKind) (string, error) {
	switch kind {
	case domain.ParentLand:
		return "land_id", nil
	case domain.ParentHouse:
		return "house_id", nil
	}
	return "", fmt.Errorf("%w: unknown listing kind %q", domain.ErrInvalidInput, kind)
}

// listingTable returns the table that stores a listing kind
func listingTable(kind domain.ParentKind) (string, error) {
	switch kind {
	case domain.ParentLand:
		return "lands", nil
	case domain.ParentHouse:
		return "houses", nil
	}
	return "", fmt.Errorf("%w: unknown listing kind %q", domain.ErrInvalidInput, kind)
}

// whereBuilder accumulates AND-ed conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

// addExpr adds a condition without arguments
func (w *whereBuilder) addExpr(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) next(arg interface{}) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	out := " WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		out += " AND " + c
	}
	return out
}
