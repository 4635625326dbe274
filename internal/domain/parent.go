package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParentKind identifies which listing table a review is attached to
type ParentKind string

const (
	ParentLand  ParentKind = "land"
	ParentHouse ParentKind = "house"
)

// ParseParentKind parses "land" or "house"
func ParseParentKind(raw string) (ParentKind, error) {
	switch ParentKind(strings.ToLower(raw)) {
	case ParentLand:
		return ParentLand, nil
	case ParentHouse:
		return ParentHouse, nil
	}
	return "", fmt.Errorf("%w: unknown listing kind %q", ErrInvalidInput, raw)
}

// ParentRef is a resolved reference to exactly one listing
type ParentRef struct {
	Kind ParentKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// LandRef references a land listing
func LandRef(id uuid.UUID) ParentRef {
	return ParentRef{Kind: ParentLand, ID: id}
}

// HouseRef references a house listing
func HouseRef(id uuid.UUID) ParentRef {
	return ParentRef{Kind: ParentHouse, ID: id}
}

// IsZero reports whether the reference is unset
func (r ParentRef) IsZero() bool {
	return r.Kind == "" || r.ID == uuid.Nil
}

func (r ParentRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ResolveParent turns the two optional ids of a submission into a single reference.
// Exactly one of them must be a non-empty UUID.
func ResolveParent(landID, houseID string) (ParentRef, error) {
	landID = strings.TrimSpace(landID)
	houseID = strings.TrimSpace(houseID)

	switch {
	case landID == "" && houseID == "":
		return ParentRef{}, fmt.Errorf("%w: either land_id or house_id must be provided", ErrInvalidInput)
	case landID != "" && houseID != "":
		return ParentRef{}, fmt.Errorf("%w: only one of land_id or house_id may be provided", ErrInvalidInput)
	case landID != "":
		id, err := uuid.Parse(landID)
		if err != nil {
			return ParentRef{}, fmt.Errorf("%w: invalid land_id", ErrInvalidInput)
		}
		return LandRef(id), nil
	default:
		id, err := uuid.Parse(houseID)
		if err != nil {
			return ParentRef{}, fmt.Errorf("%w: invalid house_id", ErrInvalidInput)
		}
		return HouseRef(id), nil
	}
}
