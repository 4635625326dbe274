package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Sunny Villa", "sunny-villa"},
		{"punctuation removed", "3-Bed House, Lekki!", "3-bed-house-lekki"},
		{"collapses separators", "  Land__plot -- East  ", "land-plot-east"},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}

func TestUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("free base", func(t *testing.T) {
		got, err := Unique(ctx, "villa", func(context.Context, string) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.Equal(t, "villa", got)
	})

	t.Run("appends counter", func(t *testing.T) {
		taken := map[string]bool{"villa": true, "villa-1": true}
		got, err := Unique(ctx, "villa", func(_ context.Context, s string) (bool, error) { return taken[s], nil })
		require.NoError(t, err)
		assert.Equal(t, "villa-2", got)
	})

	t.Run("propagates lookup error", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := Unique(ctx, "villa", func(context.Context, string) (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty base", func(t *testing.T) {
		_, err := Unique(ctx, "", func(context.Context, string) (bool, error) { return false, nil })
		assert.Error(t, err)
	})
}
