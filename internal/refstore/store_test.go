// File: internal/refstore/store_test.go
package refstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/framescope/api/schemas"
)

func entry(id string) schemas.RefEntry {
	return schemas.RefEntry{
		ID:         id,
		Role:       "button",
		Name:       "Submit",
		Resolution: schemas.LocatorResolution("button", "Submit"),
		Enabled:    true,
	}
}

func TestNextIDMonotonicAcrossTiers(t *testing.T) {
	s := New()

	first := s.NextID(schemas.TierInPage)
	second := s.NextID(schemas.TierAXTree)
	third := s.NextID(schemas.TierLayout)

	assert.Equal(t, "el-1", first)
	assert.Equal(t, "ax-2", second)
	assert.Equal(t, "pt-3", third)
}

func TestLookup(t *testing.T) {
	s := New()
	id := s.NextID(schemas.TierInPage)
	s.Replace("iframe#a", []schemas.RefEntry{entry(id)})

	got, err := s.Lookup("iframe#a", id)
	require.NoError(t, err)
	assert.Equal(t, "Submit", got.Name)

	// The same id under a different frame key is meaningless.
	_, err = s.Lookup("iframe#b", id)
	assert.ErrorIs(t, err, schemas.ErrReferenceNotFound)

	_, err = s.Lookup("iframe#a", "el-999")
	assert.ErrorIs(t, err, schemas.ErrReferenceNotFound)
}

func TestReplaceInvalidatesPreviousSet(t *testing.T) {
	s := New()

	oldID := s.NextID(schemas.TierInPage)
	s.Replace("", []schemas.RefEntry{entry(oldID)})

	newID := s.NextID(schemas.TierInPage)
	s.Replace("", []schemas.RefEntry{entry(newID)})

	// The old id must fail even though an entry still occupies its ordinal
	// position in the new set.
	_, err := s.Lookup("", oldID)
	assert.ErrorIs(t, err, schemas.ErrReferenceNotFound)

	_, err = s.Lookup("", newID)
	assert.NoError(t, err)
}

func TestCounterNeverResets(t *testing.T) {
	s := New()
	seen := make(map[string]bool)

	for i := 0; i < 3; i++ {
		id := s.NextID(schemas.TierInPage)
		require.False(t, seen[id], "id %s was reissued", id)
		seen[id] = true
		s.Replace("", []schemas.RefEntry{entry(id)})
		s.InvalidateAll()
	}
}

func TestInvalidate(t *testing.T) {
	s := New()
	s.Replace("a", []schemas.RefEntry{entry(s.NextID(schemas.TierInPage))})
	s.Replace("b", []schemas.RefEntry{entry(s.NextID(schemas.TierInPage))})

	s.Invalidate("a")

	assert.Empty(t, s.Entries("a"))
	assert.Len(t, s.Entries("b"), 1)

	s.InvalidateAll()
	assert.Empty(t, s.Entries("b"))
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			key := fmt.Sprintf("frame-%d", g)
			for i := 0; i < 100; i++ {
				id := s.NextID(schemas.TierAXTree)
				s.Replace(key, []schemas.RefEntry{entry(id)})
				_, _ = s.Lookup(key, id)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	// Every id minted was unique: the counter reached exactly 400.
	last := s.NextID(schemas.TierAXTree)
	assert.True(t, strings.HasSuffix(last, "-401"), "expected counter at 401, got %s", last)
}
