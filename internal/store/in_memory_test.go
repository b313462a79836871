package store

import (
	"context"
	"sync"
	"testing"

	"github.com/abgdnv/productapi/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var laptopFields = ProductFields{
	Name:        "Laptop",
	Description: "High-performance laptop",
	Price:       1200,
	Category:    "electronics",
	InStock:     true,
}

func Test_InMemory_CreateAndFind(t *testing.T) {
	// given
	ctx := context.Background()
	s := NewInMemoryStore(SampleCatalog()...)

	// when
	created, err := s.Create(ctx, laptopFields)

	// then
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, created.ID, all[3].ID, "new products are appended")
	ids := map[string]struct{}{}
	for _, p := range all {
		ids[p.ID] = struct{}{}
	}
	assert.Len(t, ids, 4, "identifiers are unique")
}

func Test_InMemory_CreateRetriesOnCollision(t *testing.T) {
	// given
	ctx := context.Background()
	generated := []string{"1", "1", "fresh"}
	s := &inMemory{products: SampleCatalog(), newID: func() string {
		id := generated[0]
		generated = generated[1:]
		return id
	}}

	// when
	created, err := s.Create(ctx, laptopFields)

	// then
	require.NoError(t, err)
	assert.Equal(t, "fresh", created.ID)
}

func Test_InMemory_FindByID_NotFound(t *testing.T) {
	s := NewInMemoryStore()

	found, err := s.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, errors.ErrProductNotFound)
	assert.Nil(t, found)
}

func Test_InMemory_Update(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		expectErr error
	}{
		{name: "existing product", id: "2"},
		{name: "missing product", id: "42", expectErr: errors.ErrProductNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			s := NewInMemoryStore(SampleCatalog()...)
			before, _ := s.FindAll(ctx)

			// when
			updated, err := s.Update(ctx, tc.id, laptopFields)

			// then
			after, _ := s.FindAll(ctx)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, updated)
				assert.Equal(t, before, after)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.id, updated.ID)
			assert.Equal(t, laptopFields.Name, after[1].Name, "position is preserved")
			assert.Equal(t, before[0], after[0])
			assert.Equal(t, before[2], after[2])
		})
	}
}

func Test_InMemory_DeleteByID(t *testing.T) {
	// given
	ctx := context.Background()
	s := NewInMemoryStore(SampleCatalog()...)

	// when
	deleted, err := s.DeleteByID(ctx, "1")
	_, secondErr := s.DeleteByID(ctx, "1")

	// then
	require.NoError(t, err)
	assert.Equal(t, "Laptop", deleted.Name)
	assert.ErrorIs(t, secondErr, errors.ErrProductNotFound)
	_, findErr := s.FindByID(ctx, "1")
	assert.ErrorIs(t, findErr, errors.ErrProductNotFound)
	count, _ := s.Count(ctx)
	assert.Equal(t, 2, count)
}

func Test_InMemory_ReturnsCopies(t *testing.T) {
	// given
	ctx := context.Background()
	s := NewInMemoryStore(SampleCatalog()...)

	// when
	all, _ := s.FindAll(ctx)
	all[0].Name = "changed"
	found, _ := s.FindByID(ctx, "2")
	found.Name = "changed"

	// then
	fresh, _ := s.FindAll(ctx)
	assert.Equal(t, "Laptop", fresh[0].Name)
	assert.Equal(t, "Smartphone", fresh[1].Name)
}

func Test_InMemory_ConcurrentCreate(t *testing.T) {
	// given
	ctx := context.Background()
	s := NewInMemoryStore()
	const workers = 50

	// when
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, laptopFields)
		}()
	}
	wg.Wait()

	// then
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, count)
}
