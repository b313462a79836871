package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/query"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) FindAll(ctx context.Context) ([]store.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]store.Product)
	return products, args.Error(1)
}

func (m *mockProductStore) FindByID(ctx context.Context, id string) (*store.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*store.Product)
	return product, args.Error(1)
}

func (m *mockProductStore) Create(ctx context.Context, fields store.ProductFields) (*store.Product, error) {
	args := m.Called(ctx, fields)
	product, _ := args.Get(0).(*store.Product)
	return product, args.Error(1)
}

func (m *mockProductStore) Update(ctx context.Context, id string, fields store.ProductFields) (*store.Product, error) {
	args := m.Called(ctx, id, fields)
	product, _ := args.Get(0).(*store.Product)
	return product, args.Error(1)
}

func (m *mockProductStore) DeleteByID(ctx context.Context, id string) (*store.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*store.Product)
	return product, args.Error(1)
}

func (m *mockProductStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var desk = store.ProductFields{Name: "Desk", Description: "Oak desk", Price: 150, Category: "furniture", InStock: true}

func deskProduct(id string) *store.Product {
	return &store.Product{ID: id, Name: desk.Name, Description: desk.Description, Price: desk.Price, Category: desk.Category, InStock: desk.InStock}
}

func hasAction(action events.ProductAction, id string) any {
	return mock.MatchedBy(func(e messaging.Event) bool {
		pe, ok := e.(events.ProductEvent)
		return ok && pe.Action == action && pe.ProductID == id
	})
}

func Test_ProductService_FindByID(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name        string
		storeResult *store.Product
		storeErr    error
		expected    *ProductDto
		expectError error
	}{
		{
			name:        "Success - product found",
			storeResult: deskProduct("1"),
			expected:    &ProductDto{ID: "1", Name: "Desk", Description: "Oak desk", Price: 150, Category: "furniture", InStock: true},
		},
		{
			name:        "Error - product not found",
			storeErr:    perrors.ErrProductNotFound,
			expectError: perrors.ErrProductNotFound,
		},
		{
			name:        "Error - store failure",
			storeErr:    ErrStoreError,
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			repo := new(mockProductStore)
			repo.On("FindByID", mock.Anything, "1").Return(tc.storeResult, tc.storeErr)
			service := NewService(repo, messaging.NopPublisher{}, discardLogger())
			// when
			found, err := service.FindByID(context.Background(), "1")
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_ProductService_FindByID_NotFoundMessage(t *testing.T) {
	// given
	repo := new(mockProductStore)
	repo.On("FindByID", mock.Anything, "42").Return(nil, perrors.ErrProductNotFound)
	service := NewService(repo, messaging.NopPublisher{}, discardLogger())

	// when
	_, err := service.FindByID(context.Background(), "42")

	// then
	var e *perrors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, perrors.KindNotFound, e.Kind)
	assert.Equal(t, "Product with id 42 not found", e.Message)
}

func Test_ProductService_FindAll(t *testing.T) {
	// given
	repo := new(mockProductStore)
	repo.On("FindAll", mock.Anything).Return(store.SampleCatalog(), nil)
	service := NewService(repo, messaging.NopPublisher{}, discardLogger())

	// when
	page, err := service.FindAll(context.Background(), query.Options{Category: "electronics", Page: 2, Limit: 1})

	// then
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Smartphone", page.Products[0].Name)
	assert.Equal(t, query.Pagination{CurrentPage: 2, TotalPages: 2, TotalProducts: 2, HasNext: false, HasPrev: true}, page.Pagination)
}

func Test_ProductService_FindAll_StoreError(t *testing.T) {
	ErrStoreError := errors.New("store error")
	repo := new(mockProductStore)
	repo.On("FindAll", mock.Anything).Return(nil, ErrStoreError)
	service := NewService(repo, messaging.NopPublisher{}, discardLogger())

	_, err := service.FindAll(context.Background(), query.Options{})
	_, searchErr := service.Search(context.Background(), "x")
	_, statsErr := service.Stats(context.Background())

	assert.ErrorIs(t, err, ErrStoreError)
	assert.ErrorIs(t, searchErr, ErrStoreError)
	assert.ErrorIs(t, statsErr, ErrStoreError)
}

func Test_ProductService_SearchAndStats(t *testing.T) {
	// given
	repo := new(mockProductStore)
	repo.On("FindAll", mock.Anything).Return(store.SampleCatalog(), nil)
	service := NewService(repo, messaging.NopPublisher{}, discardLogger())

	// when
	results, err := service.Search(context.Background(), "COFFEE")
	stats, statsErr := service.Stats(context.Background())

	// then
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "3", results[0].ID)
	require.NoError(t, statsErr)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 683.33, stats.PriceStats.Average)
}

func Test_ProductService_Create(t *testing.T) {
	testCases := []struct {
		name       string
		publishErr error
	}{
		{name: "Success - event published"},
		{name: "Success - publish failure is not fatal", publishErr: errors.New("broker down")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			repo := new(mockProductStore)
			repo.On("Create", mock.Anything, desk).Return(deskProduct("new"), nil)
			publisher := new(mockPublisher)
			publisher.On("Publish", mock.Anything, hasAction(events.ProductCreated, "new")).Return(tc.publishErr)
			service := NewService(repo, publisher, discardLogger())

			// when
			created, err := service.Create(context.Background(), desk)

			// then
			require.NoError(t, err)
			assert.Equal(t, "new", created.ID)
			assert.Equal(t, "Desk", created.Name)
			publisher.AssertExpectations(t)
		})
	}
}

func Test_ProductService_Update(t *testing.T) {
	testCases := []struct {
		name        string
		storeResult *store.Product
		storeErr    error
		expectKind  perrors.Kind
		expectError bool
	}{
		{name: "Success - product updated", storeResult: deskProduct("2")},
		{name: "Error - product not found", storeErr: perrors.ErrProductNotFound, expectKind: perrors.KindNotFound, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			repo := new(mockProductStore)
			repo.On("Update", mock.Anything, "2", desk).Return(tc.storeResult, tc.storeErr)
			publisher := new(mockPublisher)
			publisher.On("Publish", mock.Anything, hasAction(events.ProductUpdated, "2")).Return(nil)
			service := NewService(repo, publisher, discardLogger())

			// when
			updated, err := service.Update(context.Background(), "2", desk)

			// then
			if tc.expectError {
				var e *perrors.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tc.expectKind, e.Kind)
				assert.Nil(t, updated)
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2", updated.ID)
			publisher.AssertExpectations(t)
		})
	}
}

func Test_ProductService_DeleteByID(t *testing.T) {
	// given
	repo := new(mockProductStore)
	repo.On("DeleteByID", mock.Anything, "3").Return(deskProduct("3"), nil).Once()
	repo.On("DeleteByID", mock.Anything, "3").Return(nil, perrors.ErrProductNotFound).Once()
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, hasAction(events.ProductDeleted, "3")).Return(nil).Once()
	service := NewService(repo, publisher, discardLogger())

	// when
	deleted, err := service.DeleteByID(context.Background(), "3")
	_, secondErr := service.DeleteByID(context.Background(), "3")

	// then
	require.NoError(t, err)
	assert.Equal(t, "3", deleted.ID)
	assert.ErrorIs(t, secondErr, perrors.ErrProductNotFound)
	publisher.AssertExpectations(t)
}

func Test_ProductService_PublishFailureIsLogged(t *testing.T) {
	// given
	repo := new(mockProductStore)
	repo.On("Create", mock.Anything, desk).Return(deskProduct("9"), nil).Once()
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, hasAction(events.ProductCreated, "9")).Return(errors.New("broker down")).Once()
	var buf bytes.Buffer
	service := NewService(repo, publisher, slog.New(slog.NewTextHandler(&buf, nil)))

	// when
	created, err := service.Create(context.Background(), desk)

	// then
	require.NoError(t, err)
	assert.Equal(t, "9", created.ID)
	assert.Contains(t, buf.String(), "Failed to publish product event")
	assert.Contains(t, buf.String(), "component=service")
	assert.Contains(t, buf.String(), "broker down")
	publisher.AssertExpectations(t)
}
