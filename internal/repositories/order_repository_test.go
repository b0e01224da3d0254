package repositories_test

import (
	"context"
	"errors"
	"testing"

	"backoffice/internal/apperrors"
	"backoffice/internal/database/dbtest"
	"backoffice/internal/models"
	"backoffice/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderRepositories runs every case against the SQLite-backed GORM store and
// the in-memory store, which must behave the same.
func orderRepositories() map[string]func(t *testing.T) repositories.OrderRepository {
	return map[string]func(t *testing.T) repositories.OrderRepository{
		"gorm": func(t *testing.T) repositories.OrderRepository {
			return repositories.NewGORMOrderRepository(dbtest.Open(t))
		},
		"memory": func(t *testing.T) repositories.OrderRepository {
			return repositories.NewMockOrderRepository()
		},
	}
}

func newOrder(number string) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		CustomerID:    "cust-1",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		ShippingCity:  "Springfield",
		ShippingCost:  decimal.NewFromInt(15),
		TaxAmount:     decimal.NewFromInt(5),
		Total:         decimal.NewFromInt(220),
		StandardItems: []models.OrderDetail{
			{ProductID: "prod-1", Quantity: 2, UnitPrice: decimal.NewFromInt(100), IsActive: true},
		},
		CardItems: []models.OrderDetailCard{
			{ProductID: "prod-2", CardInfoID: "card-1", Cuotas: 3, Installments: 3, Quantity: 1, UnitPrice: decimal.NewFromInt(30), IsActive: true},
		},
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			order := newOrder("ORD-20260310120000-AAAAAAAA")
			require.NoError(t, repo.Create(ctx, order))
			require.NotEmpty(t, order.ID)

			got, err := repo.GetByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, order.OrderNumber, got.OrderNumber)
			assert.True(t, decimal.NewFromInt(220).Equal(got.Total))
			require.Len(t, got.StandardItems, 1)
			require.Len(t, got.CardItems, 1)
			assert.Equal(t, order.ID, got.StandardItems[0].OrderID)
			assert.Equal(t, 3, got.CardItems[0].Installments)

			_, err = repo.GetByID(ctx, "missing")
			assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
		})
	}
}

func TestOrderRepository_DuplicateOrderNumber(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newOrder("ORD-20260310120000-BBBBBBBB")))
			err := repo.Create(ctx, newOrder("ORD-20260310120000-BBBBBBBB"))
			assert.True(t, errors.Is(err, apperrors.ErrDuplicateOrderNumber), "got %v", err)

			orders, err := repo.GetAll(ctx, models.OrderFilter{})
			require.NoError(t, err)
			assert.Len(t, orders, 1)
		})
	}
}

func TestOrderRepository_UpdateChecksVersion(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			order := newOrder("ORD-20260310120000-CCCCCCCC")
			require.NoError(t, repo.Create(ctx, order))

			first, err := repo.GetByID(ctx, order.ID)
			require.NoError(t, err)
			stale, err := repo.GetByID(ctx, order.ID)
			require.NoError(t, err)

			first.Status = models.OrderStatusConfirmed
			require.NoError(t, repo.Update(ctx, first))
			assert.Equal(t, 1, first.Version)

			stale.Status = models.OrderStatusCancelled
			err = repo.Update(ctx, stale)
			assert.True(t, errors.Is(err, apperrors.ErrConcurrentUpdate), "got %v", err)

			got, err := repo.GetByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusConfirmed, got.Status)
			assert.Len(t, got.StandardItems, 1)

			missing := newOrder("ORD-20260310120000-DDDDDDDD")
			missing.ID = "missing"
			assert.True(t, errors.Is(repo.Update(ctx, missing), apperrors.ErrOrderNotFound))
		})
	}
}

func TestOrderRepository_TransactionRollsBack(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			boom := errors.New("boom")

			order := newOrder("ORD-20260310120000-EEEEEEEE")
			err := repo.Transaction(ctx, func(tx repositories.OrderRepository) error {
				if err := tx.Create(ctx, order); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			_, err = repo.GetByID(ctx, order.ID)
			assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
			// The number is free again.
			assert.NoError(t, repo.Create(ctx, newOrder("ORD-20260310120000-EEEEEEEE")))
		})
	}
}

func TestOrderRepository_TrackingAndItems(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			order := newOrder("ORD-20260310120000-FFFFFFFF")
			require.NoError(t, repo.Create(ctx, order))

			require.NoError(t, repo.AppendTracking(ctx, &models.OrderTracking{
				OrderID:        order.ID,
				PreviousStatus: models.OrderStatusPending,
				NewStatus:      models.OrderStatusConfirmed,
				Actor:          "admin-1",
			}))
			extra := models.OrderDetail{OrderID: order.ID, ProductID: "prod-3", Quantity: 1, UnitPrice: decimal.NewFromInt(10), IsActive: true}
			require.NoError(t, repo.SaveStandardItem(ctx, &extra))
			require.NotEmpty(t, extra.ID)

			extra.IsActive = false
			require.NoError(t, repo.SaveStandardItem(ctx, &extra))

			got, err := repo.GetByID(ctx, order.ID)
			require.NoError(t, err)
			require.Len(t, got.Tracking, 1)
			assert.Equal(t, models.OrderStatusConfirmed, got.Tracking[0].NewStatus)
			require.Len(t, got.StandardItems, 2)
			assert.False(t, got.StandardItems[1].IsActive)
		})
	}
}

func TestOrderRepository_GetAllFilters(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			a := newOrder("ORD-20260310120000-11111111")
			b := newOrder("ORD-20260310120000-22222222")
			b.CustomerID = "cust-2"
			b.Status = models.OrderStatusShipped
			require.NoError(t, repo.Create(ctx, a))
			require.NoError(t, repo.Create(ctx, b))

			tests := []struct {
				name   string
				filter models.OrderFilter
				want   int
			}{
				{"all", models.OrderFilter{}, 2},
				{"by customer", models.OrderFilter{CustomerID: "cust-2"}, 1},
				{"by status", models.OrderFilter{Status: models.OrderStatusPending}, 1},
				{"by number", models.OrderFilter{Search: "2222"}, 1},
				{"limit", models.OrderFilter{Limit: 1}, 1},
				{"offset past end", models.OrderFilter{Offset: 5}, 0},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					orders, err := repo.GetAll(ctx, tt.filter)
					require.NoError(t, err)
					assert.Len(t, orders, tt.want)
				})
			}
		})
	}
}

func TestOrderRepository_DeleteRemovesOwnedRows(t *testing.T) {
	for name, open := range orderRepositories() {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			order := newOrder("ORD-20260310120000-99999999")
			require.NoError(t, repo.Create(ctx, order))
			require.NoError(t, repo.Delete(ctx, order.ID))

			_, err := repo.GetByID(ctx, order.ID)
			assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound))
			assert.True(t, errors.Is(repo.Delete(ctx, order.ID), apperrors.ErrOrderNotFound))
		})
	}
}
