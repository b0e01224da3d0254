package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// Transactions are serialized and roll back by restoring a snapshot.
type MockOrderRepository struct {
	orders  map[string]models.Order
	numbers map[string]string
	mu      sync.RWMutex
	txMu    sync.Mutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:  make(map[string]models.Order),
		numbers: make(map[string]string),
	}
}

// Transaction runs fn with exclusive access to the repository.
func (r *MockOrderRepository) Transaction(ctx context.Context, fn func(repo OrderRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	orders := make(map[string]models.Order, len(r.orders))
	for id, o := range r.orders {
		orders[id] = cloneOrder(o)
	}
	numbers := make(map[string]string, len(r.numbers))
	for n, id := range r.numbers {
		numbers[n] = id
	}
	r.mu.RUnlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.orders, r.numbers = orders, numbers
		r.mu.Unlock()
		return err
	}
	return nil
}

// GetAll returns the orders matching filter, newest first.
func (r *MockOrderRepository) GetAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if matchesFilter(order, filter) {
			o := cloneOrder(order)
			o.Tracking = nil
			orderList = append(orderList, o)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(orderList) {
			return []models.Order{}, nil
		}
		orderList = orderList[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(orderList) {
		orderList = orderList[:filter.Limit]
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrOrderNotFound)
	}
	o := cloneOrder(order)
	return &o, nil
}

// Create adds a new order, enforcing order number uniqueness.
func (r *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.numbers[order.OrderNumber]; taken {
		return fmt.Errorf("order number %s: %w", order.OrderNumber, apperrors.ErrDuplicateOrderNumber)
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for i := range order.StandardItems {
		order.StandardItems[i].OrderID = order.ID
		if order.StandardItems[i].ID == "" {
			order.StandardItems[i].ID = uuid.New().String()
		}
	}
	for i := range order.CardItems {
		order.CardItems[i].OrderID = order.ID
		if order.CardItems[i].ID == "" {
			order.CardItems[i].ID = uuid.New().String()
		}
	}
	r.orders[order.ID] = cloneOrder(*order)
	r.numbers[order.OrderNumber] = order.ID
	return nil
}

// Update overwrites the order's own fields, keeping its items and history.
func (r *MockOrderRepository) Update(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", order.ID, apperrors.ErrOrderNotFound)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("order %s at version %d: %w", order.ID, order.Version, apperrors.ErrConcurrentUpdate)
	}
	order.Version++
	order.UpdatedAt = time.Now().UTC()

	updated := cloneOrder(*order)
	updated.OrderNumber = stored.OrderNumber
	updated.CreatedAt = stored.CreatedAt
	updated.StandardItems = stored.StandardItems
	updated.CardItems = stored.CardItems
	updated.Tracking = stored.Tracking
	r.orders[order.ID] = updated
	return nil
}

// SaveStandardItem inserts or replaces a standard item of an existing order.
func (r *MockOrderRepository) SaveStandardItem(ctx context.Context, item *models.OrderDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[item.OrderID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", item.OrderID, apperrors.ErrOrderNotFound)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
		order.StandardItems = append(order.StandardItems, *item)
	} else {
		found := false
		for i := range order.StandardItems {
			if order.StandardItems[i].ID == item.ID {
				order.StandardItems[i] = *item
				found = true
			}
		}
		if !found {
			return fmt.Errorf("order item with ID %s: %w", item.ID, apperrors.ErrNotFound)
		}
	}
	r.orders[order.ID] = order
	return nil
}

// SaveCardItem inserts or replaces a card item of an existing order.
func (r *MockOrderRepository) SaveCardItem(ctx context.Context, item *models.OrderDetailCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[item.OrderID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", item.OrderID, apperrors.ErrOrderNotFound)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
		order.CardItems = append(order.CardItems, *item)
	} else {
		found := false
		for i := range order.CardItems {
			if order.CardItems[i].ID == item.ID {
				order.CardItems[i] = *item
				found = true
			}
		}
		if !found {
			return fmt.Errorf("card item with ID %s: %w", item.ID, apperrors.ErrNotFound)
		}
	}
	r.orders[order.ID] = order
	return nil
}

// AppendTracking adds a status change record to an order's history.
func (r *MockOrderRepository) AppendTracking(ctx context.Context, entry *models.OrderTracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[entry.OrderID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", entry.OrderID, apperrors.ErrOrderNotFound)
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	order.Tracking = append(order.Tracking, *entry)
	r.orders[order.ID] = order
	return nil
}

// Delete removes an order and its items.
func (r *MockOrderRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, apperrors.ErrOrderNotFound)
	}
	delete(r.numbers, order.OrderNumber)
	delete(r.orders, id)
	return nil
}

func matchesFilter(o models.Order, f models.OrderFilter) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.OrderNumber), q) &&
			!strings.Contains(strings.ToLower(o.ShippingPhone), q) &&
			!strings.Contains(strings.ToLower(o.ShippingCity), q) {
			return false
		}
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func cloneOrder(o models.Order) models.Order {
	o.StandardItems = append([]models.OrderDetail(nil), o.StandardItems...)
	o.CardItems = append([]models.OrderDetailCard(nil), o.CardItems...)
	o.Tracking = append([]models.OrderTracking(nil), o.Tracking...)
	return o
}
