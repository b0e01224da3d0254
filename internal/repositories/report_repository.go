package repositories

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportFilter selects the orders an aggregate runs over. Zero values match everything.
type ReportFilter struct {
	From     time.Time
	To       time.Time
	Statuses []models.OrderStatus
}

// OrderAggregate is the SUM/COUNT over a set of orders.
type OrderAggregate struct {
	Count   int64
	Revenue decimal.Decimal
}

// ReportRepository runs aggregate queries over persisted orders.
type ReportRepository interface {
	AggregateOrders(ctx context.Context, filter ReportFilter) (OrderAggregate, error)
	CountCustomers(ctx context.Context, filter ReportFilter) (int64, error)
	SumQuantities(ctx context.Context, filter ReportFilter) (int64, error)
	CountByStatus(ctx context.Context, filter ReportFilter) (map[models.OrderStatus]int64, error)
	RecentOrders(ctx context.Context, statuses []models.OrderStatus, limit int) ([]models.Order, error)
	ActiveItems(ctx context.Context, filter ReportFilter) ([]models.OrderDetail, []models.OrderDetailCard, error)
}

// GORMReportRepository is a GORM implementation of ReportRepository.
type GORMReportRepository struct {
	db *gorm.DB
}

// NewGORMReportRepository creates a new instance of GORMReportRepository.
func NewGORMReportRepository(db *gorm.DB) *GORMReportRepository {
	return &GORMReportRepository{db: db}
}

func scopeOrders(filter ReportFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !filter.From.IsZero() {
			db = db.Where("orders.created_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			db = db.Where("orders.created_at < ?", filter.To)
		}
		if len(filter.Statuses) > 0 {
			db = db.Where("orders.status IN ?", filter.Statuses)
		}
		return db
	}
}

// AggregateOrders counts the matching orders and sums their totals.
func (r *GORMReportRepository) AggregateOrders(ctx context.Context, filter ReportFilter) (OrderAggregate, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(scopeOrders(filter)).
		Select("COUNT(*) AS count, COALESCE(SUM(orders.total), 0) AS revenue").
		Scan(&row).Error
	if err != nil {
		return OrderAggregate{}, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	return OrderAggregate{Count: row.Count, Revenue: row.Revenue}, nil
}

// CountCustomers counts distinct customers among the matching orders.
func (r *GORMReportRepository) CountCustomers(ctx context.Context, filter ReportFilter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(scopeOrders(filter)).
		Distinct("orders.customer_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// SumQuantities adds up the units of every active line item of the matching orders.
func (r *GORMReportRepository) SumQuantities(ctx context.Context, filter ReportFilter) (int64, error) {
	var total int64
	for _, table := range []string{"order_details", "order_detail_cards"} {
		var units int64
		err := r.db.WithContext(ctx).Table(table).
			Joins("JOIN orders ON orders.id = "+table+".order_id").
			Where(table+".is_active = ?", true).
			Scopes(scopeOrders(filter)).
			Select("COALESCE(SUM(" + table + ".quantity), 0)").
			Scan(&units).Error
		if err != nil {
			return 0, fmt.Errorf("failed to sum quantities of %s: %w", table, err)
		}
		total += units
	}
	return total, nil
}

// CountByStatus groups the matching orders by status.
func (r *GORMReportRepository) CountByStatus(ctx context.Context, filter ReportFilter) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(scopeOrders(filter)).
		Select("orders.status AS status, COUNT(*) AS count").
		Group("orders.status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// RecentOrders returns the newest orders in the given statuses.
func (r *GORMReportRepository) RecentOrders(ctx context.Context, statuses []models.OrderStatus, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return orders, nil
}

// ActiveItems loads the active line items of the matching orders so callers
// can price them with the pricing package.
func (r *GORMReportRepository) ActiveItems(ctx context.Context, filter ReportFilter) ([]models.OrderDetail, []models.OrderDetailCard, error) {
	var standard []models.OrderDetail
	err := r.db.WithContext(ctx).Model(&models.OrderDetail{}).
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("order_details.is_active = ?", true).
		Scopes(scopeOrders(filter)).
		Select("order_details.*").
		Find(&standard).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order items: %w", err)
	}

	var card []models.OrderDetailCard
	err = r.db.WithContext(ctx).Model(&models.OrderDetailCard{}).
		Joins("JOIN orders ON orders.id = order_detail_cards.order_id").
		Where("order_detail_cards.is_active = ?", true).
		Scopes(scopeOrders(filter)).
		Select("order_detail_cards.*").
		Find(&card).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load card items: %w", err)
	}
	return standard, card, nil
}
