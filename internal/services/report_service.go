package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"backoffice/internal/apperrors"
	"backoffice/internal/cache"
	"backoffice/internal/models"
	"backoffice/internal/pricing"
	"backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// ReportCache stores computed reports. *cache.RedisCache satisfies it.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// fulfilledStatuses are the orders whose items count as sold.
var fulfilledStatuses = []models.OrderStatus{
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

const maxReportDays = 366

// DailySales is one point of a sales chart.
type DailySales struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// ProductSales is a best seller row.
type ProductSales struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Dashboard is the admin home page summary.
type Dashboard struct {
	TodayRevenue        decimal.Decimal       `json:"today_revenue"`
	YesterdayRevenue    decimal.Decimal       `json:"yesterday_revenue"`
	RevenueChange       float64               `json:"revenue_change"`
	TodayOrders         int64                 `json:"today_orders"`
	YesterdayOrders     int64                 `json:"yesterday_orders"`
	OrdersChange        float64               `json:"orders_change"`
	MonthlyRevenue      decimal.Decimal       `json:"monthly_revenue"`
	MonthlyCustomers    int64                 `json:"monthly_customers"`
	AverageOrderValue   decimal.Decimal       `json:"avg_order_value"`
	PendingOrders       []models.Order        `json:"pending_orders"`
	RecentNotifications []models.Notification `json:"recent_notifications"`
	SalesChart          []DailySales          `json:"sales_chart"`
	TopProducts         []ProductSales        `json:"top_products"`
	GeneratedAt         time.Time             `json:"generated_at"`
}

// SalesReportFilter selects the orders of a sales report. From and To are
// calendar days, both inclusive.
type SalesReportFilter struct {
	From   time.Time
	To     time.Time
	Status models.OrderStatus
}

// SalesReport is the revenue summary of a period.
type SalesReport struct {
	From              string          `json:"date_from"`
	To                string          `json:"date_to"`
	Status            string          `json:"status"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"avg_order_value"`
	TotalItems        int64           `json:"total_items"`
	DailySales        []DailySales    `json:"daily_sales"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// OrderStats counts every order by status.
type OrderStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

// ReportService computes dashboard and sales figures.
type ReportService struct {
	reports       repositories.ReportRepository
	products      repositories.ProductRepository
	notifications repositories.NotificationRepository
	cache         ReportCache
}

// NewReportService creates a new ReportService. cache may be nil.
func NewReportService(
	reports repositories.ReportRepository,
	products repositories.ProductRepository,
	notifications repositories.NotificationRepository,
	reportCache ReportCache,
) *ReportService {
	return &ReportService{
		reports:       reports,
		products:      products,
		notifications: notifications,
		cache:         reportCache,
	}
}

// Dashboard builds the summary for the day containing now.
func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	today := startOfDay(now)
	key := dashboardKey(today)
	if s.cache != nil {
		var cached Dashboard
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("Warning: Failed to read dashboard from cache: %v", err)
		}
	}

	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	monthStart := today.AddDate(0, 0, -30)

	todayAgg, err := s.reports.AggregateOrders(ctx, repositories.ReportFilter{From: today, To: tomorrow})
	if err != nil {
		return nil, err
	}
	yesterdayAgg, err := s.reports.AggregateOrders(ctx, repositories.ReportFilter{From: yesterday, To: today})
	if err != nil {
		return nil, err
	}
	monthly := repositories.ReportFilter{From: monthStart}
	monthAgg, err := s.reports.AggregateOrders(ctx, monthly)
	if err != nil {
		return nil, err
	}
	customers, err := s.reports.CountCustomers(ctx, monthly)
	if err != nil {
		return nil, err
	}
	pending, err := s.reports.RecentOrders(ctx, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed}, 5)
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	if s.notifications != nil {
		notifications, err = s.notifications.List(ctx, true, 5)
		if err != nil {
			return nil, err
		}
	}
	chart, err := s.dailySeries(ctx, today.AddDate(0, 0, -6), today, nil)
	if err != nil {
		return nil, err
	}
	top, err := s.TopProducts(ctx, repositories.ReportFilter{From: monthStart, Statuses: fulfilledStatuses}, 5)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		TodayRevenue:        roundMoney(todayAgg.Revenue),
		YesterdayRevenue:    roundMoney(yesterdayAgg.Revenue),
		RevenueChange:       PercentageChange(yesterdayAgg.Revenue, todayAgg.Revenue),
		TodayOrders:         todayAgg.Count,
		YesterdayOrders:     yesterdayAgg.Count,
		OrdersChange:        PercentageChange(decimal.NewFromInt(yesterdayAgg.Count), decimal.NewFromInt(todayAgg.Count)),
		MonthlyRevenue:      roundMoney(monthAgg.Revenue),
		MonthlyCustomers:    customers,
		AverageOrderValue:   average(monthAgg),
		PendingOrders:       pending,
		RecentNotifications: notifications,
		SalesChart:          chart,
		TopProducts:         top,
		GeneratedAt:         now.UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard); err != nil {
			log.Printf("Warning: Failed to cache dashboard: %v", err)
		}
	}
	return dashboard, nil
}

// InvalidateDashboard drops the cached dashboard of the day containing now.
func (s *ReportService) InvalidateDashboard(ctx context.Context, now time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardKey(startOfDay(now))); err != nil {
		log.Printf("Warning: Failed to invalidate dashboard cache: %v", err)
	}
}

func dashboardKey(day time.Time) string {
	return "dashboard:" + day.Format("2006-01-02")
}

// SalesReport summarizes the orders created between filter.From and filter.To.
func (s *ReportService) SalesReport(ctx context.Context, filter SalesReportFilter) (*SalesReport, error) {
	from, to := startOfDay(filter.From), startOfDay(filter.To)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date_to is before date_from", apperrors.ErrInvalid)
	}
	if to.Sub(from) > maxReportDays*24*time.Hour {
		return nil, fmt.Errorf("%w: a report covers at most %d days", apperrors.ErrInvalid, maxReportDays)
	}
	var statuses []models.OrderStatus
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, filter.Status)
		}
		statuses = []models.OrderStatus{filter.Status}
	}

	scope := repositories.ReportFilter{From: from, To: to.AddDate(0, 0, 1), Statuses: statuses}
	agg, err := s.reports.AggregateOrders(ctx, scope)
	if err != nil {
		return nil, err
	}
	items, err := s.reports.SumQuantities(ctx, scope)
	if err != nil {
		return nil, err
	}
	daily, err := s.dailySeries(ctx, from, to, statuses)
	if err != nil {
		return nil, err
	}

	status := "all"
	if filter.Status != "" {
		status = string(filter.Status)
	}
	return &SalesReport{
		From:              from.Format("2006-01-02"),
		To:                to.Format("2006-01-02"),
		Status:            status,
		TotalRevenue:      roundMoney(agg.Revenue),
		TotalOrders:       agg.Count,
		AverageOrderValue: average(agg),
		TotalItems:        items,
		DailySales:        daily,
	}, nil
}

// StatusDistribution counts the orders of the last days days per status,
// leaving out statuses with no orders.
func (s *ReportService) StatusDistribution(ctx context.Context, now time.Time, days int) ([]StatusCount, error) {
	if days <= 0 {
		days = 30
	}
	counts, err := s.reports.CountByStatus(ctx, repositories.ReportFilter{From: startOfDay(now).AddDate(0, 0, -days)})
	if err != nil {
		return nil, err
	}
	out := make([]StatusCount, 0, len(counts))
	for _, status := range models.OrderStatuses {
		if n := counts[status]; n > 0 {
			out = append(out, StatusCount{Status: status, Count: n})
		}
	}
	return out, nil
}

// OrderStats counts all orders per status.
func (s *ReportService) OrderStats(ctx context.Context) (*OrderStats, error) {
	counts, err := s.reports.CountByStatus(ctx, repositories.ReportFilter{})
	if err != nil {
		return nil, err
	}
	stats := &OrderStats{
		Pending:   counts[models.OrderStatusPending],
		Confirmed: counts[models.OrderStatusConfirmed],
		Shipped:   counts[models.OrderStatusShipped],
		Delivered: counts[models.OrderStatusDelivered],
		Cancelled: counts[models.OrderStatusCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// TopProducts ranks products by units sold over the active items of the
// matching orders.
func (s *ReportService) TopProducts(ctx context.Context, filter repositories.ReportFilter, limit int) ([]ProductSales, error) {
	standard, card, err := s.reports.ActiveItems(ctx, filter)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*ProductSales)
	add := func(productID string, units int, revenue decimal.Decimal) {
		row, ok := byProduct[productID]
		if !ok {
			row = &ProductSales{ProductID: productID, Revenue: decimal.Zero}
			byProduct[productID] = row
		}
		row.UnitsSold += int64(units)
		row.Revenue = row.Revenue.Add(revenue)
	}
	for _, item := range standard {
		add(item.ProductID, item.Quantity, pricing.StandardSubtotal(item))
	}
	for _, item := range card {
		add(item.ProductID, item.Quantity, pricing.CardSubtotal(item))
	}
	if len(byProduct) == 0 {
		return []ProductSales{}, nil
	}

	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if row, ok := byProduct[p.ID]; ok {
			row.ProductName = p.Name
		}
	}

	rows := make([]ProductSales, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UnitsSold != rows[j].UnitsSold {
			return rows[i].UnitsSold > rows[j].UnitsSold
		}
		if !rows[i].Revenue.Equal(rows[j].Revenue) {
			return rows[i].Revenue.GreaterThan(rows[j].Revenue)
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// dailySeries returns one point per day from first to last, oldest first.
func (s *ReportService) dailySeries(ctx context.Context, first, last time.Time, statuses []models.OrderStatus) ([]DailySales, error) {
	var series []DailySales
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		agg, err := s.reports.AggregateOrders(ctx, repositories.ReportFilter{From: day, To: day.AddDate(0, 0, 1), Statuses: statuses})
		if err != nil {
			return nil, err
		}
		series = append(series, DailySales{
			Date:    day.Format("02/01"),
			Revenue: roundMoney(agg.Revenue),
			Orders:  agg.Count,
		})
	}
	return series, nil
}

// PercentageChange is the change from previous to current in percent,
// rounded to one decimal. A zero previous value yields 100 when current is
// positive and 0 otherwise.
func PercentageChange(previous, current decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return change
}

func average(agg repositories.OrderAggregate) decimal.Decimal {
	if agg.Count == 0 {
		return decimal.Zero
	}
	return agg.Revenue.DivRound(decimal.NewFromInt(agg.Count), 2)
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
