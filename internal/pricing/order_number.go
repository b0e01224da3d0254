package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberGenerator produces human-facing order numbers of the form
// ORD-YYYYMMDDHHMMSS-XXXXXXXX. The random suffix keeps numbers created in the
// same second apart; the store's unique index is what guarantees uniqueness.
type OrderNumberGenerator struct {
	Now func() time.Time
}

// NewOrderNumberGenerator returns a generator using the wall clock in UTC.
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{Now: func() time.Time { return time.Now().UTC() }}
}

// Next returns a fresh order number.
func (g *OrderNumberGenerator) Next() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("ORD-%s-%s", g.Now().Format("20060102150405"), strings.ToUpper(suffix))
}
