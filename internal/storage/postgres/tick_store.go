package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/bbsma/market"
)

// TickStore reads matched ticks of the active contract for a futures code.
// The warehouse stores local wall-clock timestamps without a zone; they
// are read and written in loc.
type TickStore struct {
	pool       *Pool
	futureCode string
	loc        *time.Location
}

// NewTickStore creates a TickStore. A nil loc means UTC.
func NewTickStore(pool *Pool, futureCode string, loc *time.Location) *TickStore {
	if loc == nil {
		loc = time.UTC
	}
	return &TickStore{pool: pool, futureCode: futureCode, loc: loc}
}

// The contract table maps each trading day to the ticker that was the
// front contract for the futures code. Quantities come from the total
// table and may be missing.
const ticksQuery = `
	SELECT m.datetime, m.tickersymbol, m.price, v.quantity
	FROM quote.matched m
	JOIN quote.futurecontractcode f
		ON m.tickersymbol = f.tickersymbol AND DATE(m.datetime) = f.datetime
	LEFT JOIN quote.total v
		ON m.tickersymbol = v.tickersymbol AND m.datetime = v.datetime
	WHERE m.datetime BETWEEN $1 AND $2
		AND f.futurecode = $3
	ORDER BY m.datetime
`

// Ticks returns the ticks in [start, end], oldest first.
func (s *TickStore) Ticks(ctx context.Context, start, end time.Time) ([]market.Tick, error) {
	rows, err := s.pool.Query(ctx, ticksQuery, s.wall(start), s.wall(end), s.futureCode)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var out []market.Tick
	for rows.Next() {
		var (
			ts  time.Time
			tk  market.Tick
			qty *float64
		)
		if err := rows.Scan(&ts, &tk.Symbol, &tk.Price, &qty); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		tk.Time = s.local(ts)
		if qty != nil {
			tk.Quantity = *qty
		}
		out = append(out, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return out, nil
}

// wall returns t's wall clock in the store location, tagged UTC so the
// driver writes it unchanged.
func (s *TickStore) wall(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// local reinterprets a zone-less timestamp in the store location.
func (s *TickStore) local(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.loc)
}
