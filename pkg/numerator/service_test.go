package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences for a single key.
type mockQuerier struct {
	mu    sync.Mutex
	value int64
	calls int
	err   error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	switch {
	case strings.Contains(sql, "current_val = $2"):
		m.value = args[1].(int64)
	case len(args) == 2:
		m.value += args[1].(int64)
	default:
		m.value++
	}
	return &mockRow{val: m.value}
}

var period = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestNext_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("GR")

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00001", num)

	num, err = svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestNext_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("GR")
	cfg.Strategy = numerator.StrategyCached
	cfg.RangeSize = 10

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00001", num)
	assert.Equal(t, int64(10), q.value)

	num, err = svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00002", num)
	assert.Equal(t, 1, q.calls, "second number must come from the reserved range")

	for i := 0; i < 8; i++ {
		_, err = svc.Next(ctx, cfg, period)
		require.NoError(t, err)
	}

	num, err = svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00011", num)
	assert.Equal(t, int64(20), q.value)
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := numerator.DefaultConfig("GR")
	cfg.Strategy = numerator.StrategyCached
	cfg.RangeSize = 10

	_, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00101", num)
}

func TestNext_QuerierError(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("db down")})

	_, err := svc.Next(context.Background(), numerator.DefaultConfig("GR"), period)
	assert.ErrorContains(t, err, "db down")
}

func TestNewWithResolver_UsesContextQuerier(t *testing.T) {
	q := &mockQuerier{}
	resolved := 0
	svc := NewWithResolver(func(ctx context.Context) Querier {
		resolved++
		return q
	})

	_, err := svc.Next(context.Background(), numerator.DefaultConfig("GR"), period)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("GR-2025-00042"))
	assert.Equal(t, int64(7), ParseNumber("GR-007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
