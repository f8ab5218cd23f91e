package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Format(t *testing.T) {
	period := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	cfg := DefaultConfig("GR")
	assert.Equal(t, "GR-2025-00042", cfg.Format(period, 42))
	assert.Equal(t, "GR_2025", cfg.SequenceKey(period))

	cfg.IncludeYear = false
	cfg.PadWidth = 3
	assert.Equal(t, "GR-007", cfg.Format(period, 7))

	cfg.ResetPeriod = "month"
	assert.Equal(t, "GR_2025_03", cfg.SequenceKey(period))

	cfg.ResetPeriod = "never"
	assert.Equal(t, "GR", cfg.SequenceKey(period))
}

func TestMemoryGenerator_ResetsPerYear(t *testing.T) {
	g := NewMemoryGenerator()
	ctx := context.Background()
	cfg := DefaultConfig("GR")
	y25 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	y26 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := g.Next(ctx, cfg, y25)
	require.NoError(t, err)
	assert.Equal(t, "GR-2025-00001", n)

	n, _ = g.Next(ctx, cfg, y25)
	assert.Equal(t, "GR-2025-00002", n)

	n, _ = g.Next(ctx, cfg, y26)
	assert.Equal(t, "GR-2026-00001", n)
}
