package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimeOrdered(t *testing.T) {
	a, b := New(), New()
	assert.Equal(t, 7, int(a.Version()))
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a.String()[:8], b.String()[:8])
}

func TestParse(t *testing.T) {
	v := New()
	got, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, IsNil(Nil()))
}
