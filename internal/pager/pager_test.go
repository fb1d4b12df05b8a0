package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestDisplayedNeverExceedsTotal(t *testing.T) {
	for _, size := range []int{1, 5, 12} {
		for total := 0; total <= 40; total++ {
			p := New(size)
			for i := 0; i < 10; i++ {
				d := p.Displayed(total)
				require.LessOrEqual(t, d, total)
				require.GreaterOrEqual(t, d, 0)
				assert.Equal(t, d < total, p.HasMore(total))
				assert.Len(t, Slice(p, numbers(total)), d)
				p.RequestMore(total)
			}
		}
	}
}

func TestRequestMoreAdvancesOnlyWhenMoreExist(t *testing.T) {
	p := New(12)
	assert.Equal(t, 12, p.Displayed(30))

	require.True(t, p.RequestMore(30))
	assert.Equal(t, 24, p.Displayed(30))
	require.True(t, p.RequestMore(30))
	assert.Equal(t, 30, p.Displayed(30))
	assert.False(t, p.HasMore(30))

	assert.False(t, p.RequestMore(30), "exhausted list must not advance")
	assert.Equal(t, 3, p.Page())
}

func TestShrinkingListClampsWithoutReset(t *testing.T) {
	p := New(12)
	p.RequestMore(40)
	p.RequestMore(40)
	assert.Equal(t, 36, p.Displayed(40))

	assert.Equal(t, 5, p.Displayed(5))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, Slice(p, numbers(5)))
	assert.False(t, p.HasMore(5))
}

func TestResetReturnsToFirstPage(t *testing.T) {
	p := New(10)
	p.RequestMore(100)
	p.RequestMore(100)
	p.Reset()
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 10, p.Displayed(100))
}

func TestDefaultPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, New(0).PageSize())
	assert.Equal(t, DefaultPageSize, New(-3).PageSize())
}
