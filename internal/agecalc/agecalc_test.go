package agecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		asOf  time.Time
		want  int
	}{
		{"birthday today", date(2010, time.June, 15), date(2026, time.June, 15), 16},
		{"day before birthday", date(2010, time.June, 15), date(2026, time.June, 14), 15},
		{"day after birthday", date(2010, time.June, 15), date(2026, time.June, 16), 16},
		{"earlier month", date(2010, time.June, 15), date(2026, time.March, 1), 15},
		{"later month", date(2010, time.June, 15), date(2026, time.November, 1), 16},
		{"leap day birth, non-leap year", date(2012, time.February, 29), date(2026, time.February, 28), 13},
		{"leap day birth, march first", date(2012, time.February, 29), date(2026, time.March, 1), 14},
		{"newborn", date(2026, time.January, 1), date(2026, time.June, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.birth, tt.asOf))
		})
	}
}

func TestSpan(t *testing.T) {
	min, max := Span([]int{16, 12, 14})
	assert.Equal(t, 12, min)
	assert.Equal(t, 16, max)

	min, max = Span([]int{7})
	assert.Equal(t, 7, min)
	assert.Equal(t, 7, max)
}

func TestCompatible(t *testing.T) {
	t.Run("empty room always compatible", func(t *testing.T) {
		assert.True(t, Compatible(nil, 40, 0))
	})
	t.Run("within gap", func(t *testing.T) {
		assert.True(t, Compatible([]int{14, 16}, 18, 5))
	})
	t.Run("exactly at gap", func(t *testing.T) {
		assert.True(t, Compatible([]int{14}, 19, 5))
	})
	t.Run("one over gap", func(t *testing.T) {
		assert.False(t, Compatible([]int{14}, 20, 5))
	})
	t.Run("candidate younger than all occupants", func(t *testing.T) {
		assert.False(t, Compatible([]int{18, 19}, 12, 5))
	})
	t.Run("candidate inside existing span", func(t *testing.T) {
		assert.True(t, Compatible([]int{12, 17}, 15, 5))
	})
}

func TestSpanWith(t *testing.T) {
	min, max := SpanWith([]int{14, 16}, 21)
	assert.Equal(t, 14, min)
	assert.Equal(t, 21, max)

	min, max = SpanWith(nil, 30)
	assert.Equal(t, 30, min)
	assert.Equal(t, 30, max)
}
