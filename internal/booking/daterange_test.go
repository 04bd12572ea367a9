package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/ihome/internal/booking"
)

func date(s string) time.Time {
	t, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(begin, end string) booking.DateRange {
	return booking.DateRange{Begin: date(begin), End: date(end)}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name        string
		begin, end  string
		expectDays  int
		expectError bool
	}{
		{name: "Success", begin: "2024-06-01", end: "2024-06-10", expectDays: 9},
		{name: "SingleNight", begin: "2024-06-01", end: "2024-06-02", expectDays: 1},
		{name: "AcrossMonth", begin: "2024-02-28", end: "2024-03-01", expectDays: 2},
		{name: "SameDay", begin: "2024-06-01", end: "2024-06-01", expectError: true},
		{name: "Reversed", begin: "2024-06-10", end: "2024-06-01", expectError: true},
		{name: "BadFormat", begin: "2024/06/01", end: "2024-06-10", expectError: true},
		{name: "MissingEnd", begin: "2024-06-01", end: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := booking.ParseDateRange(tt.begin, tt.end)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, booking.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectDays, r.Days())
		})
	}
}

func TestNewDateRange_TruncatesToDay(t *testing.T) {
	begin := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)

	r, err := booking.NewDateRange(begin, end)
	require.NoError(t, err)
	assert.Equal(t, date("2024-06-01"), r.Begin)
	assert.Equal(t, date("2024-06-03"), r.End)
	assert.Equal(t, 2, r.Days())
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		a, b   booking.DateRange
		expect bool
	}{
		{name: "Identical", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-06-01", "2024-06-10"), expect: true},
		{name: "Inside", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-06-05", "2024-06-07"), expect: true},
		{name: "Contains", a: rng("2024-06-05", "2024-06-07"), b: rng("2024-06-01", "2024-06-10"), expect: true},
		{name: "OverlapStart", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-05-28", "2024-06-02"), expect: true},
		{name: "OverlapEnd", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-06-09", "2024-06-20"), expect: true},
		{name: "TouchAfter", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-06-10", "2024-06-15"), expect: false},
		{name: "TouchBefore", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-05-01", "2024-06-01"), expect: false},
		{name: "Disjoint", a: rng("2024-06-01", "2024-06-10"), b: rng("2024-07-01", "2024-07-10"), expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, booking.Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.expect, booking.Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestOverlaps_TouchingNeverOverlap(t *testing.T) {
	a := date("2024-01-01")
	for i := 1; i <= 60; i++ {
		b := a.AddDate(0, 0, i)
		c := b.AddDate(0, 0, i%7+1)
		left := booking.DateRange{Begin: a, End: b}
		right := booking.DateRange{Begin: b, End: c}
		assert.False(t, left.Overlaps(right), "%s and %s", left, right)
		assert.False(t, right.Overlaps(left), "%s and %s", right, left)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := booking.ParseWindow("", "")
	require.NoError(t, err)
	assert.True(t, w.IsZero())

	w, err = booking.ParseWindow("2024-06-01", "")
	require.NoError(t, err)
	assert.False(t, w.IsZero())
	assert.True(t, w.End.IsZero())

	_, err = booking.ParseWindow("2024-06-10", "2024-06-01")
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = booking.ParseWindow("tomorrow", "")
	assert.ErrorIs(t, err, booking.ErrValidation)
}

func TestWindow_Overlaps(t *testing.T) {
	order := rng("2024-06-01", "2024-06-10")

	tests := []struct {
		name       string
		begin, end string
		expect     bool
	}{
		{name: "BothBounds", begin: "2024-06-05", end: "2024-06-07", expect: true},
		{name: "BothBoundsTouching", begin: "2024-06-10", end: "2024-06-12", expect: false},
		{name: "BeginOnlyBeforeEnd", begin: "2024-06-09", expect: true},
		{name: "BeginOnlyAtEnd", begin: "2024-06-10", expect: false},
		{name: "EndOnlyAfterBegin", end: "2024-06-02", expect: true},
		{name: "EndOnlyAtBegin", end: "2024-06-01", expect: false},
		{name: "Unbounded", expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := booking.ParseWindow(tt.begin, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, w.Overlaps(order))
		})
	}
}
