package periods

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/brightbooks-hq/brightbooks/testing"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGeneratePeriodsAprilStart(t *testing.T) {
	batch := GeneratePeriods("2025-2026", date(2025, time.April, 1))
	require.Len(t, batch, 12)

	first := batch[0]
	assert.Equal(t, "2025-2026", first.FinancialYear)
	assert.Equal(t, 1, first.PeriodNumber)
	assert.Equal(t, date(2025, time.April, 1), first.StartDate)
	assert.Equal(t, date(2025, time.April, 30), first.EndDate)
	assert.False(t, first.IsYearEnd)

	last := batch[11]
	assert.Equal(t, 12, last.PeriodNumber)
	assert.Equal(t, date(2026, time.March, 1), last.StartDate)
	assert.Equal(t, date(2026, time.March, 31), last.EndDate)
	assert.True(t, last.IsYearEnd)

	for i := 1; i < len(batch); i++ {
		gap := batch[i].StartDate.Sub(batch[i-1].EndDate)
		assert.Equal(t, 24*time.Hour, gap, "period %d must start the day after period %d ends", i+1, i)
	}
}

func TestGeneratePeriodsDecemberRollover(t *testing.T) {
	batch := GeneratePeriods("2025", date(2025, time.December, 1))
	require.Len(t, batch, 12)

	assert.Equal(t, date(2025, time.December, 31), batch[0].EndDate)
	assert.Equal(t, date(2026, time.January, 1), batch[1].StartDate)
	assert.Equal(t, date(2026, time.November, 30), batch[11].EndDate)
}

func TestGeneratePeriodsJanuaryStartHandlesFebruary(t *testing.T) {
	batch := GeneratePeriods("2024", date(2024, time.January, 1))
	require.Len(t, batch, 12)

	// 2024 is a leap year.
	assert.Equal(t, date(2024, time.February, 29), batch[1].EndDate)
	assert.Equal(t, date(2024, time.March, 1), batch[2].StartDate)
}

func TestPeriodContains(t *testing.T) {
	p := Period{StartDate: date(2025, time.April, 1), EndDate: date(2025, time.April, 30)}

	assert.True(t, p.Contains(date(2025, time.April, 1)))
	assert.True(t, p.Contains(date(2025, time.April, 30)))
	assert.False(t, p.Contains(date(2025, time.March, 31)))
	assert.False(t, p.Contains(date(2025, time.May, 1)))
}
