package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDateFormats(t *testing.T) {
	cases := []struct {
		line    string
		want    string
		minConf float64
	}{
		{"Date: 2024-03-05", "2024-03-05", 0.95},
		{"Date: 2024/03/05", "2024-03-05", 0.95},
		{"03/05/2024 14:02", "2024-03-05", 0.9},
		{"Mar 5, 2024", "2024-03-05", 0.9},
		{"March 5 2024", "2024-03-05", 0.9},
		{"5 Mar 2024", "2024-03-05", 0.85},
		{"03/05/24", "2024-03-05", 0.7},
	}
	for _, c := range cases {
		d, conf := detectDate([]string{c.line}, 2024)
		require.NotNil(t, d, "line %q", c.line)
		assert.Equal(t, c.want, d.Format("2006-01-02"), "line %q", c.line)
		assert.GreaterOrEqual(t, conf, c.minConf, "line %q", c.line)
	}
}

func TestDetectDateAmbiguousMonthDay(t *testing.T) {
	// no year anywhere: a match is produced but scores below threshold
	d, conf := detectDate([]string{"visited 03/05"}, 2024)
	require.NotNil(t, d)
	assert.Less(t, conf, 0.7)
}

func TestDetectDateDayFirstFallback(t *testing.T) {
	// 25 cannot be a month, so the day-first reading applies
	d, conf := detectDate([]string{"25/03/2024"}, 2024)
	require.NotNil(t, d)
	assert.Equal(t, "2024-03-25", d.Format("2006-01-02"))
	assert.GreaterOrEqual(t, conf, 0.9)
}

func TestDetectDateNone(t *testing.T) {
	d, conf := detectDate([]string{"Joe's Pizza", "no dates here"}, 2024)
	assert.Nil(t, d)
	assert.Less(t, conf, 0.3)
}

func TestDetectDateRejectsOverflow(t *testing.T) {
	// Feb 30 is not a calendar date under either month-first or day-first
	d, conf := detectDate([]string{"02/30/2024"}, 2024)
	assert.Nil(t, d)
	assert.Less(t, conf, 0.3)
}

func TestDetectDateYearlessUsesReferenceYear(t *testing.T) {
	d, _ := detectDate([]string{"visited 03/05"}, 1999)
	require.NotNil(t, d)
	assert.Equal(t, "1999-03-05", d.Format("2006-01-02"))

	// same bytes, same reference year, same date
	d2, _ := detectDate([]string{"visited 03/05"}, 1999)
	require.NotNil(t, d2)
	assert.True(t, d.Equal(*d2))
}
