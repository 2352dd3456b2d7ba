package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthStart(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	got := MonthStart(time.Date(2026, 10, 18, 15, 4, 5, 0, ist))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, ist), got)
}
