package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"montaz-workers/internal/coverage"
)

func TestDateCZ(t *testing.T) {
	assert.Equal(t, "15. 10. 2026", DateCZ(time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1. 2. 2027", DateCZ(time.Date(2027, time.February, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, "pozic"},
		{1, "pozice"},
		{2, "pozice"},
		{4, "pozice"},
		{5, "pozic"},
		{12, "pozic"},
		{-1, "pozice"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Plural(tt.n, "pozice", "pozice", "pozic"), "n=%d", tt.n)
	}

	assert.Equal(t, "1 člověk", Count(1, "člověk", "lidé", "lidí"))
	assert.Equal(t, "3 lidé", Count(3, "člověk", "lidé", "lidí"))
	assert.Equal(t, "7 lidí", Count(7, "člověk", "lidé", "lidí"))
}

func TestMissingSummary(t *testing.T) {
	assert.Equal(t, "", MissingSummary(nil))
	assert.Equal(t, "1× senior, 2× junior", MissingSummary([]coverage.Tier{
		coverage.Senior, coverage.Junior, coverage.Junior,
	}))
	assert.Equal(t, "2× senior, 1× specialista, 1× medior", MissingSummary([]coverage.Tier{
		coverage.Senior, coverage.Senior, coverage.Specialista, coverage.Medior,
	}))
}
