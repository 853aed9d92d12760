package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	// 1M input + 1M output at gpt-audio rates
	cost := CalculateCost("gpt-audio", 1_000_000, 1_000_000)
	assert.InDelta(t, 12.50, cost, 0.0001)

	cost = CalculateCost("gemini-2.5-flash", 2_000_000, 0)
	assert.InDelta(t, 0.60, cost, 0.0001)
}

func TestCalculateCostPrefixMatch(t *testing.T) {
	exact := CalculateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
	dated := CalculateCost("gemini-2.5-flash-001", 1_000_000, 1_000_000)
	assert.Equal(t, exact, dated)
}

func TestCalculateCostUnknownModel(t *testing.T) {
	assert.Zero(t, CalculateCost("mystery-model-9000", 1_000_000, 1_000_000))
}

func TestCalculateCostZeroTokens(t *testing.T) {
	assert.Zero(t, CalculateCost("gpt-audio", 0, 0))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCost(0))
	assert.Equal(t, "$0.000005", FormatCost(0.000005))
	assert.Equal(t, "$1.2500", FormatCost(1.25))
}
