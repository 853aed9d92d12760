package observability

import (
	"fmt"
	"strings"
)

// modelPricing is USD per 1M tokens
type modelPricing struct {
	input  float64
	output float64
}

// Pricing for the audio-capable chat models. Audio input tokens are billed
// higher than text; these rates use the text-token price, so reported cost
// is a floor, not an invoice.
var pricingTable = map[string]modelPricing{
	"gpt-audio":                 {input: 2.50, output: 10.00},
	"gpt-4o-audio-preview":      {input: 2.50, output: 10.00},
	"gpt-4o-mini-audio-preview": {input: 0.15, output: 0.60},
	"gemini-2.5-pro":            {input: 1.25, output: 10.00},
	"gemini-2.5-flash":          {input: 0.30, output: 2.50},
	"gemini-2.0-flash":          {input: 0.10, output: 0.40},
}

// CalculateCost estimates the USD cost of one model turn. Unknown models
// cost zero rather than guessing.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := pricingTable[strings.ToLower(model)]
	if !ok {
		// try prefix match for dated snapshots like gemini-2.5-flash-001
		for name, p := range pricingTable {
			if strings.HasPrefix(strings.ToLower(model), name) {
				pricing, ok = p, true
				break
			}
		}
	}
	if !ok {
		return 0
	}

	const perMillion = 1_000_000
	return float64(inputTokens)/perMillion*pricing.input +
		float64(outputTokens)/perMillion*pricing.output
}

// FormatCost renders a cost for logs
func FormatCost(cost float64) string {
	if cost <= 0 {
		return "$0.00"
	}
	if cost < 0.01 {
		return fmt.Sprintf("$%.6f", cost)
	}
	return fmt.Sprintf("$%.4f", cost)
}
