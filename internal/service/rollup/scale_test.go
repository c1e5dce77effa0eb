package rollup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name                                   string
		completed, missing, remaining, target  float64
		wantCompleted, wantMissing, wantRemain float64
		wantUnfilled                           float64
	}{
		{"target larger than total", 40, 10, 30, 160, 25, 6.25, 18.75, 50},
		{"total larger than target", 100, 50, 50, 100, 50, 25, 25, 0},
		{"exact target", 80, 20, 60, 160, 50, 12.5, 37.5, 0},
		{"all zero", 0, 0, 0, 0, 0, 0, 0, 100},
		{"negative counts as zero", -10, 20, 0, 40, 0, 50, 0, 50},
		{"nan counts as zero", math.NaN(), 10, 10, 20, 0, 50, 50, 0},
		{"partial month", 5, 1, 0, 10, 50, 10, 0, 40},
		{"overrun", 8, 0, 0, 6, 100, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Scale(tt.completed, tt.missing, tt.remaining, tt.target)

			assert.InDelta(t, tt.wantCompleted, p.CompletedPercent, 1e-9)
			assert.InDelta(t, tt.wantMissing, p.MissingPercent, 1e-9)
			assert.InDelta(t, tt.wantRemain, p.RemainingPercent, 1e-9)
			assert.InDelta(t, tt.wantUnfilled, p.UnfilledPercent, 1e-9)
		})
	}
}

func TestScale_NeverExceedsFullBar(t *testing.T) {
	values := []float64{0, 0.1, 1, 3, 7.5, 33.3, 100, 1e6}
	for _, c := range values {
		for _, m := range values {
			for _, r := range values {
				for _, target := range values {
					p := Scale(c, m, r, target)
					sum := p.CompletedPercent + p.MissingPercent + p.RemainingPercent
					assert.LessOrEqual(t, sum, 100+1e-9)
					assert.GreaterOrEqual(t, p.UnfilledPercent, 0.0)
					assert.GreaterOrEqual(t, p.CompletedPercent, 0.0)
				}
			}
		}
	}
}
