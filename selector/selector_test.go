package selector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BurntSushi/reach/protein"
)

func testSelector(slow bool) *Selector {
	var cs Constants
	for i := range cs {
		cs[i] = float64(i + 1)
	}
	return New(cs, Decay{A: 0.5, B: 30, A2: 0.1, B2: 2, Slow: slow})
}

func TestSelect(t *testing.T) {
	s := testSelector(false)
	far := 8.0 * 8.0
	tests := []struct {
		name   string
		t      protein.StructureType
		offset int
		r2     float64
		want   float64
	}{
		{"strand 1", protein.BetaStrand, 1, 14, s.Constants[Strand12]},
		{"strand 2", protein.BetaStrand, 2, 30, s.Constants[Strand13]},
		{"strand 3", protein.BetaStrand, -3, 60, s.Constants[Strand14]},
		{"strand 4 falls to helix", protein.BetaStrand, 4, far, s.Constants[Helix15]},
		{"strand 7 falls to pair", protein.BetaStrand, 7, far, s.Constants[BetaPair]},
		{"helix 1", protein.AlphaHelix, 1, 14, s.Constants[Helix12]},
		{"helix 4", protein.AlphaHelix, 4, 40, s.Constants[Helix15]},
		{"helix 5 falls to pair", protein.AlphaHelix, 5, far, s.Constants[BetaPair]},
		{"pair", protein.BetaPair, 12, far, s.Constants[BetaPair]},
		{"adjacent trans", protein.None, 1, 3.8 * 3.8, s.Constants[Local12Cis]},
		{"adjacent cis", protein.None, 1, 2.9 * 2.9, s.Constants[Local12]},
		{"adjacent at threshold", protein.LocalInteraction, 1, 3.5 * 3.5, s.Constants[Local12]},
		{"second", protein.CompleteProtein, 2, 30, s.Constants[Local13]},
		{"third", protein.None, 3, 60, s.Constants[Local14]},
		{"long range", protein.None, 4, far, 30 * math.Exp(-0.5*8)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.want, s.Select(test.t, test.offset, test.r2), 1e-12)
		})
	}
}

func TestSlowDecay(t *testing.T) {
	s := testSelector(true)
	want := 30*math.Exp(-0.5*10) + 2*math.Exp(-0.1*10)
	assert.InDelta(t, want, s.Select(protein.None, 9, 100), 1e-12)
	assert.InDelta(t, want, s.Decay.At(10), 1e-12)
}

func TestConstantNames(t *testing.T) {
	assert.Equal(t, "local_12_cis", Local12Cis.String())
	assert.Equal(t, "beta_pair", BetaPair.String())
	assert.Equal(t, "unknown", Constant(-1).String())
}
