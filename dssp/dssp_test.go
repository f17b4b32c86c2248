package dssp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntSushi/reach/protein"
)

const sample = `==== Secondary Structure Definition by the program DSSP ====
REFERENCE W. KABSCH AND C.SANDER, BIOPOLYMERS 22 (1983) 2577-2637
  #  RESIDUE AA STRUCTURE BP1 BP2  ACC     N-H-->O    O-->H-N
    1    1 A M              0   0  219      0, 0.0     2,-0.3
    2    2 A Q  H  >         0   0   20      0, 0.0     2,-0.3
    3    3 A I  H  >         0   0   20      0, 0.0     2,-0.3
    4    4 A F  H  >         0   0   20      0, 0.0     2,-0.3
    5    5 A V  E     -A    9   0   20      0, 0.0     2,-0.3
    6    6 A K  E     -A    8  10   20      0, 0.0     2,-0.3
    7    7 A T  T                0    0   20      0, 0.0     2,-0.3
    8    8 A L  E     -A    6   0   20      0, 0.0     2,-0.3
    9    9 A T  E     -A    5   0   20      0, 0.0     2,-0.3
   10   10 A G  H                0    0   20      0, 0.0     2,-0.3
`

func TestRead(t *testing.T) {
	ss, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []protein.Range{{Start: 2, End: 4}, {Start: 10, End: 10}}, ss.Helices)
	assert.Equal(t, []protein.Range{{Start: 5, End: 6}, {Start: 8, End: 9}}, ss.Strands)
	assert.Equal(t, []protein.Pair{{First: 5, Second: 9}, {First: 6, Second: 8}, {First: 6, Second: 10}}, ss.BetaPairs)
}

func TestReadNoHeader(t *testing.T) {
	_, err := Read(strings.NewReader("    1    1 A M  H\n"))
	assert.Error(t, err)
}

func TestReadBadPartner(t *testing.T) {
	_, err := Read(strings.NewReader(
		"  #  RESIDUE AA STRUCTURE BP1 BP2\n" +
			"    1    1 A M  E     -A   xx   0   20\n"))
	assert.Error(t, err)
}
