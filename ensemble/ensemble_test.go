package ensemble

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/BurntSushi/reach/fit"
	"github.com/BurntSushi/reach/protein"
	"github.com/BurntSushi/reach/trajectory"
)

func segment(t *testing.T, coords []protein.Coords) *protein.Segment {
	atoms := make([]protein.Atom, len(coords))
	for i, c := range coords {
		atoms[i] = protein.Atom{Coords: c, Type: "CA  ", Number: i + 1, Residue: i + 1}
	}
	p, err := protein.New(atoms, protein.SecondaryStructure{})
	require.NoError(t, err)
	seg, err := protein.NewSegment(p, 1, p.Len(), protein.CompleteProtein)
	require.NoError(t, err)
	return seg
}

// springHessian is the Hessian of equal springs k between all residues.
func springHessian(coords []protein.Coords, k float64) *mat.SymDense {
	n := len(coords)
	dim := 3 * n
	data := make([]float64, dim*dim)
	add := func(r, c int, v float64) { data[r*dim+c] += v }
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			var dr [3]float64
			var r2 float64
			for a := 0; a < 3; a++ {
				dr[a] = coords[i][a] - coords[j][a]
				r2 += dr[a] * dr[a]
			}
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					v := k * dr[a] * dr[b] / r2
					add(3*i+a, 3*i+b, v)
					add(3*j+a, 3*j+b, v)
					add(3*i+a, 3*j+b, -v)
					add(3*j+a, 3*i+b, -v)
				}
			}
		}
	}
	return mat.NewSymDense(dim, data)
}

// pseudoInverse inverts h on the subspace of its non-zero eigenvalues.
func pseudoInverse(t *testing.T, h *mat.SymDense, scale float64) *mat.SymDense {
	var eig mat.EigenSym
	require.True(t, eig.Factorize(h, true))
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	dim := len(vals)
	inv := mat.NewSymDense(dim, nil)
	for k, l := range vals {
		if math.Abs(l) < 1e-9 {
			continue
		}
		for i := 0; i < dim; i++ {
			for j := 0; j <= i; j++ {
				inv.SetSym(i, j, inv.At(i, j)+scale*vecs.At(i, k)*vecs.At(j, k)/l)
			}
		}
	}
	return inv
}

func TestExtractDimer(t *testing.T) {
	const k = 1.7
	kT := KT(300)
	coords := []protein.Coords{{0, 0, 0}, {3.8, 0, 0}}
	cov := pseudoInverse(t, springHessian(coords, k), kT)
	assert.InDelta(t, kT/(4*k), cov.At(0, 0), 1e-12)

	disp := []float64{0, 0, 0, 3.8, 0, 0}
	fc, err := Extract(cov, disp, 300)
	require.NoError(t, err)
	assert.InDelta(t, k, fc.K.At(1, 0), 1e-9)
	assert.InDelta(t, k, fc.K.At(0, 1), 1e-9)
	assert.InDelta(t, 3.8, fc.R.At(0, 1), 1e-12)
}

func TestExtractTriangle(t *testing.T) {
	const k = 0.8
	coords := []protein.Coords{{0, 0, 0}, {3.8, 0, 0}, {1.9, 3.8 * math.Sqrt(3) / 2, 0}}
	cov := pseudoInverse(t, springHessian(coords, k), KT(310))

	s, err := FromCovariance(cov, 310)
	require.NoError(t, err)
	fc := s.ForceConstants
	require.Equal(t, 3, fc.Len())
	for i := 0; i < 3; i++ {
		for j := 0; j < i; j++ {
			assert.InDelta(t, k, fc.K.At(i, j), 1e-8)
		}
		assert.Equal(t, 0.0, fc.K.At(i, i))
	}
	assert.Len(t, s.Displacement, 9)
	assert.InDelta(t, math.Sqrt(cov.At(0, 0)), s.Displacement[0], 1e-12)
	msf := s.MeanSquareFluctuation()
	require.Len(t, msf, 3)
	assert.InDelta(t, cov.At(3, 3)+cov.At(4, 4)+cov.At(5, 5), msf[1], 1e-12)
}

func TestExtractInvalid(t *testing.T) {
	_, err := Extract(mat.NewSymDense(4, nil), make([]float64, 4), 300)
	assert.Error(t, err)
	_, err = Extract(mat.NewSymDense(3, nil), make([]float64, 6), 300)
	assert.Error(t, err)
	_, err = FromCovariance(mat.NewSymDense(6, nil), 300)
	assert.ErrorIs(t, err, ErrNoVariance)
}

func TestPackedDiagonal(t *testing.T) {
	fc := &ForceConstants{K: mat.NewSymDense(3, nil), R: mat.NewSymDense(3, nil)}
	fc.K.SetSym(1, 0, 1)
	fc.K.SetSym(2, 1, 2)
	fc.K.SetSym(2, 0, 3)
	fc.R.SetSym(1, 0, 10)
	fc.R.SetSym(2, 1, 20)
	fc.R.SetSym(2, 0, 30)

	packed := fc.Packed()
	assert.Equal(t, []float64{
		0, 10, 30,
		1, 0, 20,
		3, 2, 0,
	}, packed.RawMatrix().Data)

	ks, rs := fc.Diagonal(1)
	assert.Equal(t, []float64{1, 2}, ks)
	assert.Equal(t, []float64{10, 20}, rs)
	ks, rs = fc.Diagonal(2)
	assert.Equal(t, []float64{3}, ks)
	assert.Equal(t, []float64{30}, rs)
	ks, _ = fc.Diagonal(3)
	assert.Empty(t, ks)
}

// jiggle returns ref moved rigidly and perturbed by noise.
func jiggle(rng *rand.Rand, ref []protein.Coords) *trajectory.Frame {
	angle := rng.Float64()
	c, s := math.Cos(angle), math.Sin(angle)
	coords := make([]protein.Coords, len(ref))
	for i, p := range ref {
		x := p[0] + rng.NormFloat64()*0.3
		y := p[1] + rng.NormFloat64()*0.3
		z := p[2] + rng.NormFloat64()*0.3
		coords[i] = protein.Coords{c*x - s*y + 5, s*x + c*y - 2, z + 1}
	}
	return trajectory.NewFrame(coords)
}

func testCoords() []protein.Coords {
	return []protein.Coords{
		{0, 0, 0}, {3.8, 0, 0}, {5, 3.5, 0}, {4, 6, 2.5}, {1, 7, 4},
	}
}

func TestWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ref := testCoords()
	seg := segment(t, ref)
	w, err := NewWindow(seg)
	require.NoError(t, err)

	reference, err := fit.NewReference(seg.Reference())
	require.NoError(t, err)

	dim := 3 * len(ref)
	mean := make([]float64, dim)
	outer := make([]float64, dim*dim)
	const frames = 50
	for f := 0; f < frames; f++ {
		frame := jiggle(rng, ref)
		require.NoError(t, w.Add(frame))

		d, err := reference.Superpose(frameCoords(frame))
		require.NoError(t, err)
		for i := range d {
			mean[i] += d[i] / frames
			for j := range d {
				outer[i*dim+j] += d[i] * d[j] / frames
			}
		}
	}
	assert.Equal(t, frames, w.Len())
	assert.Greater(t, w.MeanDeviation(), 0.0)

	s, err := w.Sample(300)
	require.NoError(t, err)
	for i := 0; i < dim; i++ {
		assert.InDelta(t, mean[i], s.Displacement[i], 1e-9)
		for j := 0; j < dim; j++ {
			assert.InDelta(t, outer[i*dim+j]-mean[i]*mean[j], s.Covariance.At(i, j), 1e-9)
		}
	}
	fc := s.ForceConstants
	assert.InDelta(t, distance(mean, 0, 1), fc.R.At(0, 1), 1e-12)
	for i := 0; i < len(ref); i++ {
		for j := 0; j < i; j++ {
			assert.False(t, math.IsNaN(fc.K.At(i, j)))
		}
	}
}

func frameCoords(f *trajectory.Frame) []protein.Coords {
	coords := make([]protein.Coords, f.Len())
	for i := range coords {
		coords[i] = f.Atom(i + 1)
	}
	return coords
}

func TestWindowIdenticalFrames(t *testing.T) {
	ref := testCoords()
	w, err := NewWindow(segment(t, ref))
	require.NoError(t, err)
	frame := trajectory.NewFrame(ref)
	for i := 0; i < 10; i++ {
		require.NoError(t, w.Add(frame))
	}
	assert.InDelta(t, 0, w.MeanDeviation(), 1e-9)
	_, err = w.Sample(300)
	assert.ErrorIs(t, err, ErrNoVariance)
}

func TestWindowErrors(t *testing.T) {
	ref := testCoords()
	w, err := NewWindow(segment(t, ref))
	require.NoError(t, err)
	assert.Error(t, w.Add(trajectory.NewFrame(ref[:3])))

	require.NoError(t, w.Add(trajectory.NewFrame(ref)))
	_, err = w.Sample(300)
	assert.ErrorIs(t, err, ErrNoVariance)
}

func TestStatistics(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ref := testCoords()
	seg := segment(t, ref)
	stats := NewStatistics(seg)

	_, err := stats.Averages()
	assert.ErrorIs(t, err, ErrNoSamples)

	var samples []*Sample
	for n := 0; n < 2; n++ {
		w, err := NewWindow(seg)
		require.NoError(t, err)
		for f := 0; f < 20; f++ {
			require.NoError(t, w.Add(jiggle(rng, ref)))
		}
		s, err := w.Sample(300)
		require.NoError(t, err)
		require.NoError(t, stats.Add(s))
		samples = append(samples, s)
	}
	assert.Equal(t, 2, stats.Len())

	avg, err := stats.Averages()
	require.NoError(t, err)
	assert.Equal(t, 2, avg.Windows)
	half := func(a, b float64) float64 { return (a + b) / 2 }
	s0, s1 := samples[0], samples[1]
	assert.InDelta(t, half(s0.ForceConstants.K.At(3, 1), s1.ForceConstants.K.At(3, 1)),
		avg.ForceConstants.K.At(3, 1), 1e-12)
	assert.InDelta(t, half(s0.ForceConstants.R.At(0, 4), s1.ForceConstants.R.At(0, 4)),
		avg.ForceConstants.R.At(0, 4), 1e-12)
	assert.InDelta(t, half(s0.Displacement[7], s1.Displacement[7]), avg.Displacement[7], 1e-12)
	assert.InDelta(t, half(s0.Covariance.At(2, 9), s1.Covariance.At(2, 9)),
		avg.Covariance.At(2, 9), 1e-12)
	assert.InDelta(t, half(s0.MeanSquareFluctuation()[2], s1.MeanSquareFluctuation()[2]),
		avg.MeanSquareFluctuation[2], 1e-12)

	other := NewStatistics(segment(t, ref[:3]))
	assert.Error(t, other.Add(s0))
}
