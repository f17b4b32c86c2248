// Package nlfit fits the exponential decay y = b*exp(-a*x) to weighted
// samples with the Levenberg-Marquardt method.
package nlfit

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxIterations bounds the number of damped steps tried.
	MaxIterations = 100

	initialDamping = 0.01
	tolerance      = 1e-6
)

// ErrInsufficientData is returned when there are fewer than two samples.
var ErrInsufficientData = errors.New("at least two samples are needed")

// Status tells whether the fit converged. The zero value is NotFitted.
type Status int

const (
	NotFitted Status = iota
	Converged
	MaxIterationsReached
)

func (s Status) String() string {
	switch s {
	case NotFitted:
		return "not-fitted"
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max-iterations-reached"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of an exponential fit.
type Result struct {
	A, B       float64
	ErrA, ErrB float64
	Iterations int
	Status     Status
}

// Exponential fits y = b*exp(-a*x) to the samples (x[i], y[i]) weighted by
// the inverse of variance[i].
//
// The starting point is the exponential through the first two samples. A
// step is accepted when it does not increase the weighted sum of squares,
// after which the damping shrinks; rejected steps grow the damping and are
// retried from the same point. The fit stops when an accepted step improves
// the score by a relative amount smaller than 1e-6. If that does not happen
// within MaxIterations steps, the best accepted point is returned with status
// MaxIterationsReached. Standard errors come from the undamped curvature
// matrix at the returned point.
func Exponential(x, y, variance []float64) (Result, error) {
	if len(x) != len(y) || len(x) != len(variance) {
		return Result{}, fmt.Errorf("There are %d distances, %d force "+
			"constants and %d variances.", len(x), len(y), len(variance))
	}
	if len(x) < 2 {
		return Result{}, ErrInsufficientData
	}
	if x[1] == x[0] {
		return Result{}, fmt.Errorf("The first two samples share the "+
			"distance %g.", x[0])
	}

	a := -math.Log(math.Abs(y[1]/y[0])) / (x[1] - x[0])
	b := y[0] * math.Exp(a*x[0])
	res := Result{Status: MaxIterationsReached}
	score := chiSquare(x, y, variance, a, b)

	lambda := initialDamping
	for res.Iterations < MaxIterations {
		res.Iterations++

		var q1, q2, p11, p22, p12 float64
		for i := range x {
			e := math.Exp(-a * x[i])
			da := -e * b * x[i]
			db := e
			resid := y[i] - b*e
			q1 += da * resid / variance[i]
			q2 += db * resid / variance[i]
			p11 += da * da * (1 + lambda) / variance[i]
			p22 += db * db * (1 + lambda) / variance[i]
			p12 += da * db / variance[i]
		}
		det := p11*p22 - p12*p12
		ta := a + (p22*q1-p12*q2)/det
		tb := b + (p11*q2-p12*q1)/det

		trial := chiSquare(x, y, variance, ta, tb)
		if !(trial <= score) {
			lambda *= 10
			continue
		}
		converged := score == 0 || (score-trial)/score < tolerance
		a, b, score = ta, tb, trial
		if converged {
			res.Status = Converged
			break
		}
		lambda *= 0.1
	}

	var p11, p22, p12 float64
	for i := range x {
		e := math.Exp(-a * x[i])
		da := -e * b * x[i]
		p11 += da * da / variance[i]
		p22 += e * e / variance[i]
		p12 += da * e / variance[i]
	}
	det := p11*p22 - p12*p12
	res.A, res.B = a, b
	res.ErrA = math.Sqrt(p22 / det)
	res.ErrB = math.Sqrt(p11 / det)
	return res, nil
}

// chiSquare is the weighted sum of squared residuals of the model.
func chiSquare(x, y, variance []float64, a, b float64) float64 {
	var sum float64
	for i := range x {
		d := y[i] - b*math.Exp(-a*x[i])
		sum += d * d / variance[i]
	}
	return sum
}
