package optim

import (
	"github.com/born-ml/convnet/internal/config"
	"gonum.org/v1/gonum/floats"
)

// Update applies one phase of the update rule.
//
// Prepare (commit == false):
//
//	velocity = momentum * velocity
//	values   = values + velocity
//
// Commit (commit == true):
//
//	step     = alpha * gains * grad
//	values   = values - step
//	velocity = velocity - step
//
// With AdjustRate > 0 each gain grows by AdjustRate while its gradient keeps
// the sign it had at the previous commit and shrinks by (1 - AdjustRate)
// when the sign flips; gains stay within [1/MaxCoef, MaxCoef].
func (p *Parameter) Update(params *config.Params, commit bool) {
	if !commit {
		if params.Momentum == 0 {
			return
		}
		floats.Scale(params.Momentum, p.velocity)
		floats.Add(p.values.Data(), p.velocity)
		return
	}

	if params.AdjustRate > 0 {
		p.adjustGains(params.AdjustRate, params.MaxCoef)
	}

	floats.MulTo(p.step, p.gains, p.grad)
	floats.Scale(params.Alpha, p.step)
	floats.Sub(p.values.Data(), p.step)
	floats.Sub(p.velocity, p.step)
}

func (p *Parameter) adjustGains(rate, maxCoef float64) {
	minCoef := 1 / maxCoef
	for i, g := range p.grad {
		if g*p.prevGrad[i] > 0 {
			p.gains[i] += rate
		} else {
			p.gains[i] *= 1 - rate
		}
		switch {
		case p.gains[i] > maxCoef:
			p.gains[i] = maxCoef
		case p.gains[i] < minCoef:
			p.gains[i] = minCoef
		}
	}
	copy(p.prevGrad, p.grad)
}
