// Package numerics implements the distribution functions the data source
// cannot compute. Everything here is pure and deterministic.
package numerics

import "math"

const (
	betaMaxIterations = 200
	betaEpsilon       = 1e-14
	betaTiny          = 1e-30 // denominator floor for the continued fraction
)

// Lanczos series coefficients for the log-gamma approximation
var lanczosCoefficients = [6]float64{
	76.18009172947146,
	-86.50532032941677,
	24.01409824083091,
	-1.231739572450155,
	0.1208650973866179e-2,
	-0.5395239384953e-5,
}

// LogGamma computes ln(Γ(x)) for x > 0 using the Lanczos approximation.
func LogGamma(x float64) float64 {
	y := x
	tmp := x + 5.5
	tmp -= (x + 0.5) * math.Log(tmp)
	series := 1.000000000190015
	for _, c := range lanczosCoefficients {
		y++
		series += c / y
	}
	return -tmp + math.Log(2.5066282746310005*series/x)
}

// IncompleteBeta computes the regularized incomplete beta function I_x(a, b)
// via Lentz's continued-fraction algorithm. Returns 0 for x <= 0 and 1 for
// x >= 1. The symmetry identity I_x(a,b) = 1 - I_{1-x}(b,a) is applied when
// x > (a+1)/(a+b+2), where the continued fraction converges poorly.
func IncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	front := math.Exp(LogGamma(a+b) - LogGamma(a) - LogGamma(b) +
		a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the continued fraction for IncompleteBeta
// using the modified Lentz method. Denominators are clamped away from zero.
func betaContinuedFraction(a, b, x float64) float64 {
	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < betaTiny {
		d = betaTiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= betaMaxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		// even step
		numerator := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + numerator*d
		if math.Abs(d) < betaTiny {
			d = betaTiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < betaTiny {
			c = betaTiny
		}
		d = 1 / d
		h *= d * c

		// odd step
		numerator = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + numerator*d
		if math.Abs(d) < betaTiny {
			d = betaTiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < betaTiny {
			c = betaTiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < betaEpsilon {
			break
		}
	}
	return h
}

// TDistributionCDF computes P(T <= t) for Student's t-distribution with df
// degrees of freedom, derived from the regularized incomplete beta function.
func TDistributionCDF(t, df float64) float64 {
	x := df / (df + t*t)
	tail := 0.5 * IncompleteBeta(df/2, 0.5, x)
	if t >= 0 {
		return 1 - tail
	}
	return tail
}

// TTestPValue computes the two-tailed p-value for a t-statistic.
func TTestPValue(t, df float64) float64 {
	return 2 * (1 - TDistributionCDF(math.Abs(t), df))
}

// Abramowitz-Stegun error-function approximation coefficients
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// NormalCDF computes the standard normal cumulative distribution function
// using the five-coefficient Abramowitz-Stegun error-function approximation.
func NormalCDF(z float64) float64 {
	sign := 1.0
	if z < 0 {
		sign = -1
	}
	x := math.Abs(z) / math.Sqrt2

	t := 1 / (1 + erfP*x)
	erf := 1 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)

	return 0.5 * (1 + sign*erf)
}

// ZTestPValue computes the two-tailed p-value for a z-statistic.
func ZTestPValue(z float64) float64 {
	return 2 * (1 - NormalCDF(math.Abs(z)))
}
