package shamir

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// MaxParts bounds the number of points Split will produce.
const MaxParts = 1 << 16

var (
	ErrInvalidThreshold   = errors.New("threshold must be at least 1")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrDegeneratePoints   = errors.New("degenerate points")
	ErrNonIntegralResult  = errors.New("constant term is not an integer")
)

// Point is a share: x is the evaluation index, y the polynomial value there.
type Point struct {
	X int64
	Y *big.Int
}

// Config describes a split: Parts points, any Threshold of which recover the secret.
type Config struct {
	Parts     int
	Threshold int
}

// Validate checks that 1 <= Threshold <= Parts <= MaxParts.
func (c *Config) Validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidThreshold, c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("threshold (%d) cannot be greater than parts (%d)", c.Threshold, c.Parts)
	}
	if c.Parts > MaxParts {
		return fmt.Errorf("parts cannot exceed %d, got %d", MaxParts, c.Parts)
	}
	return nil
}

// ConstantTerm returns f(0) for the unique polynomial of degree k-1 through
// the first k points. Points beyond the first k are ignored.
func ConstantTerm(points []Point, k int) (*big.Int, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidThreshold, k)
	}
	if len(points) < k {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientPoints, k, len(points))
	}

	selected := points[:k]
	seen := make(map[int64]int, k)
	for i, p := range selected {
		if p.Y == nil {
			return nil, fmt.Errorf("point %d (x=%d) has no value", i, p.X)
		}
		if j, ok := seen[p.X]; ok {
			return nil, fmt.Errorf("%w: points %d and %d share x=%d", ErrDegeneratePoints, j, i, p.X)
		}
		seen[p.X] = i
	}

	sum := new(big.Int)
	// exact remainder of terms that did not divide evenly
	fracNum, fracDen := new(big.Int), big.NewInt(1)

	num, den := new(big.Int), new(big.Int)
	q, r := new(big.Int), new(big.Int)
	tmp := new(big.Int)

	for i, pi := range selected {
		num.SetInt64(1)
		den.SetInt64(1)
		xi := big.NewInt(pi.X)

		for j, pj := range selected {
			if i == j {
				continue
			}
			xj := big.NewInt(pj.X)
			num.Mul(num, tmp.Neg(xj))
			den.Mul(den, tmp.Sub(xi, xj))
		}
		num.Mul(num, pi.Y)

		q.QuoRem(num, den, r)
		if r.Sign() == 0 {
			sum.Add(sum, q)
			continue
		}
		addFraction(fracNum, fracDen, num, den)
	}

	if fracNum.Sign() != 0 {
		q.QuoRem(fracNum, fracDen, r)
		if r.Sign() != 0 {
			return nil, fmt.Errorf("%w: residue %s/%s", ErrNonIntegralResult, fracNum, fracDen)
		}
		sum.Add(sum, q)
	}

	return sum, nil
}

// addFraction sets an/ad to an/ad + bn/bd in lowest terms with a positive denominator.
func addFraction(an, ad, bn, bd *big.Int) {
	cross := new(big.Int).Mul(bn, ad)
	an.Mul(an, bd)
	an.Add(an, cross)
	ad.Mul(ad, bd)

	if ad.Sign() < 0 {
		an.Neg(an)
		ad.Neg(ad)
	}
	if an.Sign() == 0 {
		ad.SetInt64(1)
		return
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(an), ad)
	an.Quo(an, g)
	ad.Quo(ad, g)
}

// Polynomial holds coefficients lowest degree first; Coefficients[0] is the secret.
type Polynomial struct {
	Coefficients []*big.Int
}

// Evaluate computes the polynomial at x using Horner's rule.
func (p *Polynomial) Evaluate(x int64) *big.Int {
	result := new(big.Int)
	bx := big.NewInt(x)
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		result.Mul(result, bx)
		result.Add(result, p.Coefficients[i])
	}
	return result
}

// RandomPolynomial returns a polynomial of the given degree with constant term
// secret and other coefficients drawn uniformly from [0, 2^bits).
func RandomPolynomial(secret *big.Int, degree, bits int) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("invalid degree: %d", degree)
	}
	if bits < 1 {
		return nil, fmt.Errorf("invalid coefficient size: %d bits", bits)
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	coeffs := make([]*big.Int, degree+1)
	coeffs[0] = new(big.Int).Set(secret)
	for i := 1; i <= degree; i++ {
		c, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to generate coefficient: %w", err)
		}
		coeffs[i] = c
	}

	return &Polynomial{Coefficients: coeffs}, nil
}

// Split hides secret as the constant term of a random polynomial of degree
// Threshold-1 and returns its values at x = 1..Parts.
func Split(secret *big.Int, config Config, bits int) ([]Point, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("secret cannot be nil")
	}

	poly, err := RandomPolynomial(secret, config.Threshold-1, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	points := make([]Point, config.Parts)
	for i := range points {
		x := int64(i + 1)
		points[i] = Point{X: x, Y: poly.Evaluate(x)}
	}

	return points, nil
}
