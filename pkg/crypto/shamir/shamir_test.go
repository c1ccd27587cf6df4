package shamir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xy ...int64) []Point {
	out := make([]Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, Point{X: xy[i], Y: big.NewInt(xy[i+1])})
	}
	return out
}

func TestConstantTerm(t *testing.T) {
	tests := []struct {
		name     string
		points   []Point
		k        int
		expected int64
	}{
		{
			name:     "x^2 + 3",
			points:   pts(1, 4, 2, 7, 3, 12),
			k:        3,
			expected: 3,
		},
		{
			name:     "Constant polynomial",
			points:   pts(5, 42),
			k:        1,
			expected: 42,
		},
		{
			name:     "Line through non-adjacent x",
			points:   pts(1, 3, 3, 7), // 2x + 1, terms are 9/2 and -7/2
			k:        2,
			expected: 1,
		},
		{
			name:     "Negative constant term",
			points:   pts(1, -3, 2, 1, 4, 21), // 2x^2 - 2x - 3
			k:        3,
			expected: -3,
		},
		{
			name:     "Point at x = 0",
			points:   pts(0, 11, 2, 15), // 2x + 11
			k:        2,
			expected: 11,
		},
		{
			name:     "Sparse indexes",
			points:   pts(2, 25, 5, 112, 9, 340), // 4x^2 + x + 7
			k:        3,
			expected: 7,
		},
		{
			name:     "Extra points beyond k are ignored",
			points:   pts(1, 4, 2, 7, 3, 12, 6, 999999),
			k:        3,
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConstantTerm(tt.points, tt.k)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(big.NewInt(tt.expected)), "got %s", got)
		})
	}
}

func TestConstantTermPermutationInvariance(t *testing.T) {
	// 3x^3 - x + 8
	base := pts(1, 10, 2, 30, 4, 196, 7, 1030)
	orders := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}

	for _, order := range orders {
		permuted := make([]Point, len(order))
		for i, idx := range order {
			permuted[i] = base[idx]
		}
		got, err := ConstantTerm(permuted, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(8), got.Int64(), "order %v", order)
	}
}

func TestConstantTermUnselectedPointsDoNotMatter(t *testing.T) {
	selected := pts(1, 4, 2, 7, 3, 12)

	a := append(append([]Point{}, selected...), pts(9, 1, 10, 2)...)
	b := append(append([]Point{}, selected...), pts(10, -5, 9, 77, 1, 0)...)

	ra, err := ConstantTerm(a, 3)
	require.NoError(t, err)
	rb, err := ConstantTerm(b, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, ra.Cmp(rb))
}

func TestConstantTermInsufficientPoints(t *testing.T) {
	_, err := ConstantTerm(pts(1, 4, 2, 7), 3)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = ConstantTerm(nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestConstantTermInsufficientPointsBeforeArithmetic(t *testing.T) {
	// a nil Y would fail if any term were evaluated
	_, err := ConstantTerm([]Point{{X: 1}}, 2)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestConstantTermInvalidThreshold(t *testing.T) {
	_, err := ConstantTerm(pts(1, 4), 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = ConstantTerm(pts(1, 4), -2)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestConstantTermDegeneratePoints(t *testing.T) {
	_, err := ConstantTerm(pts(1, 4, 2, 7, 1, 4), 3)
	assert.ErrorIs(t, err, ErrDegeneratePoints)

	// the duplicate sits outside the first k and is never looked at
	got, err := ConstantTerm(pts(1, 4, 2, 7, 3, 12, 1, 4), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Int64())
}

func TestConstantTermNonIntegralResult(t *testing.T) {
	// the line through (1,0) and (3,1) crosses x=0 at -1/2
	_, err := ConstantTerm(pts(1, 0, 3, 1), 2)
	assert.ErrorIs(t, err, ErrNonIntegralResult)
}

func TestConstantTermDoesNotMutateInput(t *testing.T) {
	points := pts(1, 4, 2, 7, 3, 12)
	_, err := ConstantTerm(points, 3)
	require.NoError(t, err)
	assert.Equal(t, pts(1, 4, 2, 7, 3, 12), points)
}

func TestConstantTermLargeValues(t *testing.T) {
	secret, ok := new(big.Int).SetString("123456789abcdef0123456789abcdef012345678", 16)
	require.True(t, ok)

	c1, _ := new(big.Int).SetString("fedcba9876543210fedcba9876543210", 16)
	c2, _ := new(big.Int).SetString("1000000000000000000000000000000001", 10)
	poly := &Polynomial{Coefficients: []*big.Int{secret, c1, c2}}

	points := []Point{
		{X: 3, Y: poly.Evaluate(3)},
		{X: 1, Y: poly.Evaluate(1)},
		{X: 8, Y: poly.Evaluate(8)},
	}
	require.Greater(t, points[2].Y.BitLen(), 64)

	got, err := ConstantTerm(points, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(secret), "got %s want %s", got, secret)
}

func TestPolynomialEvaluate(t *testing.T) {
	poly := &Polynomial{Coefficients: []*big.Int{big.NewInt(3), big.NewInt(0), big.NewInt(1)}}
	assert.Equal(t, int64(3), poly.Evaluate(0).Int64())
	assert.Equal(t, int64(4), poly.Evaluate(1).Int64())
	assert.Equal(t, int64(12), poly.Evaluate(3).Int64())
	assert.Equal(t, int64(7), poly.Evaluate(-2).Int64())
}

func TestSplitAndConstantTerm(t *testing.T) {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211457", 10)
	require.True(t, ok)

	tests := []struct {
		name      string
		secret    *big.Int
		parts     int
		threshold int
		bits      int
	}{
		{name: "Small secret 3 of 5", secret: big.NewInt(1234), parts: 5, threshold: 3, bits: 16},
		{name: "Zero secret 2 of 3", secret: big.NewInt(0), parts: 3, threshold: 2, bits: 8},
		{name: "Secret above 2^128 5 of 7", secret: huge, parts: 7, threshold: 5, bits: 256},
		{name: "Single share", secret: big.NewInt(99), parts: 1, threshold: 1, bits: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := Split(tt.secret, Config{Parts: tt.parts, Threshold: tt.threshold}, tt.bits)
			require.NoError(t, err)
			assert.Len(t, points, tt.parts)

			for i, p := range points {
				assert.Equal(t, int64(i+1), p.X)
			}

			got, err := ConstantTerm(points, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(tt.secret))

			tail := points[tt.parts-tt.threshold:]
			got, err = ConstantTerm(tail, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(tt.secret))
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{name: "Valid config", config: Config{Parts: 5, Threshold: 3}},
		{name: "Threshold of one", config: Config{Parts: 1, Threshold: 1}},
		{name: "Threshold zero", config: Config{Parts: 3, Threshold: 0}, wantError: true},
		{name: "Threshold above parts", config: Config{Parts: 2, Threshold: 3}, wantError: true},
		{name: "Too many parts", config: Config{Parts: MaxParts + 1, Threshold: 2}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitInvalid(t *testing.T) {
	_, err := Split(big.NewInt(1), Config{Parts: 2, Threshold: 3}, 8)
	assert.Error(t, err)

	_, err = Split(nil, Config{Parts: 3, Threshold: 2}, 8)
	assert.Error(t, err)

	_, err = Split(big.NewInt(1), Config{Parts: 3, Threshold: 2}, 0)
	assert.Error(t, err)
}
