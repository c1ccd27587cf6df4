package validation

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/Davincible/polyrecover/pkg/crypto/radix"
	"github.com/Davincible/polyrecover/pkg/crypto/shamir"
)

var decimalPattern = regexp.MustCompile(`^[0-9]+$`)

func ValidateBase(base int) error {
	if !radix.ValidBase(base) {
		return fmt.Errorf("base must be between %d and %d (got %d)", radix.MinBase, radix.MaxBase, base)
	}
	return nil
}

// ParseBases parses a comma separated list such as "10,16,2".
func ParseBases(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	bases := make([]int, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		base, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid base '%s'", part)
		}
		if err := ValidateBase(base); err != nil {
			return nil, err
		}
		bases = append(bases, base)
	}

	if len(bases) == 0 {
		return nil, fmt.Errorf("at least one base is required")
	}
	return bases, nil
}

func ValidateSplitParams(parts, threshold int) error {
	if parts < 1 || parts > shamir.MaxParts {
		return fmt.Errorf("parts must be between 1 and %d (got %d)", shamir.MaxParts, parts)
	}

	if threshold < 1 || threshold > parts {
		return fmt.Errorf("threshold must be between 1 and %d (got %d)", parts, threshold)
	}

	return nil
}

func ValidateBits(bits int) error {
	if bits < 1 || bits > 1<<16 {
		return fmt.Errorf("bits must be between 1 and %d (got %d)", 1<<16, bits)
	}
	return nil
}

// ParseSecret reads a non-negative decimal integer of any size.
func ParseSecret(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("secret cannot be empty")
	}
	if !decimalPattern.MatchString(input) {
		return nil, fmt.Errorf("secret must be a non-negative decimal integer")
	}

	secret, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("secret must be a non-negative decimal integer")
	}
	return secret, nil
}

func ValidateOutputFormat(format string) error {
	switch format {
	case "decimal", "hex", "json":
		return nil
	}
	return fmt.Errorf("unknown output format '%s' (use decimal, hex or json)", format)
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
