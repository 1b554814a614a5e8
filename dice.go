package main

import (
	"errors"
	"fmt"
	mathrand "math/rand"
	"strconv"
	"strings"
)

var ErrInvalidManualDice = errors.New("invalid manual dice")

// DiceSource produces die results. The engine never cares whether the
// values came from the RNG or from physical dice typed in by the
// player; both paths must behave identically downstream.
type DiceSource interface {
	Roll(count, sides int) []int
}

type RandomDice struct {
	rng *mathrand.Rand
}

func newRandomDice(rng *mathrand.Rand) *RandomDice {
	return &RandomDice{rng: rng}
}

func (d *RandomDice) Roll(count, sides int) []int {
	results := make([]int, count)
	for i := range results {
		results[i] = d.rng.Intn(sides) + 1
	}
	return results
}

// parseManualDice validates a comma-separated override like "4,6"
// against the expected die count and range before any state changes.
func parseManualDice(raw string, count, sides int) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != count {
		return nil, fmt.Errorf("%w: need %d values, got %d", ErrInvalidManualDice, count, len(parts))
	}
	values := make([]int, 0, count)
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidManualDice, part)
		}
		if v < 1 || v > sides {
			return nil, fmt.Errorf("%w: %d outside 1..%d", ErrInvalidManualDice, v, sides)
		}
		values = append(values, v)
	}
	return values, nil
}

// DiceFormula is a parsed search-time formula from the position
// catalog: either "NdS" dice or a fixed day count.
type DiceFormula struct {
	Count int
	Sides int
	Fixed int
}

func (f DiceFormula) isFixed() bool {
	return f.Count == 0
}

func parseDiceFormula(formula string) (DiceFormula, error) {
	s := strings.ToLower(strings.TrimSpace(formula))
	if s == "" {
		return DiceFormula{}, fmt.Errorf("empty dice formula")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return DiceFormula{}, fmt.Errorf("negative fixed formula %q", formula)
		}
		return DiceFormula{Fixed: n}, nil
	}
	parts := strings.SplitN(s, "d", 2)
	if len(parts) != 2 {
		return DiceFormula{}, fmt.Errorf("malformed dice formula %q", formula)
	}
	count, err := strconv.Atoi(parts[0])
	if err != nil || count < 1 {
		return DiceFormula{}, fmt.Errorf("malformed dice formula %q", formula)
	}
	sides := 6
	if parts[1] != "" {
		sides, err = strconv.Atoi(parts[1])
		if err != nil || sides < 2 {
			return DiceFormula{}, fmt.Errorf("malformed dice formula %q", formula)
		}
	}
	return DiceFormula{Count: count, Sides: sides}, nil
}

// rollBase resolves a formula to its base day count, using manualRaw in
// lieu of rolling when the player supplied physical dice.
func (f DiceFormula) rollBase(src DiceSource, manualRaw string) (int, []int, error) {
	if f.isFixed() {
		return f.Fixed, nil, nil
	}
	var values []int
	if manualRaw != "" {
		parsed, err := parseManualDice(manualRaw, f.Count, f.Sides)
		if err != nil {
			return 0, nil, err
		}
		values = parsed
	} else {
		values = src.Roll(f.Count, f.Sides)
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return total, values, nil
}
