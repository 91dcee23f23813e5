package consensus

import (
	"errors"
	"math/big"
	"sort"
)

// ErrNoValues is returned when an aggregator is invoked with no input. The
// threshold check makes this unreachable in the normal pipeline, but the
// aggregators still refuse loudly rather than returning a sentinel.
var ErrNoValues = errors.New("cannot aggregate zero values")

// AggregateFunc combines the values collected from distinct signers into one
// trusted value. Implementations must not mutate or alias the input slice's
// elements in their result.
type AggregateFunc func(values []*big.Int) (*big.Int, error)

// Median sorts a copy of the values and returns the middle element, or the
// mean of the two middle elements truncated toward zero for even input. This
// is the default consensus function.
func Median(values []*big.Int) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	sorted := append([]*big.Int(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return new(big.Int).Set(sorted[mid]), nil
	}
	sum := new(big.Int).Add(sorted[mid-1], sorted[mid])
	return sum.Quo(sum, big.NewInt(2)), nil
}

// Mean returns the arithmetic mean truncated toward zero.
func Mean(values []*big.Int) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, v)
	}
	return sum.Quo(sum, big.NewInt(int64(len(values)))), nil
}

// Min returns the smallest value.
func Min(values []*big.Int) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	min := values[0]
	for _, v := range values[1:] {
		if v.Cmp(min) < 0 {
			min = v
		}
	}
	return new(big.Int).Set(min), nil
}

// AggregateByName resolves a configured aggregation name to its function.
func AggregateByName(name string) (AggregateFunc, bool) {
	switch name {
	case "", "median":
		return Median, true
	case "mean":
		return Mean, true
	case "min":
		return Min, true
	default:
		return nil, false
	}
}
