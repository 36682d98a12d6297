// Package chainparams implements the difficulty-retarget algorithm the
// block-flow collaborator's dry-run block environment ultimately depends on.
package chainparams

import (
	"math/big"
	"sort"
)

// RetargetWindow is the number of trailing blocks a retarget calculation
// looks at.
const RetargetWindow = 18

// ReTarget adjusts currentTarget by the ratio of the window's observed time
// span to its expected span: a window that took exactly as long as expected
// leaves the target unchanged; one that took twice as long doubles it
// (making the next window easier); one that took half as long halves it.
// Deliberately avoids floating-point difficulty math: the whole
// computation stays in math/big for exact integer arithmetic (see
// DESIGN.md).
func ReTarget(currentTarget *big.Int, observedSpan, expectedSpan int64) *big.Int {
	if expectedSpan <= 0 {
		return new(big.Int).Set(currentTarget)
	}
	next := new(big.Int).Mul(currentTarget, big.NewInt(observedSpan))
	next.Div(next, big.NewInt(expectedSpan))
	return next
}

// CalMedianBlockTime returns the median timestamp of a window of block
// timestamps. Ties (duplicate timestamps within the window) are broken by
// stable sort order, i.e. the median is whichever timestamp ends up at the
// middle index after a stable ascending sort — the source left this
// unspecified, so this behavior is the one property
// tests should pin.
func CalMedianBlockTime(timestamps []int64) int64 {
	if len(timestamps) == 0 {
		return 0
	}
	sorted := append([]int64{}, timestamps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}
