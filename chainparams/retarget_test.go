package chainparams

import (
	"math/big"
	"testing"
)

// TestReTarget_ExactSpanLeavesTargetUnchanged pins scenario 8: an 18-block
// window that took exactly the expected span keeps the target unchanged.
func TestReTarget_ExactSpanLeavesTargetUnchanged(t *testing.T) {
	current := big.NewInt(1_000_000)
	expected := int64(RetargetWindow) * 60
	got := ReTarget(current, expected, expected)
	if got.Cmp(current) != 0 {
		t.Errorf("ReTarget(exact span) = %s, want unchanged %s", got, current)
	}
}

func TestReTarget_DoubleSpanDoublesTarget(t *testing.T) {
	current := big.NewInt(1_000_000)
	expected := int64(RetargetWindow) * 60
	got := ReTarget(current, expected*2, expected)
	want := new(big.Int).Mul(current, big.NewInt(2))
	if got.Cmp(want) != 0 {
		t.Errorf("ReTarget(2x span) = %s, want %s", got, want)
	}
}

func TestReTarget_HalfSpanHalvesTarget(t *testing.T) {
	current := big.NewInt(1_000_000)
	expected := int64(RetargetWindow) * 60
	got := ReTarget(current, expected/2, expected)
	want := new(big.Int).Div(current, big.NewInt(2))
	if got.Cmp(want) != 0 {
		t.Errorf("ReTarget(0.5x span) = %s, want %s", got, want)
	}
}

func TestReTarget_NonPositiveExpectedSpanLeavesTargetUnchanged(t *testing.T) {
	current := big.NewInt(42)
	got := ReTarget(current, 100, 0)
	if got.Cmp(current) != 0 {
		t.Errorf("ReTarget(expectedSpan=0) = %s, want unchanged %s", got, current)
	}
}

func TestCalMedianBlockTime_OddCount(t *testing.T) {
	got := CalMedianBlockTime([]int64{5, 1, 3})
	if got != 3 {
		t.Errorf("median = %d, want 3", got)
	}
}

// TestCalMedianBlockTime_TieBreakIsStableMiddleIndex pins the tie-breaking
// behavior this package decided for the open question of duplicate
// timestamps within a window: the value landing at the middle index of a
// stable ascending sort, not an interpolated average.
func TestCalMedianBlockTime_TieBreakIsStableMiddleIndex(t *testing.T) {
	got := CalMedianBlockTime([]int64{7, 7, 3, 7, 1})
	if got != 7 {
		t.Errorf("median = %d, want 7", got)
	}
}

func TestCalMedianBlockTime_Empty(t *testing.T) {
	if got := CalMedianBlockTime(nil); got != 0 {
		t.Errorf("median of empty window = %d, want 0", got)
	}
}
