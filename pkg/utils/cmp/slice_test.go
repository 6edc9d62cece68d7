package cmp_test

import (
	"testing"

	"github.com/loom-ml/loom/pkg/utils/cmp"
)

func TestSliceEq(t *testing.T) {
	t.Run("it detects two slices are equal", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"a", "b", "c"}
		if !cmp.SliceEq(a, b) {
			t.Error("a != b, unexpectedly.")
		}
		if !cmp.SliceEq(b, a) {
			t.Error("b != a, unexpectedly.")
		}
	})

	t.Run("it detects order mismatch", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"c", "b", "a"}
		if cmp.SliceEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
	})

	t.Run("it detects length mismatch", func(t *testing.T) {
		a := []string{"a", "b", "c"}
		b := []string{"a", "b"}
		if cmp.SliceEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
	})
}

func TestSliceContentEq(t *testing.T) {
	t.Run("it ignores order", func(t *testing.T) {
		a := []int{1, 2, 3, 2}
		b := []int{2, 3, 2, 1}
		if !cmp.SliceContentEq(a, b) {
			t.Error("a != b, unexpectedly.")
		}
	})

	t.Run("it counts multiplicity", func(t *testing.T) {
		a := []int{1, 2, 2}
		b := []int{1, 1, 2}
		if cmp.SliceContentEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
	})
}
