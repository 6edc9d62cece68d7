package cmp_test

import (
	"testing"

	"github.com/loom-ml/loom/pkg/utils/cmp"
)

func TestMapEq(t *testing.T) {
	t.Run("it detects two maps are equal", func(t *testing.T) {
		a := map[string]string{"key1": "foo", "key2": "bar"}
		b := map[string]string{"key1": "foo", "key2": "bar"}
		if !cmp.MapEq(a, b) {
			t.Error("a != b, unexpectedly.")
		}
		if !cmp.MapEq(b, a) {
			t.Error("b != a, unexpectedly.")
		}
	})

	t.Run("it detects value mismatch", func(t *testing.T) {
		a := map[string]string{"key1": "foo", "key2": "bar"}
		b := map[string]string{"key1": "foo", "key2": "baz"}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
	})

	t.Run("it detects key mismatch", func(t *testing.T) {
		a := map[string]string{"key1": "foo"}
		b := map[string]string{"key2": "foo"}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
	})
}

func TestMapGeqWith(t *testing.T) {
	t.Run("superset passes", func(t *testing.T) {
		a := map[string]string{"key1": "foo", "key2": "bar", "extra": "x"}
		b := map[string]string{"key1": "foo", "key2": "bar"}
		if !cmp.MapGeqWith(a, b, func(x, y string) bool { return x == y }) {
			t.Error("a < b, unexpectedly.")
		}
	})

	t.Run("missing key fails", func(t *testing.T) {
		a := map[string]string{"key1": "foo"}
		b := map[string]string{"key1": "foo", "key2": "bar"}
		if cmp.MapGeqWith(a, b, func(x, y string) bool { return x == y }) {
			t.Error("a >= b, unexpectedly.")
		}
	})
}
