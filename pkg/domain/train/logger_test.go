package train_test

import (
	"bytes"
	"testing"

	"github.com/loom-ml/loom/pkg/domain/train"
	"github.com/loom-ml/loom/pkg/utils/cmp"
)

func TestStoringLogger(t *testing.T) {
	t.Run("it collects metric lines and forwards everything", func(t *testing.T) {
		out := bytes.NewBuffer(nil)
		testee := train.NewStoringLogger(out)

		input := "" +
			"starting epoch 1\n" +
			"metric train/loss=0.25\n" +
			"some other output\n" +
			"metric val/auroc=0.91\n"
		if _, err := testee.Write([]byte(input)); err != nil {
			t.Fatal(err)
		}

		if !cmp.MapEq(testee.Metrics(), map[string]float64{
			"train/loss": 0.25,
			"val/auroc":  0.91,
		}) {
			t.Errorf("unexpected metrics: %v", testee.Metrics())
		}
		if out.String() != input {
			t.Errorf("stream is not forwarded: %s", out.String())
		}
	})

	t.Run("it handles lines split across writes", func(t *testing.T) {
		testee := train.NewStoringLogger(nil)

		for _, chunk := range []string{"metric train", "/loss=0.", "125\nmetric "} {
			if _, err := testee.Write([]byte(chunk)); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := testee.Write([]byte("val/auroc=0.875")); err != nil {
			t.Fatal(err)
		}

		// the last line has no newline, still it counts.
		if !cmp.MapEq(testee.Metrics(), map[string]float64{
			"train/loss": 0.125,
			"val/auroc":  0.875,
		}) {
			t.Errorf("unexpected metrics: %v", testee.Metrics())
		}
	})

	t.Run("the latest value wins", func(t *testing.T) {
		testee := train.NewStoringLogger(nil)
		if _, err := testee.Write([]byte(
			"metric train/loss=0.5\nmetric train/loss=0.25\n",
		)); err != nil {
			t.Fatal(err)
		}

		if !cmp.MapEq(testee.Metrics(), map[string]float64{"train/loss": 0.25}) {
			t.Errorf("unexpected metrics: %v", testee.Metrics())
		}
	})

	t.Run("it ignores malformed metric lines", func(t *testing.T) {
		testee := train.NewStoringLogger(nil)
		if _, err := testee.Write([]byte(
			"metric =0.5\n" +
				"metric train/loss\n" +
				"metric train/loss=not-a-number\n" +
				"metrics train/loss=0.5\n",
		)); err != nil {
			t.Fatal(err)
		}

		if len(testee.Metrics()) != 0 {
			t.Errorf("unexpected metrics: %v", testee.Metrics())
		}
	})
}

func TestGroup(t *testing.T) {
	t.Run("Destroy resets the initialized flag", func(t *testing.T) {
		testee := &train.Group{}
		if testee.Initialized() {
			t.Error("group is initialized from the beginning")
		}

		testee.MarkInitialized()
		if !testee.Initialized() {
			t.Error("group is not initialized")
		}

		if err := testee.Destroy(); err != nil {
			t.Fatal(err)
		}
		if testee.Initialized() {
			t.Error("group is initialized after Destroy")
		}

		// Destroy is idempotent
		if err := testee.Destroy(); err != nil {
			t.Fatal(err)
		}
	})
}
