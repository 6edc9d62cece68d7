package store_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	domerr "github.com/loom-ml/loom/pkg/domain/errors"
	"github.com/loom-ml/loom/pkg/domain/tracking/store"
	"github.com/loom-ml/loom/pkg/utils/try"
)

func TestStore(t *testing.T) {
	t.Run("it stores and reads back a blob", func(t *testing.T) {
		testee := try.To(store.New(t.TempDir())).OrFatal(t)

		size, err := testee.Put("run-1", "last.ckpt", strings.NewReader("weights"))
		if err != nil {
			t.Fatal(err)
		}
		if size != int64(len("weights")) {
			t.Errorf("unexpected size: %d", size)
		}

		r := try.To(testee.Get("run-1", "last.ckpt")).OrFatal(t)
		defer r.Close()
		content := try.To(io.ReadAll(r)).OrFatal(t)
		if string(content) != "weights" {
			t.Errorf("unexpected content: %s", string(content))
		}
	})

	t.Run("it overwrites an existing blob", func(t *testing.T) {
		testee := try.To(store.New(t.TempDir())).OrFatal(t)

		try.To(testee.Put("run-1", "last.ckpt", strings.NewReader("old"))).OrFatal(t)
		try.To(testee.Put("run-1", "last.ckpt", strings.NewReader("new"))).OrFatal(t)

		r := try.To(testee.Get("run-1", "last.ckpt")).OrFatal(t)
		defer r.Close()
		content := try.To(io.ReadAll(r)).OrFatal(t)
		if string(content) != "new" {
			t.Errorf("unexpected content: %s", string(content))
		}
	})

	t.Run("it reports missing blobs", func(t *testing.T) {
		testee := try.To(store.New(t.TempDir())).OrFatal(t)

		if _, err := testee.Get("run-1", "no-such.ckpt"); !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it rejects keys escaping the root", func(t *testing.T) {
		testee := try.To(store.New(t.TempDir())).OrFatal(t)

		for _, key := range []string{"", ".", "..", "../evil", "a/b", ".hidden"} {
			if _, err := testee.Put(key, "last.ckpt", strings.NewReader("x")); err == nil {
				t.Errorf("runId %q is not rejected", key)
			}
			if _, err := testee.Put("run-1", key, strings.NewReader("x")); err == nil {
				t.Errorf("name %q is not rejected", key)
			}
			if _, err := testee.Get(key, "last.ckpt"); err == nil {
				t.Errorf("runId %q is not rejected on read", key)
			}
		}
	})
}
