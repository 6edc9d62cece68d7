package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierr "github.com/loom-ml/loom-api-types/errors"
	"github.com/loom-ml/loom-api-types/misc/rfctime"
	"github.com/loom-ml/loom-api-types/runs"
	"github.com/loom-ml/loom-api-types/tags"
	"github.com/loom-ml/loom/pkg/domain/tracking/rest"
	"github.com/loom-ml/loom/pkg/utils/cmp"
	"github.com/loom-ml/loom/pkg/utils/try"
)

func errorHandler(t *testing.T, status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		buf := try.To(json.Marshal(
			apierr.ErrorResponse{Message: apierr.ErrorMessage{Reason: message}},
		)).OrFatal(t)
		w.Write(buf)
	})
}

func TestRegisterRun(t *testing.T) {
	t.Run("when server returns the registered run, it returns that as is", func(t *testing.T) {
		expectedResponse := runs.Detail{
			Summary: runs.Summary{
				RunId:      "run-1",
				Experiment: "histo-exp",
				Status:     "registered",
				UpdatedAt: try.To(rfctime.ParseRFC3339DateTime(
					"2024-10-01T12:00:00+00:00",
				)).OrFatal(t),
			},
			ParentRunId: "parent-1",
			Tags:        []tags.Tag{{Key: "model_name", Value: "deepsmile"}},
			Checkpoints: []runs.Checkpoint{},
		}

		var request *http.Request
		var requestBody []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			request = r
			requestBody = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(expectedResponse)).OrFatal(t))
		}))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api", Token: "fake-token"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		spec := runs.RunSpec{
			RunId: "run-1", Experiment: "histo-exp", ParentRunId: "parent-1",
			Tags: []tags.Tag{{Key: "model_name", Value: "deepsmile"}},
		}
		actualResponse := try.To(testee.RegisterRun(context.Background(), spec)).OrFatal(t)

		if !actualResponse.Equal(expectedResponse) {
			t.Errorf("response is not equal (actual,expected): %v,%v", actualResponse, expectedResponse)
		}

		if request.Method != http.MethodPost || request.URL.Path != "/api/runs" {
			t.Errorf("request is not POST /api/runs: %s %s", request.Method, request.URL.Path)
		}
		if auth := request.Header.Get("Authorization"); auth != "Bearer fake-token" {
			t.Errorf("unexpected authorization header: %s", auth)
		}
		actualSpec := runs.RunSpec{}
		if err := json.Unmarshal(requestBody, &actualSpec); err != nil {
			t.Fatalf("request body is not json: %v", err)
		}
		if actualSpec.RunId != spec.RunId || actualSpec.Experiment != spec.Experiment {
			t.Errorf("unexpected request body: %+v", actualSpec)
		}
	})

	t.Run("a server responding with error is given", func(t *testing.T) {
		for _, status := range []int{http.StatusConflict, http.StatusInternalServerError} {
			t.Run(fmt.Sprintf("when server responding with %d, it returns error", status), func(t *testing.T) {
				server := httptest.NewServer(errorHandler(t, status, "something wrong"))
				defer server.Close()

				profile := rest.Profile{ApiRoot: server.URL + "/api"}
				testee := try.To(rest.NewClient(&profile)).OrFatal(t)

				spec := runs.RunSpec{RunId: "run-1", Experiment: "histo-exp"}
				if _, err := testee.RegisterRun(context.Background(), spec); err == nil {
					t.Errorf("no error occured")
				}
			})
		}
	})
}

func TestGetTags(t *testing.T) {
	t.Run("when server returns tags, it returns them as a map", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/runs/run-1/tags" {
				t.Errorf("request is not GET /api/runs/run-1/tags: %s %s", r.Method, r.URL.Path)
			}
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal([]tags.Tag{
				{Key: "model_name", Value: "deepsmile"},
				{Key: "run_recovery_from_id", Value: "histo-exp:run-0"},
			})).OrFatal(t))
		}))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		actual := try.To(testee.GetTags(context.Background(), "run-1")).OrFatal(t)
		expected := map[string]string{
			"model_name":           "deepsmile",
			"run_recovery_from_id": "histo-exp:run-0",
		}
		if !cmp.MapEq(actual, expected) {
			t.Errorf("tags are not equal (actual,expected): %v,%v", actual, expected)
		}
	})
}

func TestPutTags(t *testing.T) {
	t.Run("it sends tags as an update request", func(t *testing.T) {
		var requestBody []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/api/runs/run-1/tags" {
				t.Errorf("request is not PUT /api/runs/run-1/tags: %s %s", r.Method, r.URL.Path)
			}
			requestBody = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(runs.Detail{
				Summary: runs.Summary{RunId: "run-1", Experiment: "histo-exp", Status: "running"},
				Tags:    []tags.Tag{{Key: "tag", Value: "v1"}},
			})).OrFatal(t))
		}))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		try.To(testee.PutTags(
			context.Background(), "run-1", map[string]string{"tag": "v1"},
		)).OrFatal(t)

		update := tags.Update{}
		if err := json.Unmarshal(requestBody, &update); err != nil {
			t.Fatalf("request body is not json: %v", err)
		}
		if !cmp.SliceEqWith(update.Tags, []tags.Tag{{Key: "tag", Value: "v1"}}, tags.Tag.Equal) {
			t.Errorf("unexpected update: %+v", update.Tags)
		}
	})
}

func TestGetCheckpoint(t *testing.T) {
	t.Run("when server streams a blob, it is passed to the handler", func(t *testing.T) {
		expectedContent := []byte("checkpoint payload...")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("request is not GET (actual method = %s)", r.Method)
			}
			if !strings.HasSuffix(r.URL.Path, "/runs/run-1/checkpoints/last.ckpt") {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
			w.Write(expectedContent)
		}))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		var received []byte
		err := testee.GetCheckpoint(
			context.Background(), "run-1", "last.ckpt",
			func(r io.Reader) error {
				received = try.To(io.ReadAll(r)).OrFatal(t)
				return nil
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if string(received) != string(expectedContent) {
			t.Errorf("unexpected content: %s", string(received))
		}
	})

	t.Run("when server responds 404, it returns error without calling the handler", func(t *testing.T) {
		server := httptest.NewServer(errorHandler(t, http.StatusNotFound, "no such checkpoint"))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		called := false
		err := testee.GetCheckpoint(
			context.Background(), "run-1", "last.ckpt",
			func(io.Reader) error { called = true; return nil },
		)
		if err == nil {
			t.Errorf("no error occured")
		}
		if called {
			t.Errorf("handler is called for an error response")
		}
	})
}

func TestPutCheckpoint(t *testing.T) {
	t.Run("it uploads the blob and returns stored metadata", func(t *testing.T) {
		var uploaded []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("request is not PUT (actual method = %s)", r.Method)
			}
			uploaded = try.To(io.ReadAll(r.Body)).OrFatal(t)

			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(try.To(json.Marshal(runs.Checkpoint{
				Name: "last.ckpt", Size: int64(len(uploaded)),
			})).OrFatal(t))
		}))
		defer server.Close()

		profile := rest.Profile{ApiRoot: server.URL + "/api"}
		testee := try.To(rest.NewClient(&profile)).OrFatal(t)

		cp := try.To(testee.PutCheckpoint(
			context.Background(), "run-1", "last.ckpt", strings.NewReader("fresh-weights"),
		)).OrFatal(t)

		if string(uploaded) != "fresh-weights" {
			t.Errorf("unexpected uploaded content: %s", string(uploaded))
		}
		if cp.Name != "last.ckpt" || cp.Size != int64(len("fresh-weights")) {
			t.Errorf("unexpected checkpoint: %+v", cp)
		}
	})
}
