package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/loom-ml/loom-api-types/runs"
	"github.com/loom-ml/loom-api-types/tags"
)

func (c *client) RegisterRun(ctx context.Context, spec runs.RunSpec) (runs.Detail, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return runs.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath("runs"), bytes.NewReader(body),
	)
	if err != nil {
		return runs.Detail{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return runs.Detail{}, err
	}
	defer resp.Body.Close()

	detail := runs.Detail{}
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("run %s can not be registered", spec.RunId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return runs.Detail{}, err
	}
	return detail, nil
}

func (c *client) GetRun(ctx context.Context, runId string) (runs.Detail, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId), nil,
	)
	if err != nil {
		return runs.Detail{}, err
	}

	resp, err := c.do(req)
	if err != nil {
		return runs.Detail{}, err
	}
	defer resp.Body.Close()

	detail := runs.Detail{}
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("runId:%v is not found", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return runs.Detail{}, err
	}
	return detail, nil
}

func (c *client) GetTags(ctx context.Context, runId string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId, "tags"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := []tags.Tag{}
	if err := unmarshalJsonResponse(
		resp, &found,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot get tags of runId:%v", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return tags.ToMap(found), nil
}

func (c *client) PutTags(ctx context.Context, runId string, newTags map[string]string) (runs.Detail, error) {
	body, err := json.Marshal(tags.Update{Tags: tags.FromMap(newTags)})
	if err != nil {
		return runs.Detail{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("runs", runId, "tags"), bytes.NewReader(body),
	)
	if err != nil {
		return runs.Detail{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return runs.Detail{}, err
	}
	defer resp.Body.Close()

	detail := runs.Detail{}
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot update tags of runId:%v", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return runs.Detail{}, err
	}
	return detail, nil
}

func (c *client) ListCheckpoints(ctx context.Context, runId string) ([]runs.Checkpoint, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId, "checkpoints"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	found := []runs.Checkpoint{}
	if err := unmarshalJsonResponse(
		resp, &found,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot list checkpoints of runId:%v", runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return found, nil
}

func (c *client) GetCheckpoint(
	ctx context.Context, runId string, name string, handler func(io.Reader) error,
) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("runs", runId, "checkpoints", name), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	r, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("checkpoint %s of runId:%v is not found", name, runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
	if err != nil {
		return err
	}

	return handler(r)
}

func (c *client) PutCheckpoint(
	ctx context.Context, runId string, name string, r io.Reader,
) (runs.Checkpoint, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, c.apipath("runs", runId, "checkpoints", name), r,
	)
	if err != nil {
		return runs.Checkpoint{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return runs.Checkpoint{}, err
	}
	defer resp.Body.Close()

	cp := runs.Checkpoint{}
	if err := unmarshalJsonResponse(
		resp, &cp,
		MessageFor{
			Status4xx: fmt.Sprintf("cannot upload checkpoint %s of runId:%v", name, runId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return runs.Checkpoint{}, err
	}
	return cp, nil
}
