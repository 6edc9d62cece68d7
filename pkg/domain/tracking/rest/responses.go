package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierr "github.com/loom-ml/loom-api-types/errors"
)

type StatusCodeRange int

const (
	Status2xx StatusCodeRange = iota
	Status4xx
	Status5xx
	StatusUnknown
)

func (s StatusCodeRange) String() string {
	switch s {
	case Status2xx:
		return "success"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return "unexpected status"
	}
}

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	switch {
	case resp.StatusCode < 300:
		return Status2xx
	case 400 <= resp.StatusCode && resp.StatusCode < 500:
		return Status4xx
	case 500 <= resp.StatusCode && resp.StatusCode < 600:
		return Status5xx
	default:
		return StatusUnknown
	}
}

type MessageFor map[StatusCodeRange]string

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is in 4xx or 5xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	if scr <= Status2xx {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf(
				"unexpected error: %w (status code = %d)", err, resp.StatusCode,
			)
		}
		return nil
	}

	return errorFromResponse(resp, messageFor, scr)
}

func unmarshalStreamResponse(resp *http.Response, messageFor MessageFor) (io.ReadCloser, error) {
	scr := StatusCodeRangeOf(resp)
	if scr <= Status2xx {
		return resp.Body, nil
	}
	return nil, errorFromResponse(resp, messageFor, scr)
}

func errorFromResponse(resp *http.Response, messageFor MessageFor, scr StatusCodeRange) error {
	message, ok := messageFor[scr]
	if !ok {
		message = scr.String()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s\ncannot read server message: %w", message, err)
	}

	eresp := new(apierr.ErrorResponse)
	if err := json.Unmarshal(body, eresp); err == nil && eresp.Message.Reason != "" {
		return fmt.Errorf("%s\n%s", message, eresp.Message.String())
	}

	return fmt.Errorf("%s\n%s", message, string(body))
}
