package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loom-ml/loom-api-types/runs"
	"github.com/loom-ml/loom/pkg/utils/slices"
)

// Profile locates a tracker API endpoint.
type Profile struct {
	// ApiRoot is the root URL of the tracker API, like "https://tracker.example:8080/api".
	ApiRoot string `yaml:"apiRoot"`

	// Token is the bearer token for the tracker API. Optional.
	Token string `yaml:"token,omitempty"`

	// CACert is a PEM-encoded CA certificate to be trusted. Optional.
	CACert string `yaml:"cacert,omitempty"`
}

var ErrProfileInvalid = fmt.Errorf("profile is invalid")

func (p *Profile) Verify() error {
	if p == nil || p.ApiRoot == "" {
		return fmt.Errorf("%w: apiRoot is required", ErrProfileInvalid)
	}
	return nil
}

// TrackerClient is the REST surface of the loomd tracker consumed by the
// run driver and the checkpoint handler.
type TrackerClient interface {
	// RegisterRun creates a new run record in the tracker.
	RegisterRun(ctx context.Context, spec runs.RunSpec) (runs.Detail, error)

	// GetRun reads a run record with its tags and checkpoint metadata.
	GetRun(ctx context.Context, runId string) (runs.Detail, error)

	// GetTags reads the tag set of a run.
	GetTags(ctx context.Context, runId string) (map[string]string, error)

	// PutTags overwrites the listed tag keys of a run.
	PutTags(ctx context.Context, runId string, tags map[string]string) (runs.Detail, error)

	// ListCheckpoints lists the checkpoint metadata of a run, oldest first.
	ListCheckpoints(ctx context.Context, runId string) ([]runs.Checkpoint, error)

	// GetCheckpoint streams the content of one checkpoint file into handler.
	//
	// If handler returns an error, downloading is stopped and the error is returned.
	GetCheckpoint(ctx context.Context, runId string, name string, handler func(io.Reader) error) error

	// PutCheckpoint uploads the content of one checkpoint file.
	PutCheckpoint(ctx context.Context, runId string, name string, r io.Reader) (runs.Checkpoint, error)
}

type client struct {
	httpclient *http.Client
	api        string
	token      string
}

var _ TrackerClient = &client{}

// NewClient creates a tracker client for the given Profile.
//
// # Return
//
// - TrackerClient: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *Profile) (TrackerClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.CACert != "" {
		hc, err := trustCa(httpclient, []string{prof.CACert})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	return &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
	}, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = slices.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpclient.Do(req)
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	if tran.TLSClientConfig == nil {
		tran.TLSClientConfig = &tls.Config{}
	}
	if tran.TLSClientConfig.RootCAs == nil {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		tran.TLSClientConfig.RootCAs = pool
	}

	for _, ca := range cacerts {
		if !tran.TLSClientConfig.RootCAs.AppendCertsFromPEM([]byte(ca)) {
			return nil, fmt.Errorf("failed to parse ca cert")
		}
	}

	hc.Transport = tran
	return hc, nil
}
