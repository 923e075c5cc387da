package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	kprof "github.com/opst/trainval/cmd/trainval/config/profiles"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tasks"
	"github.com/opst/trainval/pkg/utils/retry"
)

const (
	// BatchSize is the max number of images sent in one request.
	BatchSize = 50

	// PageSize is the number of images requested per page of listing.
	PageSize = 500

	headerApiKey = "x-api-key"
)

type PlatformClient interface {
	// GetProject gets a project.
	//
	// # Args
	//
	// - context.Context
	//
	// - int: id of the project
	//
	// # Returns
	//
	// - projects.Info: found project
	//
	// - error
	GetProject(ctx context.Context, projectId int) (projects.Info, error)

	// CreateProject creates a new empty project.
	//
	// # Args
	//
	// - context.Context
	//
	// - projects.Spec: what to create
	//
	// # Returns
	//
	// - projects.Info: created project. Its name can differ from the spec
	// when spec.ChangeNameIfConflict is set.
	//
	// - error
	CreateProject(ctx context.Context, spec projects.Spec) (projects.Info, error)

	// GetProjectMeta gets the annotation schema of a project.
	GetProjectMeta(ctx context.Context, projectId int) (meta.ProjectMeta, error)

	// UpdateProjectMeta replaces the annotation schema of a project.
	UpdateProjectMeta(ctx context.Context, projectId int, m meta.ProjectMeta) error

	// ListDatasets lists datasets in a project.
	//
	// # Args
	//
	// - context.Context
	//
	// - int: id of the project
	//
	// - bool: when true, nested datasets are also listed.
	// Otherwise, only top level datasets are.
	//
	// # Returns
	//
	// - []datasets.Info: found datasets
	//
	// - error
	ListDatasets(ctx context.Context, projectId int, recursive bool) ([]datasets.Info, error)

	// GetDataset gets a dataset, including its custom data.
	GetDataset(ctx context.Context, datasetId int) (datasets.Info, error)

	// CreateDataset creates a new empty dataset.
	CreateDataset(ctx context.Context, spec datasets.Spec) (datasets.Info, error)

	// UpdateDatasetCustomData replaces custom data of a dataset.
	UpdateDatasetCustomData(ctx context.Context, datasetId int, customData map[string]any) error

	// ListImages lists all images in a dataset.
	//
	// Images of nested datasets are not included.
	ListImages(ctx context.Context, datasetId int) ([]images.Info, error)

	// CopyImages copies images into a dataset.
	//
	// # Args
	//
	// - context.Context
	//
	// - int: id of the destination dataset
	//
	// - []images.Info: images to be copied
	//
	// - bool: when true, annotations are copied together.
	//
	// # Returns
	//
	// - []images.Info: copied images, in the order of the source images.
	//
	// - error
	CopyImages(ctx context.Context, dstDatasetId int, src []images.Info, withAnnotations bool) ([]images.Info, error)

	// UploadImagesById registers existing images into a dataset with new names.
	//
	// Annotations are not copied.
	//
	// # Returns
	//
	// - []images.Info: new images, in the order of ids.
	//
	// - error
	UploadImagesById(ctx context.Context, datasetId int, names []string, ids []int) ([]images.Info, error)

	// DownloadAnnotations gets annotations of images in a dataset.
	//
	// # Returns
	//
	// - []annotations.Info: annotations, in the order of imageIds.
	//
	// - error
	DownloadAnnotations(ctx context.Context, datasetId int, imageIds []int) ([]annotations.Info, error)

	// UploadAnnotations replaces annotations of images.
	//
	// imageIds and anns should have same length.
	UploadAnnotations(ctx context.Context, imageIds []int, anns []annotations.Annotation) error

	// SetTaskFields updates fields of the state document of a task.
	SetTaskFields(ctx context.Context, taskId int, fields []tasks.Field) error

	// SetTaskOutputProject declares the project as the output of the task.
	SetTaskOutputProject(ctx context.Context, taskId int, projectId int, projectName string) error

	// AddWorkflowInput records the project as an input of the task in the workflow graph.
	AddWorkflowInput(ctx context.Context, taskId int, projectId int) error

	// AddWorkflowOutput records the project as an output of the task in the workflow graph.
	AddWorkflowOutput(ctx context.Context, taskId int, projectId int) error
}

type client struct {
	httpclient *http.Client
	api        string
	token      string

	retries  int
	interval time.Duration
}

type Option func(*client)

// WithRetry sets how many times and how long to wait before retrying
// requests which the platform did not accept for the time being
// (429 Too Many Requests or 503 Service Unavailable).
//
// Intervals are doubled for each retry.
//
// Default: 3 times, from 500ms.
func WithRetry(times int, interval time.Duration) Option {
	return func(c *client) {
		c.retries = times
		c.interval = interval
	}
}

// NewClient creates a new platform client for a Profile
//
// # Args
//
// - *profiles.Profile
//
// - ...Option
//
// # Return
//
// - PlatformClient: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.Profile, opts ...Option) (PlatformClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		token:      prof.Token,
		retries:    3,
		interval:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// build URL of an api method
func (c *client) apipath(method string) string {
	return c.api + "/" + strings.TrimPrefix(method, "/")
}

// post sends body as json to the api method, and returns the response.
//
// Requests are sent again while the platform responds 429 or 503, up to the retry limit.
// After that, the last response is returned.
//
// The caller should close the response body.
func (c *client) post(ctx context.Context, method string, body any) (*http.Response, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var last *http.Response
	backoff := retry.Limited(c.retries, retry.ExponentialBackoff(c.interval, 2))
	resp, err := retry.Blocking(ctx, backoff, func() (*http.Response, error) {
		if last != nil {
			io.Copy(io.Discard, last.Body)
			last.Body.Close()
			last = nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apipath(method), bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Add("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Add(headerApiKey, c.token)
		}

		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		last = resp
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return resp, retry.ErrRetry
		}
		return resp, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, retry.ErrExhausted):
		return resp, nil
	default:
		if last != nil {
			last.Body.Close()
		}
		return nil, err
	}
}

// call posts body to the api method, and decodes the response into res.
func call[T any](ctx context.Context, c *client, method string, action string, body any, res *T) error {
	resp, err := c.post(ctx, method, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return unmarshalJsonResponse(resp, res, messagesFor(action, resp))
}

// exec posts body to the api method, and ignores response payload.
func exec(ctx context.Context, c *client, method string, action string, body any) error {
	resp, err := c.post(ctx, method, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return unmarshalResponseDiscardingPayload(resp, messagesFor(action, resp))
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

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}
		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}

// batches splits s into chunks having at most size elements.
func batches[T any](s []T, size int) [][]T {
	ret := [][]T{}
	for size < len(s) {
		ret = append(ret, s[:size:size])
		s = s[size:]
	}
	if 0 < len(s) {
		ret = append(ret, s)
	}
	return ret
}
