// Package recruit provides typed accessors for the dashboard resources. All
// calls go through the authenticated fetch wrapper.
package recruit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iam-recruit/dashboard/internal/api"
)

// Doer performs one authenticated request.
type Doer interface {
	Do(ctx context.Context, req api.Request, out any) error
}

var _ Doer = (*api.Fetcher)(nil)

type Client struct {
	api Doer
}

func NewClient(doer Doer) *Client {
	return &Client{api: doer}
}

type JobsOptions struct {
	Limit  int
	Status JobStatus
	AreaID string
}

type ApplicationsOptions struct {
	JobID          string
	Status         ApplicationStatus
	Skip           int
	Limit          int
	OrderBy        string
	OrderDirection string
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.api.Do(ctx, api.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*UserInfo, error) {
	var me UserInfo
	if err := c.get(ctx, "/auth/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *Client) ListJobs(ctx context.Context, opts JobsOptions) ([]Job, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.AreaID != "" {
		q.Set("area_id", opts.AreaID)
	}

	var jobs []Job
	if err := c.get(ctx, "/jobs", q, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*JobDetails, error) {
	var job JobDetails
	if err := c.get(ctx, "/jobs/"+url.PathEscape(jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CreateJob(ctx context.Context, in JobInput) (*JobDetails, error) {
	var job JobDetails
	err := c.api.Do(ctx, api.Request{Method: http.MethodPost, Path: "/jobs", Body: in}, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) UpdateJob(ctx context.Context, jobID string, in JobInput) (*JobDetails, error) {
	var job JobDetails
	err := c.api.Do(ctx, api.Request{Method: http.MethodPut, Path: "/jobs/" + url.PathEscape(jobID), Body: in}, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// EmailForwardingStatus reports whether the job's ingest address is
// confirmed with the mail provider.
func (c *Client) EmailForwardingStatus(ctx context.Context, jobID string) (*EmailForwardingStatus, error) {
	var status EmailForwardingStatus
	path := fmt.Sprintf("/jobs/%s/email-forwarding/confirmation", url.PathEscape(jobID))
	if err := c.get(ctx, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TestEmailForwarding asks the API to send a test mail to the job's ingest address.
func (c *Client) TestEmailForwarding(ctx context.Context, jobID string) error {
	path := fmt.Sprintf("/jobs/%s/email-forwarding/test", url.PathEscape(jobID))
	return c.api.Do(ctx, api.Request{Method: http.MethodPost, Path: path}, nil)
}

func (c *Client) ForwardingConfirmations(ctx context.Context) ([]ForwardingConfirmation, error) {
	var confirmations []ForwardingConfirmation
	if err := c.get(ctx, "/email-ingest/forwarding-confirmations", nil, &confirmations); err != nil {
		return nil, err
	}
	return confirmations, nil
}

func (c *Client) ListJobAreas(ctx context.Context, activeOnly bool) ([]JobArea, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("is_active", "true")
	}

	var areas []JobArea
	if err := c.get(ctx, "/job-areas", q, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// SaveJobArea creates an area when areaID is empty and patches it otherwise.
func (c *Client) SaveJobArea(ctx context.Context, areaID string, in JobAreaInput) (*JobArea, error) {
	req := api.Request{Method: http.MethodPost, Path: "/job-areas", Body: in}
	if areaID != "" {
		req.Method = http.MethodPatch
		req.Path = "/job-areas/" + url.PathEscape(areaID)
	}

	var area JobArea
	if err := c.api.Do(ctx, req, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

func (c *Client) DeleteJobArea(ctx context.Context, areaID string) error {
	return c.api.Do(ctx, api.Request{Method: http.MethodDelete, Path: "/job-areas/" + url.PathEscape(areaID)}, nil)
}

func (c *Client) ListCandidates(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	if err := c.get(ctx, "/candidates", nil, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *Client) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var candidate Candidate
	if err := c.get(ctx, "/candidates/"+url.PathEscape(id), nil, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (c *Client) ListApplications(ctx context.Context, opts ApplicationsOptions) ([]Application, error) {
	q := url.Values{}
	if opts.JobID != "" {
		q.Set("job_id", opts.JobID)
	}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	if opts.OrderDirection != "" {
		q.Set("order_direction", opts.OrderDirection)
	}

	var apps []Application
	if err := c.get(ctx, "/applications", q, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) GetApplication(ctx context.Context, id string) (*Application, error) {
	var app Application
	if err := c.get(ctx, "/applications/"+url.PathEscape(id), nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, id string, status ApplicationStatus) (*Application, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown application status %q", status)
	}

	var app Application
	err := c.api.Do(ctx, api.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/applications/%s/status", url.PathEscape(id)),
		Body:   map[string]string{"status": string(status)},
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UploadApplication submits a CV for jobID; the API evaluates it and
// returns the scored application.
func (c *Client) UploadApplication(ctx context.Context, jobID, filename string, data []byte) (*Application, error) {
	var app Application
	err := c.api.Do(ctx, api.Request{
		Method:   http.MethodPost,
		Path:     "/applications",
		FormData: map[string]string{"job_id": jobID},
		Files:    []api.File{{Field: "file", Filename: filename, Data: data}},
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
