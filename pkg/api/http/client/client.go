package client

import (
	"net/url"
	"strings"

	"github.com/guidepost/launchpad/pkg/api/http/common"
	"github.com/guidepost/launchpad/pkg/structs"
)

// Client is the caller-side HTTP client: the calling system that creates
// & cancels jobs. Customer and application traffic goes through browsers,
// not this client.
type Client struct {
	url       *url.URL
	authToken string
}

func New(address, authToken string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u, authToken: authToken}, err
}

func (c *Client) CreateJob(cjr *structs.CreateJobRequest) (*structs.CreateJobResponse, error) {
	addr := c.addr(common.API_JOBS)
	var out structs.CreateJobResponse
	return &out, genericPost(addr, c.authToken, cjr, &out)
}

func (c *Client) CancelJob(jobID, metadata string) error {
	path := strings.Replace(common.API_JOB_CANCEL, "{jobId}", jobID, 1)
	addr := c.addr(path)
	var out common.CancelResponse
	return genericPost(addr, c.authToken, &structs.CancelJobRequest{Metadata: metadata}, &out)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: path}
}
