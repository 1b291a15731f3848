// Package sync provides the synchronization coordinator that reconciles the
// durable operation queue with the remote resource endpoints.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/perbakken/clubtrack/backend/internal/errors"
	"github.com/perbakken/clubtrack/backend/internal/models"
)

// EndpointClient dispatches queued operations to the remote endpoints.
// Each resource has one endpoint at {base}/api/v1/{resource}; the request
// body is the operation payload byte-for-byte.
type EndpointClient struct {
	baseURL string
	client  *http.Client
}

// NewEndpointClient creates an EndpointClient for the given base URL.
// A zero timeout falls back to the transport default.
func NewEndpointClient(baseURL string, timeout time.Duration) *EndpointClient {
	return &EndpointClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// methodFor maps a mutation kind to its HTTP method.
func methodFor(opType models.OpType) (string, error) {
	switch opType {
	case models.OpCreate:
		return http.MethodPost, nil
	case models.OpUpdate:
		return http.MethodPut, nil
	case models.OpDelete:
		return http.MethodDelete, nil
	}
	return "", apperrors.New(apperrors.ErrOperationInvalid, "unknown op type: "+string(opType))
}

// Dispatch sends one operation to its resource endpoint.
// Any non-2xx status and any transport failure are folded into a single
// failed-attempt outcome; the caller does not distinguish causes.
func (c *EndpointClient) Dispatch(ctx context.Context, op *models.Operation) error {
	method, err := methodFor(op.OpType)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/%s", c.baseURL, op.Resource)

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(op.Data))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrEndpoint, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrEndpoint, "request failed", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.New(apperrors.ErrEndpoint,
			fmt.Sprintf("endpoint %s returned status %d", op.Resource, resp.StatusCode))
	}

	return nil
}
