package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/budgetguard/techops/internal/gputier"
)

// ControlPlane is the cloud-side deployment mechanism behind one provider
// (ECS service, AKS/GKE deployment). Implementations are external
// collaborators; the adapters in this package depend only on this contract.
type ControlPlane interface {
	CreateService(ctx context.Context, req ServiceRequest) (ServiceState, error)
	ServiceStatus(ctx context.Context, name string) (ServiceState, error)
	StopService(ctx context.Context, name string) error
}

// ServiceRequest describes the managed service a control plane should run.
type ServiceRequest struct {
	Name        string               `json:"name"`
	Image       string               `json:"image"`
	Resource    gputier.ResourceSpec `json:"resource"`
	ScaleToZero bool                 `json:"scale_to_zero"`
}

// ServiceState is the control plane's view of a managed service.
type ServiceState struct {
	Name     string `json:"name"`
	State    string `json:"state"` // pending, running, stopped, error
	Endpoint string `json:"endpoint,omitempty"`
}

// HTTPControlPlane talks to a provider deployment bridge over HTTP. One
// bridge runs per cloud provider and owns the actual SDK calls.
type HTTPControlPlane struct {
	baseURL string
	client  *http.Client
}

// NewHTTPControlPlane creates a control plane client for a bridge base URL.
func NewHTTPControlPlane(baseURL string) *HTTPControlPlane {
	return &HTTPControlPlane{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *HTTPControlPlane) CreateService(ctx context.Context, req ServiceRequest) (ServiceState, error) {
	var state ServiceState
	if err := c.do(ctx, http.MethodPost, "/v1/services", req, &state); err != nil {
		return ServiceState{}, err
	}
	return state, nil
}

func (c *HTTPControlPlane) ServiceStatus(ctx context.Context, name string) (ServiceState, error) {
	var state ServiceState
	if err := c.do(ctx, http.MethodGet, "/v1/services/"+url.PathEscape(name), nil, &state); err != nil {
		return ServiceState{}, err
	}
	return state, nil
}

func (c *HTTPControlPlane) StopService(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/services/"+url.PathEscape(name)+"/stop", nil, nil)
}

func (c *HTTPControlPlane) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call control plane: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("control plane returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
