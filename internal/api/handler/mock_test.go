package handler

import (
	"context"
	"fmt"

	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/provider"
)

// fakeCredentialStore is an in-memory CredentialStore.
type fakeCredentialStore struct {
	data    map[string]string
	failAll bool
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{data: make(map[string]string)}
}

func (f *fakeCredentialStore) Save(_ context.Context, provider, ciphertext string) error {
	if f.failAll {
		return fmt.Errorf("store unavailable")
	}
	f.data[provider] = ciphertext
	return nil
}

func (f *fakeCredentialStore) LoadAll(_ context.Context) (map[string]string, error) {
	if f.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCredentialStore) Status(_ context.Context) (map[string]bool, error) {
	if f.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	status := make(map[string]bool, len(f.data))
	for k := range f.data {
		status[k] = true
	}
	return status, nil
}

func (f *fakeCredentialStore) Delete(_ context.Context, provider string) error {
	if f.failAll {
		return fmt.Errorf("store unavailable")
	}
	delete(f.data, provider)
	return nil
}

// fakeProvider deploys instantly with a canned endpoint.
type fakeProvider struct {
	name model.Provider
	err  error
}

func (f *fakeProvider) Name() model.Provider { return f.name }

func (f *fakeProvider) Create(_ context.Context, spec provider.DeploySpec) (*provider.Deployment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Deployment{
		InstanceName: "test-instance",
		Handle:       "test-handle",
		Endpoint:     fmt.Sprintf("http://%s.test:8000", f.name),
	}, nil
}

func (f *fakeProvider) Status(_ context.Context, _ string) (provider.Status, error) {
	return provider.StatusRunning, nil
}

func (f *fakeProvider) Stop(_ context.Context, _ string) error { return nil }

func (f *fakeProvider) Endpoint(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("http://%s.test:8000", f.name), nil
}
