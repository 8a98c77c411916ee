package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/systmms/drdb/pkg/provider"
)

// FakeProvider is an in-memory provider.Provider.
//
// Example usage:
//
//	fake := fakes.NewFakeProvider("test").
//	    WithSecret("orcatest-drdb-host", "aws.postgresrds.host").
//	    WithError("orcatest-drdb-user-pass", errors.New("throttled"))
type FakeProvider struct {
	name string

	secrets map[string]string
	failOn  map[string]error
	delay   time.Duration

	callCount map[string]int
	order     []string

	mu sync.RWMutex
}

// NewFakeProvider creates a FakeProvider with no secrets
func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{
		name:      name,
		secrets:   make(map[string]string),
		failOn:    make(map[string]error),
		callCount: make(map[string]int),
	}
}

// WithSecret adds or replaces a secret
func (f *FakeProvider) WithSecret(key, value string) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[key] = value
	return f
}

// WithError makes GetSecret fail for key
func (f *FakeProvider) WithError(key string, err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[key] = err
	return f
}

// WithDelay makes every GetSecret wait d or until ctx is done
func (f *FakeProvider) WithDelay(d time.Duration) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// DeleteSecret removes key
func (f *FakeProvider) DeleteSecret(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.secrets, key)
}

// ClearError removes a failure configured with WithError
func (f *FakeProvider) ClearError(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failOn, key)
}

// Name returns the provider name
func (f *FakeProvider) Name() string {
	return f.name
}

// GetSecret returns the stored value, the configured error, or *provider.NotFoundError
func (f *FakeProvider) GetSecret(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	f.callCount[key]++
	f.order = append(f.order, key)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if err, ok := f.failOn[key]; ok {
		return "", err
	}

	value, ok := f.secrets[key]
	if !ok {
		return "", &provider.NotFoundError{Provider: f.name, Key: key}
	}
	return value, nil
}

// CallCount returns how many times key was requested
func (f *FakeProvider) CallCount(key string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.callCount[key]
}

// Requests returns every requested key in call order
func (f *FakeProvider) Requests() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}
