package fakes

import (
	"context"
	"fmt"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

// FakeVaultKV is an in-memory KV version 2 mount.
type FakeVaultKV struct {
	mu sync.Mutex

	// Secrets maps secret paths (relative to the mount) to their data
	Secrets map[string]map[string]interface{}
	// Errors maps secret paths to errors to return
	Errors map[string]error
}

// NewFakeVaultKV creates an empty fake mount
func NewFakeVaultKV() *FakeVaultKV {
	return &FakeVaultKV{
		Secrets: make(map[string]map[string]interface{}),
		Errors:  make(map[string]error),
	}
}

// Put stores data at path
func (f *FakeVaultKV) Put(path string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[path] = data
}

// AddError configures the fake to return err for path
func (f *FakeVaultKV) AddError(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[path] = err
}

// Get mirrors (*vault.KVv2).Get
func (f *FakeVaultKV) Get(ctx context.Context, secretPath string) (*vault.KVSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[secretPath]; ok {
		return nil, err
	}

	data, ok := f.Secrets[secretPath]
	if !ok {
		return nil, fmt.Errorf("%w: at secret/data/%s", vault.ErrSecretNotFound, secretPath)
	}

	return &vault.KVSecret{
		Data: data,
		VersionMetadata: &vault.KVVersionMetadata{
			Version: 1,
		},
	}, nil
}
