// Package objectstore resolves dataset files kept in object storage into
// time-limited download URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cubestudio/dataset-admin/pkg/config"
)

const (
	defaultExpiry = 24 * time.Hour
	// maxExpiry is the longest lifetime SigV4 presigned URLs accept.
	maxExpiry = 7 * 24 * time.Hour
)

var ErrUnknownBackend = errors.New("unknown object storage backend")

// Backend lists the objects stored under a remote path and signs a download
// URL for each of them.
type Backend interface {
	Name() string
	DownloadURLs(ctx context.Context, remotePath string) ([]string, error)
}

type Factory func(ctx context.Context, cfg config.StoreConfig) (Backend, error)

//nolint:gochecknoglobals
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. It panics on duplicates.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic("objectstore: Register called twice for backend " + name)
	}

	registry[name] = factory
}

func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New builds the backend selected by cfg.Type. An empty type means no backend
// and returns nil without error.
//
//nolint:ireturn
func New(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Type))
	if name == "" {
		return nil, nil //nolint:nilnil
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q, available backends are %v", ErrUnknownBackend, cfg.Type, Backends())
	}

	backend, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", name, err)
	}

	return backend, nil
}

// objectPrefix turns "/dataset/<name>/<version>" into the key prefix
// "dataset/<name>/<version>/".
func objectPrefix(remotePath string) string {
	prefix := strings.Trim(remotePath, "/")
	if prefix == "" {
		return ""
	}

	return prefix + "/"
}

func expiry(cfg config.StoreConfig) time.Duration {
	switch {
	case cfg.Expiry <= 0:
		return defaultExpiry
	case cfg.Expiry > maxExpiry:
		return maxExpiry
	default:
		return cfg.Expiry
	}
}
