package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
)

const host = "http://cube.example.com/"

func TestPathToURL(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})

	samples := []struct {
		path     string
		expected string
		ok       bool
	}{
		{"http://example.com/a.csv", "http://example.com/a.csv", true},
		{"https://oss.example.com/bucket/a.csv", "https://oss.example.com/bucket/a.csv", true},
		{"/mnt/x", "http://cube.example.com/static/x", true},
		{"/mnt/alice/data/a.csv", "http://cube.example.com/static/alice/data/a.csv", true},
		{"/data/k8s/kubeflow/dataset/x", "http://cube.example.com/static/dataset/x", true},
		{"/data/k8s/kubeflow/dataset/mnist/latest/a.csv", "http://cube.example.com/static/dataset/mnist/latest/a.csv", true},
		{"/home/alice/a.csv", "", false},
		{"relative/a.csv", "", false},
		{"http:/broken", "", false},
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample.path, func(t *testing.T) {
			t.Parallel()

			url, ok := env.service.pathToURL(host, sample.path)
			assert.Equal(t, sample.ok, ok)
			assert.Equal(t, sample.expected, url)
		})
	}
}

func download(
	t *testing.T, env *testEnv, id int64, partition string,
) (*contract.DownloadResult, *contract.Error) {
	t.Helper()

	return env.service.DownloadDataset(context.Background(), alice, &contract.DownloadRequest{
		DatasetID: id,
		Partition: partition,
		Host:      host,
	})
}

func TestDownloadLocalPathsWin(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{urls: []string{"http://minio/signed"}}
	env := newTestEnv(t, Dependencies{Backend: backend})

	dataset := env.create(t, alice, &entities.Dataset{
		Name:        "mnist",
		Path:        "/mnt/a.csv\n/home/unknown.csv\n/data/k8s/kubeflow/dataset/mnist/latest/b.csv",
		DownloadURL: "https://elsewhere.example.com/a.csv",
	})

	result, err := download(t, env, dataset.ID, "")
	require.Nil(t, err)
	assert.Equal(t, "minio", result.StoreType)
	assert.Equal(t, []string{
		"http://cube.example.com/static/a.csv",
		"http://cube.example.com/static/dataset/mnist/latest/b.csv",
	}, result.DownloadURLs)
	assert.Empty(t, backend.paths)
}

func TestDownloadExternalLinks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})

	dataset := env.create(t, alice, &entities.Dataset{
		Name:        "mnist",
		DownloadURL: "https://a.example.com/1.zip\n\nhttps://a.example.com/2.zip",
	})

	result, err := download(t, env, dataset.ID, "")
	require.Nil(t, err)
	assert.Equal(t, []string{"https://a.example.com/1.zip", "https://a.example.com/2.zip"}, result.DownloadURLs)
}

func TestDownloadFromBackend(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{urls: []string{"http://minio/dataset/mnist/v1/a.csv?sig"}}
	env := newTestEnv(t, Dependencies{Backend: backend})

	dataset := env.create(t, alice, &entities.Dataset{Name: "mnist", Version: "v1"})

	result, err := download(t, env, dataset.ID, "")
	require.Nil(t, err)
	assert.Equal(t, backend.urls, result.DownloadURLs)
	assert.Equal(t, []string{"/dataset/mnist/v1"}, backend.paths)

	backend.err = errors.New("connection refused")
	_, err = download(t, env, dataset.ID, "")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDownloadWithoutBackend(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	dataset := env.create(t, alice, &entities.Dataset{Name: "mnist"})

	_, err := download(t, env, dataset.ID, "")
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeTemporarilyUnavailable, err.Code)
}

func TestDownloadPartition(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{err: errors.New("must not be called")}
	env := newTestEnv(t, Dependencies{Backend: backend})
	ctx := context.Background()

	dataset := env.create(t, alice, &entities.Dataset{Name: "mnist", DownloadURL: "https://a.example.com/all.zip"})
	_, err := env.store.RecordDatasetFile(ctx, dataset.ID, "/data/k8s/kubeflow/dataset/mnist/latest/train.csv", "train")
	require.Nil(t, err)
	_, err = env.store.RecordDatasetFile(ctx, dataset.ID, "/data/k8s/kubeflow/dataset/mnist/latest/test.csv", "test")
	require.Nil(t, err)

	result, err := download(t, env, dataset.ID, "train")
	require.Nil(t, err)
	assert.Equal(t, []string{"http://cube.example.com/static/dataset/mnist/latest/train.csv"}, result.DownloadURLs)

	// Unknown partitions fall back to the whole dataset.
	result, err = download(t, env, dataset.ID, "validation")
	require.Nil(t, err)
	assert.Len(t, result.DownloadURLs, 2)
}

func TestDownloadPartitionWithoutPaths(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{err: errors.New("must not be called")}
	env := newTestEnv(t, Dependencies{Backend: backend})
	ctx := context.Background()

	dataset := env.create(t, alice, &entities.Dataset{Name: "mnist"})
	_, err := env.store.RecordDatasetFile(ctx, dataset.ID, "/mnt/train.csv", "train")
	require.Nil(t, err)

	_, err = env.store.UpdateDataset(ctx, "alice", dataset.ID, func(stored *entities.Dataset) *contract.Error {
		stored.Path = ""

		return nil
	})
	require.Nil(t, err)

	result, err := download(t, env, dataset.ID, "train")
	require.Nil(t, err)
	assert.Equal(t, []string{"http://cube.example.com/static/train.csv"}, result.DownloadURLs)
	assert.Empty(t, backend.paths)
}

func TestDownloadMalformedSegment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	dataset := env.create(t, alice, &entities.Dataset{Name: "mnist", Path: "/mnt/a.csv"})
	_, err := env.store.UpdateDataset(ctx, "alice", dataset.ID, func(stored *entities.Dataset) *contract.Error {
		stored.Segment = "{oops"

		return nil
	})
	require.Nil(t, err)

	_, err = download(t, env, dataset.ID, "train")
	require.NotNil(t, err)

	// Without a partition the segment is not consulted.
	result, err := download(t, env, dataset.ID, "")
	require.Nil(t, err)
	assert.Equal(t, []string{"http://cube.example.com/static/a.csv"}, result.DownloadURLs)
}

func TestDownloadRequiresVisibility(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	dataset := env.create(t, bob, &entities.Dataset{Name: "mnist", Owner: "bob", Path: "/mnt/a.csv"})

	_, err := download(t, env, dataset.ID, "")
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	_, err = download(t, env, 999, "")
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, err.Code)
}
