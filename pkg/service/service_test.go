package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/config"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/objectstore"
	sqlstore "github.com/cubestudio/dataset-admin/pkg/store/sql"
	"github.com/cubestudio/dataset-admin/pkg/tasks"
)

//nolint:gochecknoglobals
var (
	alice = access.Caller{Username: "alice"}
	bob   = access.Caller{Username: "bob"}
	admin = access.Caller{Username: "root", Roles: []string{"admin"}}
)

type fakeBackend struct {
	urls  []string
	err   error
	paths []string
}

func (f *fakeBackend) Name() string {
	return "fake"
}

func (f *fakeBackend) DownloadURLs(_ context.Context, remotePath string) ([]string, error) {
	f.paths = append(f.paths, remotePath)

	return f.urls, f.err
}

var _ objectstore.Backend = (*fakeBackend)(nil)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*tasks.Task
	err   error
}

func (f *fakeQueue) Enqueue(_ context.Context, name string, kwargs map[string]interface{}) (*tasks.Task, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	task := &tasks.Task{ID: "task-1", Task: name, Kwargs: kwargs}
	f.tasks = append(f.tasks, task)

	return task, nil
}

type testEnv struct {
	service *DatasetService
	store   *sqlstore.Store
	config  *config.Config
}

func newTestEnv(t *testing.T, deps Dependencies) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.StoreURL = "sqlite:///" + filepath.Join(t.TempDir(), "dataset.db")
	cfg.Dataset.Root = filepath.Join(t.TempDir(), "dataset")

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := sqlstore.NewSQLStore(logger, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})

	deps.Store = store

	return &testEnv{
		service: NewDatasetService(logger, cfg, deps),
		store:   store,
		config:  cfg,
	}
}

func (e *testEnv) create(t *testing.T, caller access.Caller, dataset *entities.Dataset) *entities.Dataset {
	t.Helper()

	if dataset.Label == "" {
		dataset.Label = dataset.Name
	}

	if dataset.Describe == "" {
		dataset.Describe = dataset.Name
	}

	created, cErr := e.service.CreateDataset(context.Background(), caller, dataset)
	require.Nil(t, cErr)

	return created
}

func TestCreateDatasetDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})

	created := env.create(t, alice, &entities.Dataset{Name: "mnist", Segment: `{"x":["/y"]}`})
	assert.Equal(t, "alice,*", created.Owner)
	assert.Equal(t, "/static/assets/images/dataset.png", created.Icon)
	assert.Equal(t, "latest", created.Version)
	assert.Equal(t, "mnist", created.Subdataset)
	assert.Equal(t, "alice", created.CreatedBy)
	assert.Empty(t, created.Segment)
}

func TestCreateDatasetKeepsProvidedValues(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})

	created := env.create(t, alice, &entities.Dataset{
		Name:       "mnist",
		Version:    "v2",
		Subdataset: "digits",
		Icon:       "/static/mnist.png",
		Owner:      " bob , bob,alice",
		Path:       "/mnt/a\n\n/mnt/a\n",
	})
	assert.Equal(t, "bob,alice", created.Owner)
	assert.Equal(t, "/static/mnist.png", created.Icon)
	assert.Equal(t, "v2", created.Version)
	assert.Equal(t, "digits", created.Subdataset)
	assert.Equal(t, "/mnt/a", created.Path)
}

func setLabel(label string) contract.DatasetPatch {
	return func(dataset *entities.Dataset) *contract.Error {
		dataset.Label = label

		return nil
	}
}

func TestUpdateDataset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	created := env.create(t, alice, &entities.Dataset{Name: "mnist"})
	_, err := env.store.RecordDatasetFile(ctx, created.ID, "/mnt/a", "train")
	require.Nil(t, err)

	// The wildcard makes the dataset visible to bob but not editable.
	_, err = env.service.UpdateDataset(ctx, bob, created.ID, setLabel("changed"))
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	updated, err := env.service.UpdateDataset(ctx, alice, created.ID, func(dataset *entities.Dataset) *contract.Error {
		dataset.Label = "changed"
		dataset.Owner = ""
		dataset.Version = ""
		dataset.Segment = `{"forged":[]}`

		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, "changed", updated.Label)
	assert.Equal(t, "alice,*", updated.Owner)
	assert.Equal(t, "latest", updated.Version)
	assert.Equal(t, "/mnt/a", updated.Path)
	assert.JSONEq(t, `{"train":["/mnt/a"]}`, updated.Segment)

	updated, err = env.service.UpdateDataset(ctx, admin, created.ID, setLabel("by admin"))
	require.Nil(t, err)
	assert.Equal(t, "root", updated.ChangedBy)
	assert.Equal(t, "alice", updated.CreatedBy)

	_, err = env.service.UpdateDataset(ctx, alice, created.ID, func(*entities.Dataset) *contract.Error {
		return contract.NewError(contract.ErrorCodeInvalidParameterValue, "bad body")
	})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, err.Code)

	stored, err := env.service.GetDataset(ctx, alice, created.ID)
	require.Nil(t, err)
	assert.Equal(t, "by admin", stored.Label)
}

func TestUpdateKeepsPathsRecordedAfterRead(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	created := env.create(t, alice, &entities.Dataset{Name: "mnist", Path: "/mnt/a"})

	// The upload commits after the client fetched the record it is editing.
	_, err := env.store.RecordDatasetFile(ctx, created.ID, "/mnt/b", "train")
	require.Nil(t, err)

	updated, err := env.service.UpdateDataset(ctx, alice, created.ID, setLabel("relabelled"))
	require.Nil(t, err)
	assert.Equal(t, "/mnt/a\n/mnt/b", updated.Path)
	assert.JSONEq(t, `{"train":["/mnt/b"]}`, updated.Segment)
}

func TestConcurrentEditsAndUploadsKeepPaths(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	created := env.create(t, alice, &entities.Dataset{Name: "mnist"})

	const files = 8

	var wg sync.WaitGroup

	errs := make(chan *contract.Error, 2*files)

	for i := 0; i < files; i++ {
		i := i
		wg.Add(2)

		go func() {
			defer wg.Done()

			name := fmt.Sprintf("f%d.txt", i)
			if _, err := env.upload(t, alice, created.ID, name, "", 1, 1, chunk{data: "x"}); err != nil {
				errs <- err
			}
		}()

		go func() {
			defer wg.Done()

			if _, err := env.service.UpdateDataset(ctx, alice, created.ID, setLabel(fmt.Sprintf("edit %d", i))); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.Nil(t, err)
	}

	stored, err := env.service.GetDataset(ctx, alice, created.ID)
	require.Nil(t, err)
	assert.Len(t, strings.Split(stored.Path, "\n"), files)
}

func TestGetAndDeleteDataset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	private := env.create(t, alice, &entities.Dataset{Name: "private", Owner: "alice"})

	_, err := env.service.GetDataset(ctx, bob, private.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	_, err = env.service.GetDataset(ctx, admin, private.ID)
	require.Nil(t, err)

	err = env.service.DeleteDataset(ctx, bob, private.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	require.Nil(t, env.service.DeleteDataset(ctx, alice, private.ID))

	_, err = env.service.GetDataset(ctx, alice, private.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, err.Code)
}

func TestCreatorCanModifyWithoutOwnership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	created := env.create(t, alice, &entities.Dataset{Name: "handed_over", Owner: "bob"})

	_, err := env.service.GetDataset(ctx, alice, created.ID)
	require.NotNil(t, err)

	updated, err := env.service.UpdateDataset(ctx, alice, created.ID, setLabel("still mine to edit"))
	require.Nil(t, err)
	assert.Equal(t, "still mine to edit", updated.Label)
	assert.Equal(t, "bob", updated.Owner)

	_, err = env.service.UpdateDataset(ctx, access.Caller{Username: "carol"}, created.ID, setLabel("nope"))
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	require.Nil(t, env.service.DeleteDataset(ctx, alice, created.ID))
}

func TestListDatasets(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	ctx := context.Background()

	env.create(t, admin, &entities.Dataset{Name: "own_public", Owner: "alice,*"})
	env.create(t, admin, &entities.Dataset{Name: "shared", Owner: "bob,alice"})
	env.create(t, admin, &entities.Dataset{Name: "public", Owner: "*"})
	env.create(t, admin, &entities.Dataset{Name: "bobs", Owner: "bob"})

	response, err := env.service.ListDatasets(ctx, alice, &contract.ListDatasets{})
	require.Nil(t, err)

	names := make([]string, 0, len(response.Datasets))
	for _, dataset := range response.Datasets {
		names = append(names, dataset.Name)
	}

	assert.ElementsMatch(t, []string{"own_public", "shared", "public"}, names)
	assert.Empty(t, response.NextPageToken)

	response, err = env.service.ListDatasets(ctx, admin, &contract.ListDatasets{MaxResults: 2})
	require.Nil(t, err)
	assert.Len(t, response.Datasets, 2)
	assert.NotEmpty(t, response.NextPageToken)

	_, err = env.service.ListDatasets(ctx, admin, &contract.ListDatasets{MaxResults: 5000})
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeInvalidParameterValue, err.Code)
}

func TestBackupDataset(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	env := newTestEnv(t, Dependencies{Queue: queue})
	ctx := context.Background()

	created := env.create(t, alice, &entities.Dataset{Name: "mnist"})

	_, err := env.service.BackupDataset(ctx, bob, created.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodePermissionDenied, err.Code)

	response, err := env.service.BackupDataset(ctx, alice, created.ID)
	require.Nil(t, err)
	assert.Equal(t, "task-1", response.TaskID)
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.UpdateDataset, queue.tasks[0].Task)
	assert.Equal(t, map[string]interface{}{"dataset_id": created.ID}, queue.tasks[0].Kwargs)

	queue.err = errors.New("redis down")
	_, err = env.service.BackupDataset(ctx, alice, created.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeTemporarilyUnavailable, err.Code)

	_, err = env.service.BackupDataset(ctx, alice, 999)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeResourceDoesNotExist, err.Code)
}

func TestBackupDatasetWithoutQueue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Dependencies{})
	created := env.create(t, alice, &entities.Dataset{Name: "mnist"})

	_, err := env.service.BackupDataset(context.Background(), alice, created.ID)
	require.NotNil(t, err)
	assert.Equal(t, contract.ErrorCodeTemporarilyUnavailable, err.Code)
}
