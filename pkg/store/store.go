package store

import (
	"context"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
)

// DatasetMutation edits a dataset in place during an update.
type DatasetMutation func(dataset *entities.Dataset) *contract.Error

type DatasetStore interface {
	// ListDatasets returns the page of datasets visible to caller that match filter.
	ListDatasets(
		ctx context.Context,
		caller access.Caller,
		filter string,
		orderBy string,
		maxResults int,
		pageToken string,
	) (*PagedList[*entities.Dataset], *contract.Error)

	GetDataset(ctx context.Context, id int64) (*entities.Dataset, *contract.Error)

	// CreateDataset inserts dataset and stamps the audit columns with username.
	CreateDataset(ctx context.Context, username string, dataset *entities.Dataset) (*entities.Dataset, *contract.Error)

	// UpdateDataset applies mutate to the current row and saves the result in
	// one transaction. An error from mutate aborts the update.
	UpdateDataset(
		ctx context.Context, username string, id int64, mutate DatasetMutation,
	) (*entities.Dataset, *contract.Error)

	DeleteDataset(ctx context.Context, id int64) *contract.Error

	// RecordDatasetFile adds path to the dataset path set and, when partition is
	// not empty, to the partition's list in segment. Both columns are written in
	// a single transaction.
	RecordDatasetFile(ctx context.Context, id int64, path, partition string) (*entities.Dataset, *contract.Error)
}

type PagedList[T any] struct {
	Items         []T
	NextPageToken *string
}
