package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/config"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/metrics"
	"github.com/cubestudio/dataset-admin/pkg/objectstore"
	"github.com/cubestudio/dataset-admin/pkg/store"
	"github.com/cubestudio/dataset-admin/pkg/tasks"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

type DatasetService struct {
	config  *config.Config
	logger  *logrus.Logger
	store   store.DatasetStore
	backend objectstore.Backend
	queue   tasks.Queue
	metrics *metrics.Metrics
	locks   *keyedMutex
}

// Dependencies groups the collaborators of a DatasetService. Backend and
// Queue are optional.
type Dependencies struct {
	Store   store.DatasetStore
	Backend objectstore.Backend
	Queue   tasks.Queue
	Metrics *metrics.Metrics
}

func NewDatasetService(logger *logrus.Logger, cfg *config.Config, deps Dependencies) *DatasetService {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Discard()
	}

	return &DatasetService{
		config:  cfg,
		logger:  logger,
		store:   deps.Store,
		backend: deps.Backend,
		queue:   deps.Queue,
		metrics: deps.Metrics,
		locks:   newKeyedMutex(),
	}
}

var _ contract.DatasetService = (*DatasetService)(nil)

func permissionDenied(caller access.Caller, action string, id int64) *contract.Error {
	return contract.NewError(
		contract.ErrorCodePermissionDenied,
		fmt.Sprintf("user %q is not allowed to %s dataset %d", caller.Username, action, id),
	)
}

// modifiable loads a dataset and checks that caller may change it.
func (s *DatasetService) modifiable(
	ctx context.Context, caller access.Caller, id int64, action string,
) (*entities.Dataset, *contract.Error) {
	dataset, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanModify(caller, dataset) {
		return nil, permissionDenied(caller, action, id)
	}

	return dataset, nil
}

func (s *DatasetService) ListDatasets(
	ctx context.Context, caller access.Caller, input *contract.ListDatasets,
) (*contract.ListDatasetsResponse, *contract.Error) {
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = contract.DefaultMaxResults
	}

	if maxResults > contract.MaxResultsLimit {
		return nil, contract.NewError(
			contract.ErrorCodeInvalidParameterValue,
			fmt.Sprintf("max_results must be at most %d", contract.MaxResultsLimit),
		)
	}

	page, err := s.store.ListDatasets(ctx, caller, input.Filter, input.OrderBy, maxResults, input.PageToken)
	if err != nil {
		return nil, err
	}

	return &contract.ListDatasetsResponse{
		Datasets:      page.Items,
		NextPageToken: utils.ValueOr(page.NextPageToken, ""),
	}, nil
}

func (s *DatasetService) GetDataset(
	ctx context.Context, caller access.Caller, id int64,
) (*entities.Dataset, *contract.Error) {
	dataset, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanView(caller, dataset) {
		return nil, permissionDenied(caller, "view", id)
	}

	return dataset, nil
}

func (s *DatasetService) CreateDataset(
	ctx context.Context, caller access.Caller, input *entities.Dataset,
) (*entities.Dataset, *contract.Error) {
	// Partitions are only ever written by uploads.
	input.Segment = ""

	s.applyLifecycleDefaults(caller, input)

	dataset, err := s.store.CreateDataset(ctx, caller.Username, input)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"user":       caller.Username,
	}).Info("dataset created")

	return dataset, nil
}

// UpdateDataset applies patch to the current record. It holds the same
// per-dataset lock as uploads, so fields the patch leaves alone, path
// included, keep whatever was last committed.
func (s *DatasetService) UpdateDataset(
	ctx context.Context, caller access.Caller, id int64, patch contract.DatasetPatch,
) (*entities.Dataset, *contract.Error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	dataset, err := s.store.UpdateDataset(ctx, caller.Username, id, func(current *entities.Dataset) *contract.Error {
		if !access.CanModify(caller, current) {
			return permissionDenied(caller, "edit", id)
		}

		segment := current.Segment

		if patch != nil {
			if err := patch(current); err != nil {
				return err
			}
		}

		current.ID = id
		current.Segment = segment

		s.applyLifecycleDefaults(caller, current)

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"user":       caller.Username,
	}).Info("dataset updated")

	return dataset, nil
}

func (s *DatasetService) DeleteDataset(ctx context.Context, caller access.Caller, id int64) *contract.Error {
	if _, err := s.modifiable(ctx, caller, id, "delete"); err != nil {
		return err
	}

	if err := s.store.DeleteDataset(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"dataset_id": id,
		"user":       caller.Username,
	}).Info("dataset deleted")

	return nil
}
