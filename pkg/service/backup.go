package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/tasks"
)

// BackupDataset asks the task runner to copy the dataset into cluster storage.
func (s *DatasetService) BackupDataset(
	ctx context.Context, caller access.Caller, id int64,
) (*contract.BackupResponse, *contract.Error) {
	if _, cErr := s.modifiable(ctx, caller, id, "back up"); cErr != nil {
		return nil, cErr
	}

	if s.queue == nil {
		return nil, contract.NewError(
			contract.ErrorCodeTemporarilyUnavailable,
			"no task queue is configured",
		)
	}

	task, err := s.queue.Enqueue(ctx, tasks.UpdateDataset, map[string]interface{}{"dataset_id": id})
	if err != nil {
		s.metrics.TasksEnqueuedTotal.WithLabelValues(tasks.UpdateDataset, "error").Inc()

		return nil, contract.NewErrorWith(
			contract.ErrorCodeTemporarilyUnavailable,
			"failed to enqueue backup task",
			err,
		)
	}

	s.metrics.TasksEnqueuedTotal.WithLabelValues(tasks.UpdateDataset, "ok").Inc()
	s.logger.WithFields(logrus.Fields{
		"dataset_id": id,
		"task_id":    task.ID,
		"user":       caller.Username,
	}).Info("backup task enqueued")

	return &contract.BackupResponse{TaskID: task.ID}, nil
}
