package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/store/sql/model"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

// supportsRowLocks reports whether the dialect understands SELECT ... FOR UPDATE.
func supportsRowLocks(tx *gorm.DB) bool {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return true
	default:
		return false
	}
}

func (s *Store) RecordDatasetFile(
	ctx context.Context, id int64, path, partition string,
) (*entities.Dataset, *contract.Error) {
	var (
		dataset       *model.Dataset
		contractError *contract.Error
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reader := tx
		if supportsRowLocks(tx) {
			reader = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		current, getError := s.getDataset(reader, id)
		if getError != nil {
			return getError
		}

		current.Path = utils.AppendLine(current.Path, path)
		updates := map[string]interface{}{"path": current.Path}

		if partition != "" {
			segment, err := entities.ParseSegment(current.Segment)
			if err != nil {
				return contract.NewErrorWith(
					contract.ErrorCodeInternal,
					fmt.Sprintf("dataset %d has a malformed segment", id),
					err,
				)
			}

			segment.Add(partition, path)
			current.Segment = segment.String()
			updates["segment"] = current.Segment
		}

		if err := tx.Model(current).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to record uploaded file: %w", err)
		}

		dataset = current

		return nil
	})
	if err != nil {
		if errors.As(err, &contractError) {
			return nil, contractError
		}

		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternal,
			fmt.Sprintf("failed to record file for dataset %d", id),
			err,
		)
	}

	return dataset.ToEntity(), nil
}
