package sql

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/query"
	"github.com/cubestudio/dataset-admin/pkg/query/parser"
	"github.com/cubestudio/dataset-admin/pkg/store"
	"github.com/cubestudio/dataset-admin/pkg/store/sql/model"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

type PageToken struct {
	Offset int32 `json:"offset"`
}

func getOffset(pageToken string) (int, *contract.Error) {
	if pageToken == "" {
		return 0, nil
	}

	var token PageToken
	if err := json.NewDecoder(
		base64.NewDecoder(
			base64.StdEncoding,
			strings.NewReader(pageToken),
		),
	).Decode(&token); err != nil || token.Offset < 0 {
		return 0, contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			fmt.Sprintf("invalid page_token: %q", pageToken),
			err,
		)
	}

	return int(token.Offset), nil
}

func mkNextPageToken(length, maxResults, offset int) (*string, *contract.Error) {
	if length < maxResults {
		return nil, nil //nolint:nilnil
	}

	var token strings.Builder
	if err := json.NewEncoder(
		base64.NewEncoder(base64.StdEncoding, &token),
	).Encode(PageToken{
		Offset: int32(offset + maxResults), //nolint:gosec
	}); err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternal,
			"error encoding 'next_page_token' value",
			err,
		)
	}

	return utils.PtrTo(token.String()), nil
}

// filterValue turns integral numbers into int64 so they bind as integers.
func filterValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case float64:
		if typed == math.Trunc(typed) {
			return int64(typed)
		}

		return typed
	case []interface{}:
		values := make([]interface{}, 0, len(typed))
		for _, v := range typed {
			values = append(values, filterValue(v))
		}

		return values
	default:
		return value
	}
}

func applyFilters(transaction *gorm.DB, filter string) *contract.Error {
	conditions, err := query.ParseFilter(filter)
	if err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"error parsing search filter",
			err,
		)
	}

	log.Debugf("Filter conditions: %#v", conditions)

	dialect := transaction.Dialector.Name()

	for _, condition := range conditions {
		column := clause.Column{Table: model.Dataset{}.TableName(), Name: condition.Column}
		value := filterValue(condition.Value)

		if condition.Operator == parser.ILike && dialect != "postgres" {
			str, _ := value.(string)
			transaction.Where("LOWER(?) LIKE ?", column, strings.ToLower(str))

			continue
		}

		transaction.Where(fmt.Sprintf("? %s ?", condition.Operator), column, value)
	}

	return nil
}

func applyOrderBy(transaction *gorm.DB, orderBy string) *contract.Error {
	clauses, err := query.ParseOrderBy(orderBy)
	if err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"error parsing order_by",
			err,
		)
	}

	idOrdered := false

	for _, orderClause := range clauses {
		if orderClause.Column == "id" {
			idOrdered = true
		}

		transaction.Order(clause.OrderByColumn{
			Column: clause.Column{Table: model.Dataset{}.TableName(), Name: orderClause.Column},
			Desc:   !orderClause.Ascending,
		})
	}

	// Ties on the requested columns break on id so that pages are stable.
	if !idOrdered {
		transaction.Order(clause.OrderByColumn{
			Column: clause.Column{Table: model.Dataset{}.TableName(), Name: "id"},
			Desc:   true,
		})
	}

	return nil
}

func (s *Store) ListDatasets(
	ctx context.Context,
	caller access.Caller,
	filter string,
	orderBy string,
	maxResults int,
	pageToken string,
) (*store.PagedList[*entities.Dataset], *contract.Error) {
	transaction := s.db.WithContext(ctx).Model(&model.Dataset{}).Scopes(ownershipScope(caller))

	transaction.Limit(maxResults)

	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return nil, contractError
	}

	transaction.Offset(offset)

	if contractError := applyFilters(transaction, filter); contractError != nil {
		return nil, contractError
	}

	if contractError := applyOrderBy(transaction, orderBy); contractError != nil {
		return nil, contractError
	}

	var datasets []model.Dataset
	if err := transaction.Find(&datasets).Error; err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternal,
			"failed to list datasets",
			err,
		)
	}

	items := make([]*entities.Dataset, 0, len(datasets))
	for _, dataset := range datasets {
		items = append(items, dataset.ToEntity())
	}

	nextPageToken, contractError := mkNextPageToken(len(datasets), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[*entities.Dataset]{
		Items:         items,
		NextPageToken: nextPageToken,
	}, nil
}

func notFound(id int64) *contract.Error {
	return contract.NewError(
		contract.ErrorCodeResourceDoesNotExist,
		fmt.Sprintf("dataset with id %d not found", id),
	)
}

func (s *Store) getDataset(tx *gorm.DB, id int64) (*model.Dataset, *contract.Error) {
	var dataset model.Dataset
	if err := tx.Where("id = ?", id).First(&dataset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}

		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternal,
			fmt.Sprintf("failed to get dataset with id %d", id),
			err,
		)
	}

	return &dataset, nil
}

func (s *Store) GetDataset(ctx context.Context, id int64) (*entities.Dataset, *contract.Error) {
	dataset, contractError := s.getDataset(s.db.WithContext(ctx), id)
	if contractError != nil {
		return nil, contractError
	}

	return dataset.ToEntity(), nil
}

func writeError(action string, err error) *contract.Error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.NewErrorWith(contract.ErrorCodeResourceAlreadyExists, "dataset already exists", err)
	}

	return contract.NewErrorWith(contract.ErrorCodeInternal, "failed to "+action+" dataset", err)
}

func (s *Store) CreateDataset(
	ctx context.Context, username string, input *entities.Dataset,
) (*entities.Dataset, *contract.Error) {
	dataset, err := model.NewDatasetFromEntity(input)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "invalid dataset", err)
	}

	dataset.ID = 0
	dataset.CreatedBy = username
	dataset.ChangedBy = username

	if err := s.db.WithContext(ctx).Create(&dataset).Error; err != nil {
		return nil, writeError("create", err)
	}

	return dataset.ToEntity(), nil
}

// UpdateDataset re-reads the row inside a transaction, locking it where the
// dialect allows, and saves what mutate makes of it.
func (s *Store) UpdateDataset(
	ctx context.Context, username string, id int64, mutate store.DatasetMutation,
) (*entities.Dataset, *contract.Error) {
	var (
		updated       model.Dataset
		contractError *contract.Error
	)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reader := tx
		if supportsRowLocks(tx) {
			reader = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		existing, getError := s.getDataset(reader, id)
		if getError != nil {
			return getError
		}

		entity := existing.ToEntity()
		if mutateError := mutate(entity); mutateError != nil {
			return mutateError
		}

		entity.ID = id

		dataset, err := model.NewDatasetFromEntity(entity)
		if err != nil {
			return contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "invalid dataset", err)
		}

		dataset.CreatedBy = existing.CreatedBy
		dataset.CreatedOn = existing.CreatedOn
		dataset.ChangedBy = username

		if err := tx.Save(&dataset).Error; err != nil {
			return err
		}

		updated = dataset

		return nil
	}); err != nil {
		if errors.As(err, &contractError) {
			return nil, contractError
		}

		return nil, writeError("update", err)
	}

	return updated.ToEntity(), nil
}

func (s *Store) DeleteDataset(ctx context.Context, id int64) *contract.Error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Dataset{})
	if result.Error != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInternal,
			fmt.Sprintf("failed to delete dataset with id %d", id),
			result.Error,
		)
	}

	if result.RowsAffected == 0 {
		return notFound(id)
	}

	return nil
}
