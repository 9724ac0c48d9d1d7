package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

// Dataset mapped from table <dataset>.
type Dataset struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement:true"`
	Name         string         `gorm:"column:name;size:200;not null;index"`
	Version      string         `gorm:"column:version;size:200"`
	Label        string         `gorm:"column:label;size:200"`
	Describe     string         `gorm:"column:describe;size:2000"`
	Subdataset   string         `gorm:"column:subdataset;size:200"`
	Industry     string         `gorm:"column:industry;size:200"`
	Field        string         `gorm:"column:field;size:200"`
	Usage        string         `gorm:"column:usage;size:200"`
	Research     string         `gorm:"column:research;size:200"`
	SourceType   string         `gorm:"column:source_type;size:200"`
	Source       string         `gorm:"column:source;size:200"`
	FileType     string         `gorm:"column:file_type;size:200"`
	StorageClass string         `gorm:"column:storage_class;size:200"`
	StorageSize  string         `gorm:"column:storage_size;size:200"`
	Status       string         `gorm:"column:status;size:200"`
	Icon         string         `gorm:"column:icon;size:2000"`
	Features     string         `gorm:"column:features;type:text"`
	URL          string         `gorm:"column:url;size:1000"`
	DownloadURL  string         `gorm:"column:download_url;type:text"`
	Price        string         `gorm:"column:price;size:200"`
	EntriesNum   string         `gorm:"column:entries_num;size:200"`
	Duration     string         `gorm:"column:duration;size:200"`
	Years        string         `gorm:"column:years;size:200"`
	Path         string         `gorm:"column:path;type:text"`
	Segment      string         `gorm:"column:segment;type:text"`
	Expand       datatypes.JSON `gorm:"column:expand"`
	Owner        string         `gorm:"column:owner;size:2000"`
	CreatedBy    string         `gorm:"column:created_by;size:200"`
	ChangedBy    string         `gorm:"column:changed_by;size:200"`
	CreatedOn    time.Time      `gorm:"column:created_on;autoCreateTime"`
	ChangedOn    time.Time      `gorm:"column:changed_on;autoUpdateTime"`
}

func (Dataset) TableName() string {
	return "dataset"
}

func (d Dataset) GetOwner() string {
	return d.Owner
}

func (d Dataset) GetCreatedBy() string {
	return d.CreatedBy
}

func (d Dataset) ToEntity() *entities.Dataset {
	expand := make(map[string]interface{})
	if len(d.Expand) > 0 {
		// Rows written outside this service may carry a non-object value.
		_ = json.Unmarshal(d.Expand, &expand)
	}

	return &entities.Dataset{
		ID:           d.ID,
		Name:         d.Name,
		Version:      d.Version,
		Label:        d.Label,
		Describe:     d.Describe,
		Subdataset:   d.Subdataset,
		Industry:     d.Industry,
		Field:        d.Field,
		Usage:        d.Usage,
		Research:     d.Research,
		SourceType:   d.SourceType,
		Source:       d.Source,
		FileType:     utils.SplitNonEmpty(d.FileType, ","),
		StorageClass: d.StorageClass,
		StorageSize:  d.StorageSize,
		Status:       d.Status,
		Icon:         d.Icon,
		Features:     d.Features,
		URL:          d.URL,
		DownloadURL:  d.DownloadURL,
		Price:        d.Price,
		EntriesNum:   d.EntriesNum,
		Duration:     d.Duration,
		Years:        d.Years,
		Path:         d.Path,
		Segment:      d.Segment,
		Expand:       expand,
		Owner:        d.Owner,
		CreatedBy:    d.CreatedBy,
		ChangedBy:    d.ChangedBy,
		CreatedOn:    d.CreatedOn,
		ChangedOn:    d.ChangedOn,
	}
}

func NewDatasetFromEntity(entity *entities.Dataset) (Dataset, error) {
	expand := entity.Expand
	if expand == nil {
		expand = map[string]interface{}{}
	}

	raw, err := json.Marshal(expand)
	if err != nil {
		return Dataset{}, err
	}

	return Dataset{
		ID:           entity.ID,
		Name:         entity.Name,
		Version:      entity.Version,
		Label:        entity.Label,
		Describe:     entity.Describe,
		Subdataset:   entity.Subdataset,
		Industry:     entity.Industry,
		Field:        entity.Field,
		Usage:        entity.Usage,
		Research:     entity.Research,
		SourceType:   entity.SourceType,
		Source:       entity.Source,
		FileType:     strings.Join(utils.Unique(utils.SplitNonEmpty(strings.Join(entity.FileType, ","), ",")), ","),
		StorageClass: entity.StorageClass,
		StorageSize:  entity.StorageSize,
		Status:       entity.Status,
		Icon:         entity.Icon,
		Features:     entity.Features,
		URL:          entity.URL,
		DownloadURL:  entity.DownloadURL,
		Price:        entity.Price,
		EntriesNum:   entity.EntriesNum,
		Duration:     entity.Duration,
		Years:        entity.Years,
		Path:         utils.NormalizeLines(entity.Path),
		Segment:      entity.Segment,
		Expand:       datatypes.JSON(raw),
		Owner:        entity.Owner,
		CreatedBy:    entity.CreatedBy,
		ChangedBy:    entity.ChangedBy,
		CreatedOn:    entity.CreatedOn,
		ChangedOn:    entity.ChangedOn,
	}, nil
}
