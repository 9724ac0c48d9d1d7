package contract

import (
	"context"
	"io"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/entities"
)

const (
	DefaultMaxResults = 100
	MaxResultsLimit   = 1000
)

// Plain text bodies of the upload endpoint.
const (
	ChunkUploadSuccessful = "Chunk upload successful"
	SizeMismatch          = "Size mismatch"
	WriteFailed           = "Could not write the file to disk"
)

type ListDatasets struct {
	Filter     string `query:"filter"`
	OrderBy    string `query:"order_by"`
	MaxResults int    `query:"max_results" validate:"gte=0,lte=1000"`
	PageToken  string `query:"page_token"`
}

type ListDatasetsResponse struct {
	Datasets      []*entities.Dataset `json:"datasets"`
	NextPageToken string              `json:"next_page_token,omitempty"`
}

// UploadChunk carries the multipart fields of one chunk of a file upload.
type UploadChunk struct {
	DatasetID     int64  `form:"-"`
	Filename      string `form:"filename"       validate:"required"`
	CurrentChunk  int    `form:"current_chunk"  validate:"gte=0,ltfield=TotalChunk"`
	CurrentOffset int64  `form:"current_offset" validate:"gte=0"`
	TotalChunk    int    `form:"total_chunk"    validate:"gte=1"`
	TotalSize     int64  `form:"total_size"     validate:"gte=0"`
	Partition     string `form:"partition"`
}

// IsLast reports whether this chunk completes the file.
func (u *UploadChunk) IsLast() bool {
	return u.CurrentChunk+1 == u.TotalChunk
}

type UploadChunkResponse struct {
	Completed bool
	Path      string
	Written   int64
}

type DownloadResult struct {
	StoreType    string   `json:"store_type"`
	DownloadURLs []string `json:"download_urls"`
}

// DownloadRequest identifies the dataset to resolve. Host is the scheme and
// host the generated local URLs point at, e.g. "http://cube.example.com".
type DownloadRequest struct {
	DatasetID int64
	Partition string
	Host      string
}

type BackupResponse struct {
	TaskID string `json:"task_id"`
}

type PreviewRequest struct {
	Name    string
	Version string
	Segment string
	Args    map[string]interface{}
}

type PreviewRow struct {
	RowIdx         int                    `json:"row_idx"`
	Row            map[string]interface{} `json:"row"`
	TruncatedCells []string               `json:"truncated_cells"`
}

type PreviewResponse struct {
	Rows []PreviewRow `json:"rows"`
}

// DatasetPatch applies the fields of an edit request to the stored dataset.
type DatasetPatch func(dataset *entities.Dataset) *Error

type DatasetService interface {
	ListDatasets(ctx context.Context, caller access.Caller, input *ListDatasets) (*ListDatasetsResponse, *Error)
	GetDataset(ctx context.Context, caller access.Caller, id int64) (*entities.Dataset, *Error)
	CreateDataset(ctx context.Context, caller access.Caller, input *entities.Dataset) (*entities.Dataset, *Error)
	UpdateDataset(ctx context.Context, caller access.Caller, id int64, patch DatasetPatch) (*entities.Dataset, *Error)
	DeleteDataset(ctx context.Context, caller access.Caller, id int64) *Error
	UploadChunk(ctx context.Context, caller access.Caller, input *UploadChunk, data io.Reader) (*UploadChunkResponse, *Error)
	DownloadDataset(ctx context.Context, caller access.Caller, input *DownloadRequest) (*DownloadResult, *Error)
	PreviewDataset(ctx context.Context, input *PreviewRequest) (*PreviewResponse, *Error)
	BackupDataset(ctx context.Context, caller access.Caller, id int64) (*BackupResponse, *Error)
}
