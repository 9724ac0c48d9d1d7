package entities

import "time"

// Dataset is the API representation of a dataset record.
type Dataset struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"          validate:"required,datasetName"`
	Version      string                 `json:"version"       validate:"omitempty,datasetVersion"`
	Label        string                 `json:"label"         validate:"required,max=200"`
	Describe     string                 `json:"describe"      validate:"required,max=2000"`
	Subdataset   string                 `json:"subdataset"`
	Industry     string                 `json:"industry"`
	Field        string                 `json:"field"`
	Usage        string                 `json:"usage"`
	Research     string                 `json:"research"`
	SourceType   string                 `json:"source_type"`
	Source       string                 `json:"source"`
	FileType     []string               `json:"file_type"`
	StorageClass string                 `json:"storage_class"`
	StorageSize  string                 `json:"storage_size"`
	Status       string                 `json:"status"`
	Icon         string                 `json:"icon"`
	Features     string                 `json:"features"`
	URL          string                 `json:"url"`
	DownloadURL  string                 `json:"download_url"`
	Price        string                 `json:"price"`
	EntriesNum   string                 `json:"entries_num"`
	Duration     string                 `json:"duration"`
	Years        string                 `json:"years"`
	Path         string                 `json:"path"`
	Segment      string                 `json:"segment"`
	Expand       map[string]interface{} `json:"expand"`
	Owner        string                 `json:"owner"`
	CreatedBy    string                 `json:"created_by"`
	ChangedBy    string                 `json:"changed_by"`
	CreatedOn    time.Time              `json:"created_on"`
	ChangedOn    time.Time              `json:"changed_on"`
}

func (d *Dataset) GetOwner() string {
	return d.Owner
}

func (d *Dataset) GetCreatedBy() string {
	return d.CreatedBy
}
