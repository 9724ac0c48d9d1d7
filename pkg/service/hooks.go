package service

import (
	"strings"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

const DefaultVersion = "latest"

// applyLifecycleDefaults runs before every insert and update.
func (s *DatasetService) applyLifecycleDefaults(caller access.Caller, dataset *entities.Dataset) {
	owners := access.ParseOwners(dataset.Owner)
	if len(owners) == 0 {
		owners = access.DefaultOwners(caller.Username)
	}

	dataset.Owner = owners.String()

	if strings.TrimSpace(dataset.Icon) == "" {
		dataset.Icon = s.config.Dataset.DefaultIcon
	}

	if strings.TrimSpace(dataset.Version) == "" {
		dataset.Version = DefaultVersion
	}

	if strings.TrimSpace(dataset.Subdataset) == "" {
		dataset.Subdataset = dataset.Name
	}

	dataset.Path = utils.NormalizeLines(dataset.Path)
	dataset.DownloadURL = utils.NormalizeLines(dataset.DownloadURL)
}
