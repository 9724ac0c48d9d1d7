package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/metrics"
	"github.com/cubestudio/dataset-admin/pkg/utils"
)

func isAbsoluteURL(path string) bool {
	parsed, err := url.Parse(path)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// pathToURL maps a stored path onto a URL served by host. Absolute URLs pass
// through, local paths go through the configured rewrites, and anything else
// has no URL.
func (s *DatasetService) pathToURL(host, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if isAbsoluteURL(path) {
		return path, true
	}

	for _, rewrite := range s.config.Dataset.Rewrites {
		if strings.HasPrefix(path, rewrite.Prefix) {
			relative := strings.TrimPrefix(path, rewrite.Strip)
			if !strings.HasPrefix(relative, "/") {
				relative = "/" + relative
			}

			return strings.TrimRight(host, "/") + s.config.Dataset.StaticPath + relative, true
		}
	}

	return "", false
}

func (s *DatasetService) pathsToURLs(host string, paths []string) []string {
	urls := make([]string, 0, len(paths))

	for _, path := range paths {
		if u, ok := s.pathToURL(host, path); ok {
			urls = append(urls, u)
		} else {
			s.logger.WithField("path", path).Debug("path has no download url")
		}
	}

	return urls
}

func remotePath(dataset *entities.Dataset) string {
	return fmt.Sprintf("/dataset/%s/%s", dataset.Name, dataset.Version)
}

// DownloadDataset resolves the download URLs of a dataset: a requested
// partition first, then local paths, then external links and finally the
// object storage backend.
func (s *DatasetService) DownloadDataset(
	ctx context.Context, caller access.Caller, input *contract.DownloadRequest,
) (*contract.DownloadResult, *contract.Error) {
	urls, source, cErr := s.resolve(ctx, caller, input)
	if cErr != nil {
		s.metrics.DownloadResolutionsTotal.WithLabelValues(metrics.SourceFailed).Inc()

		return nil, cErr
	}

	s.metrics.DownloadResolutionsTotal.WithLabelValues(source).Inc()

	return &contract.DownloadResult{
		StoreType:    s.config.Store.Type,
		DownloadURLs: urls,
	}, nil
}

func (s *DatasetService) resolve(
	ctx context.Context, caller access.Caller, input *contract.DownloadRequest,
) ([]string, string, *contract.Error) {
	dataset, cErr := s.GetDataset(ctx, caller, input.DatasetID)
	if cErr != nil {
		return nil, "", cErr
	}

	if partition := strings.TrimSpace(input.Partition); partition != "" {
		segment, err := entities.ParseSegment(dataset.Segment)
		if err != nil {
			return nil, "", contract.NewErrorWith(
				contract.ErrorCodeInternal,
				fmt.Sprintf("dataset %d has a malformed segment", dataset.ID),
				err,
			)
		}

		if paths, ok := segment[partition]; ok {
			return s.pathsToURLs(input.Host, paths), metrics.SourcePartition, nil
		}
	}

	if paths := utils.SplitNonEmpty(dataset.Path, "\n"); len(paths) > 0 {
		return s.pathsToURLs(input.Host, paths), metrics.SourceLocal, nil
	}

	if links := utils.SplitNonEmpty(dataset.DownloadURL, "\n"); len(links) > 0 {
		return links, metrics.SourceExternal, nil
	}

	if s.backend == nil {
		return nil, "", contract.NewError(
			contract.ErrorCodeTemporarilyUnavailable,
			"no object storage backend is configured",
		)
	}

	urls, err := s.backend.DownloadURLs(ctx, remotePath(dataset))
	if err != nil {
		return nil, "", contract.NewErrorWith(
			contract.ErrorCodeInternal,
			fmt.Sprintf("failed to resolve %s on %s", remotePath(dataset), s.backend.Name()),
			err,
		)
	}

	return urls, metrics.SourceBackend, nil
}
