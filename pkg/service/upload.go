package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/cubestudio/dataset-admin/pkg/access"
	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/metrics"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

//nolint:gochecknoglobals
var filenameStrip = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sanitizeFilename reduces name to a safe single path segment: Unicode is
// folded to ASCII, separators and whitespace runs become underscores and
// everything outside [A-Za-z0-9_.-] is dropped. The result may be empty.
func sanitizeFilename(name string) string {
	var ascii strings.Builder

	for _, r := range norm.NFKD.String(name) {
		if r <= unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}

	folded := strings.NewReplacer("/", " ", "\\", " ").Replace(ascii.String())
	folded = strings.Join(strings.Fields(folded), "_")
	folded = filenameStrip.ReplaceAllString(folded, "")

	return strings.Trim(folded, "._")
}

// datasetDir is <root>/<name>/<version> with every segment sanitized.
func (s *DatasetService) datasetDir(name, version string) (string, error) {
	safeName := sanitizeFilename(name)
	safeVersion := sanitizeFilename(version)

	if safeName == "" || safeVersion == "" {
		return "", fmt.Errorf("dataset %q version %q does not map to a directory", name, version)
	}

	return filepath.Join(s.config.Dataset.Root, safeName, safeVersion), nil
}

func writeChunk(target string, offset int64, data io.Reader) (int64, error) {
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE, filePerm)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", target, err)
	}

	written, err := io.Copy(io.NewOffsetWriter(file, offset), data)
	if err != nil {
		_ = file.Close()

		return written, fmt.Errorf("failed to write %s at offset %d: %w", target, offset, err)
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("failed to close %s: %w", target, err)
	}

	return written, nil
}

// UploadChunk stores one chunk of a file at its offset. The last chunk checks
// the assembled size and records the file on the dataset.
//
//nolint:funlen
func (s *DatasetService) UploadChunk(
	ctx context.Context, caller access.Caller, input *contract.UploadChunk, data io.Reader,
) (*contract.UploadChunkResponse, *contract.Error) {
	dataset, cErr := s.modifiable(ctx, caller, input.DatasetID, "upload to")
	if cErr != nil {
		return nil, cErr
	}

	filename := sanitizeFilename(input.Filename)
	if filename == "" {
		return nil, contract.NewError(
			contract.ErrorCodeInvalidParameterValue,
			fmt.Sprintf("filename %q is empty after sanitization", input.Filename),
		)
	}

	dir, err := s.datasetDir(dataset.Name, dataset.Version)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, err.Error(), err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"filename":   filename,
		"chunk":      input.CurrentChunk + 1,
		"chunks":     input.TotalChunk,
	})

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkFailed).Inc()
		log.WithError(err).Error("could not create dataset directory")

		return nil, contract.NewErrorWith(contract.ErrorCodeInternal, contract.WriteFailed, err)
	}

	target := filepath.Join(dir, filename)

	if input.CurrentChunk == 0 {
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkFailed).Inc()
			log.WithError(err).Error("could not remove previous upload")

			return nil, contract.NewErrorWith(contract.ErrorCodeInternal, contract.WriteFailed, err)
		}
	}

	written, err := writeChunk(target, input.CurrentOffset, data)
	s.metrics.UploadBytesTotal.Add(float64(written))

	if err != nil {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkFailed).Inc()
		log.WithError(err).Error("could not write chunk")

		return nil, contract.NewErrorWith(contract.ErrorCodeInternal, contract.WriteFailed, err)
	}

	if !input.IsLast() {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkStored).Inc()
		log.Debug("chunk stored")

		return &contract.UploadChunkResponse{Path: target, Written: written}, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkFailed).Inc()

		return nil, contract.NewErrorWith(contract.ErrorCodeInternal, contract.WriteFailed, err)
	}

	if info.Size() != input.TotalSize {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkSizeMismatch).Inc()
		log.WithFields(logrus.Fields{
			"size":     info.Size(),
			"expected": input.TotalSize,
		}).Warn("upload completed with a size mismatch")

		return nil, contract.NewError(contract.ErrorCodeInternal, contract.SizeMismatch)
	}

	unlock := s.locks.Lock(dataset.ID)
	defer unlock()

	if _, cErr := s.store.RecordDatasetFile(ctx, dataset.ID, target, strings.TrimSpace(input.Partition)); cErr != nil {
		s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkFailed).Inc()
		log.WithError(cErr).Error("could not record uploaded file")

		return nil, cErr
	}

	s.metrics.UploadChunksTotal.WithLabelValues(metrics.ChunkCompleted).Inc()
	log.Info("file uploaded")

	return &contract.UploadChunkResponse{Completed: true, Path: target, Written: written}, nil
}
