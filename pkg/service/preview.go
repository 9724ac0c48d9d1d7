package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/cubestudio/dataset-admin/pkg/contract"
)

// MergePreviewArgs folds the request inputs into one map. Later sources win:
// JSON body, query string, form fields, then the JSON object in form_data.
// Inputs that are not JSON objects are ignored.
func MergePreviewArgs(
	body []byte, query map[string]string, form map[string][]string, formData string,
) map[string]interface{} {
	args := make(map[string]interface{})

	mergeJSON := func(result gjson.Result) {
		if !result.IsObject() {
			return
		}

		result.ForEach(func(key, value gjson.Result) bool {
			args[key.String()] = value.Value()

			return true
		})
	}

	if len(body) > 0 && gjson.ValidBytes(body) {
		mergeJSON(gjson.ParseBytes(body))
	}

	for key, value := range query {
		args[key] = value
	}

	for key, values := range form {
		if len(values) > 0 {
			args[key] = values[0]
		}
	}

	if formData != "" && gjson.Valid(formData) {
		mergeJSON(gjson.Parse(formData))
	}

	return args
}

// PreviewDataset answers every preview request with a single empty row.
func (s *DatasetService) PreviewDataset(
	_ context.Context, input *contract.PreviewRequest,
) (*contract.PreviewResponse, *contract.Error) {
	s.logger.WithFields(logrus.Fields{
		"name":    input.Name,
		"version": input.Version,
		"segment": input.Segment,
		"args":    input.Args,
	}).Debug("dataset preview requested")

	return &contract.PreviewResponse{
		Rows: []contract.PreviewRow{
			{
				RowIdx: 0,
				Row: map[string]interface{}{
					"col1":      "",
					"col2":      "",
					"col3":      "",
					"label1":    []string{""},
					"no_answer": false,
				},
				TruncatedCells: []string{},
			},
		},
	}, nil
}
