package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/cubestudio/dataset-admin/pkg/contract"
	"github.com/cubestudio/dataset-admin/pkg/entities"
	"github.com/cubestudio/dataset-admin/pkg/service"
)

type handlers struct {
	logger  *logrus.Logger
	service contract.DatasetService
	parser  contract.HTTPRequestParser
}

// statusResponse is the envelope of the action style endpoints.
type statusResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

func datasetID(c *fiber.Ctx) (int64, *contract.Error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, contract.NewError(
			contract.ErrorCodeInvalidParameterValue,
			"Invalid value "+c.Params("id")+" for parameter 'id' supplied",
		)
	}

	return id, nil
}

func (h *handlers) listDatasets(c *fiber.Ctx) error {
	var input contract.ListDatasets
	if err := h.parser.ParseQuery(c, &input); err != nil {
		return err
	}

	output, err := h.service.ListDatasets(c.UserContext(), callerFrom(c), &input)
	if err != nil {
		return err
	}

	return c.JSON(output)
}

func (h *handlers) getDataset(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err != nil {
		return err
	}

	output, err := h.service.GetDataset(c.UserContext(), callerFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(output)
}

func (h *handlers) createDataset(c *fiber.Ctx) error {
	var input entities.Dataset
	if err := h.parser.ParseBody(c, &input); err != nil {
		return err
	}

	output, err := h.service.CreateDataset(c.UserContext(), callerFrom(c), &input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(output)
}

// updateDataset applies the request body on top of the stored record, so
// fields the client leaves out keep their values.
func (h *handlers) updateDataset(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err != nil {
		return err
	}

	output, err := h.service.UpdateDataset(c.UserContext(), callerFrom(c), id,
		func(dataset *entities.Dataset) *contract.Error {
			return h.parser.ParseBody(c, dataset)
		},
	)
	if err != nil {
		return err
	}

	return c.JSON(output)
}

func (h *handlers) deleteDataset(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteDataset(c.UserContext(), callerFrom(c), id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{})
}

// uploadChunk answers with plain text. Server side failures carry their
// message as the body, everything else goes through the error handler.
func (h *handlers) uploadChunk(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err != nil {
		return err
	}

	var input contract.UploadChunk
	if err := h.parser.ParseForm(c, &input); err != nil {
		return err
	}

	input.DatasetID = id

	header, formErr := c.FormFile("file")
	if formErr != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"Missing value for required parameter 'file'",
			formErr,
		)
	}

	file, openErr := header.Open()
	if openErr != nil {
		h.logger.Errorf("Failed to open uploaded chunk of dataset %d: %v", id, openErr)

		return c.Status(fiber.StatusInternalServerError).SendString(contract.WriteFailed)
	}
	defer file.Close()

	output, err := h.service.UploadChunk(c.UserContext(), callerFrom(c), &input, file)
	if err != nil {
		if err.StatusCode() == fiber.StatusInternalServerError {
			h.logger.Errorf("Error encountered in %s %s: %s", c.Method(), c.Path(), err)

			return c.Status(fiber.StatusInternalServerError).SendString(err.Message)
		}

		return err
	}

	if output.Completed {
		h.logger.WithFields(logrus.Fields{
			"dataset_id": id,
			"path":       output.Path,
		}).Info("upload completed")
	}

	return c.SendString(contract.ChunkUploadSuccessful)
}

// downloadDataset reports failures in the envelope rather than the status
// code.
func (h *handlers) downloadDataset(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err == nil {
		var output *contract.DownloadResult

		output, err = h.service.DownloadDataset(c.UserContext(), callerFrom(c), &contract.DownloadRequest{
			DatasetID: id,
			Partition: c.Params("partition"),
			Host:      c.BaseURL(),
		})
		if err == nil {
			return c.JSON(statusResponse{Status: 0, Message: "success", Result: output})
		}
	}

	h.logger.Infof("Download of dataset %q failed: %s", c.Params("id"), err)

	return c.JSON(statusResponse{Status: 1, Message: err.Message, Result: ""})
}

func (h *handlers) previewDataset(c *fiber.Ctx) error {
	form := make(map[string][]string)
	if multipart, err := c.MultipartForm(); err == nil {
		for key, values := range multipart.Value {
			form[key] = values
		}
	} else {
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			form[string(key)] = append(form[string(key)], string(value))
		})
	}

	input := &contract.PreviewRequest{
		Name:    c.Params("name"),
		Version: c.Params("version"),
		Segment: c.Params("segment"),
		Args:    service.MergePreviewArgs(c.Body(), c.Queries(), form, c.Query("form_data")),
	}

	output, err := h.service.PreviewDataset(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.JSON(output)
}

func (h *handlers) backupDataset(c *fiber.Ctx) error {
	id, err := datasetID(c)
	if err != nil {
		return err
	}

	output, err := h.service.BackupDataset(c.UserContext(), callerFrom(c), id)
	if err != nil {
		return err
	}

	return c.JSON(statusResponse{
		Status:  0,
		Message: "backup task enqueued",
		Result:  output,
	})
}
