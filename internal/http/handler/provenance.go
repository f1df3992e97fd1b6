package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"provledger/internal/model"
	"provledger/internal/service"
)

// AccountHeader carries the submitting account when the form omits submitted_by.
const AccountHeader = "X-Account"

type digestResponse struct {
	Digest      model.Digest `json:"digest"`
	Size        int64        `json:"size"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
}

type trackResponse struct {
	Record    model.ProvenanceRecord `json:"record"`
	Persisted bool                   `json:"persisted"`
	Warning   string                 `json:"warning,omitempty"`
}

type listResponse struct {
	Items []model.ProvenanceRecord `json:"data"`
	Total int                      `json:"total"`
}

// ComputeDigest hashes an uploaded file without recording anything.
//
// @Summary Compute the SHA-256 digest of an upload
// @Tags digests
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "content to hash"
// @Success 200 {object} digestResponse
// @Failure 400 {object} errorPayload
// @Router /digests [post]
func ComputeDigest(svc service.ProvenanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.Digest(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(digestResponse{
			Digest:      res.Digest,
			Size:        res.Size,
			Filename:    fh.Filename,
			ContentType: contentTypeOf(fh.Header.Get("Content-Type")),
		})
	}
}

// TrackProvenance registers a dataset and appends its provenance record.
// The file part is optional; without it the record carries the no-content digest.
//
// @Summary Record dataset provenance
// @Tags provenance
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "dataset content"
// @Param source formData string true "where the data came from"
// @Param description formData string false "free-text description"
// @Param license formData string false "license identifier"
// @Param submitted_by formData string false "submitting account"
// @Success 201 {object} trackResponse
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /provenance [post]
func TrackProvenance(svc service.ProvenanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var content io.Reader
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			content = f
		}

		submittedBy := strings.TrimSpace(c.FormValue("submitted_by"))
		if submittedBy == "" {
			submittedBy = strings.TrimSpace(c.Get(AccountHeader))
		}

		res, err := svc.Track(c.UserContext(), content, service.TrackRequest{
			Source:      c.FormValue("source"),
			Description: c.FormValue("description"),
			License:     c.FormValue("license"),
			SubmittedBy: submittedBy,
		})
		if err != nil {
			return writeServiceError(c, err)
		}

		out := trackResponse{Record: res.Record, Persisted: res.Persisted()}
		if !out.Persisted {
			out.Warning = "record kept in memory; durable ledger write failed"
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// ListProvenance returns every record in insertion order, or only those
// matching ?digest= when given.
//
// @Summary List provenance records
// @Tags provenance
// @Produce json
// @Param digest query string false "content digest filter"
// @Success 200 {object} listResponse
// @Failure 400 {object} errorPayload
// @Router /provenance [get]
func ListProvenance(svc service.ProvenanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []model.ProvenanceRecord
		if d := c.Query("digest"); d != "" {
			found, err := svc.FindByDigest(c.UserContext(), d)
			if err != nil {
				return writeServiceError(c, err)
			}
			items = found
		} else {
			items = svc.List(c.UserContext())
		}
		if items == nil {
			items = []model.ProvenanceRecord{}
		}
		return c.JSON(listResponse{Items: items, Total: len(items)})
	}
}

// GetProvenance returns one record by id.
//
// @Summary Get a provenance record
// @Tags provenance
// @Produce json
// @Param id path string true "record id"
// @Success 200 {object} model.ProvenanceRecord
// @Failure 404 {object} errorPayload
// @Router /provenance/{id} [get]
func GetProvenance(svc service.ProvenanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

func contentTypeOf(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
