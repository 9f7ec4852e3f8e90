package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"slices"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/files"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/response"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

const (
	uploadField = "file"
	// room for multipart boundaries and headers on top of the file itself
	multipartOverhead = 1 << 20
)

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := contextkeys.GetLogger(ctx)

	taskId, err := pathUUID(r, "taskId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	maxSize := h.cfg.Uploads.MaxSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		h.fail(w, r, appErrors.Validation("request must be multipart/form-data"))
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			h.fail(w, r, appErrors.Validation("no file was uploaded"))
			return
		}
		if err != nil {
			h.failUpload(w, r, err)
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		h.storeUpload(w, r, taskId, part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		log.Debug("upload handled", slog.String("task_id", taskId))
		return
	}
}

func (h *Handler) storeUpload(w http.ResponseWriter, r *http.Request, taskId, originalName, contentType string, body io.Reader) {
	ctx := r.Context()
	log := contextkeys.GetLogger(ctx)

	mimetype, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(h.cfg.Uploads.AllowedTypes, mimetype) {
		h.fail(w, r, appErrors.Validation("file type is not allowed; images (JPEG, PNG, GIF, WebP) and PDF only"))
		return
	}

	name := files.UniqueName(originalName)
	storagePath, size, err := h.artifacts.Save(name, body, h.cfg.Uploads.MaxSize)
	if err != nil {
		h.failUpload(w, r, err)
		return
	}
	if size == 0 {
		if removeErr := h.artifacts.Remove(storagePath); removeErr != nil {
			log.Error("staged artifact not removed", slog.String("path", storagePath), logging.Err(removeErr))
		}
		h.fail(w, r, appErrors.Validation("file must not be empty"))
		return
	}

	record, err := h.files.Save(ctx, models.FileMeta{
		Filename:     name,
		OriginalName: filepath.Base(originalName),
		Mimetype:     mimetype,
		Size:         size,
		StoragePath:  storagePath,
	}, taskId, identity(r))
	if err != nil {
		if removeErr := h.artifacts.Remove(storagePath); removeErr != nil {
			log.Error("staged artifact not removed", slog.String("path", storagePath), logging.Err(removeErr))
		}
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, record, msgCreated)
}

func (h *Handler) failUpload(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.Is(err, files.ErrTooLarge) || errors.As(err, &maxBytesErr) {
		response.Fail(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file must not exceed %d bytes", h.cfg.Uploads.MaxSize))
		return
	}
	h.fail(w, r, err)
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	record, err := h.files.FindOne(r.Context(), id, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := h.artifacts.Open(record.StoragePath)
	if errors.Is(err, files.ErrArtifactNotFound) {
		response.Fail(w, r, http.StatusNotFound, "file not found on disk")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", record.Mimetype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": record.OriginalName,
	}))
	http.ServeContent(w, r, "", record.CreatedAt, f)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.files.Delete(r.Context(), id, identity(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "File deleted"}, msgDeleted)
}
