package handlers

import (
	"net/http"

	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/query"
	"github.com/Novip1906/tasks-realtime/internal/response"
)

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	input, err := req.toInput(h.cfg.Params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), input, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, task, msgCreated)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := query.FromValues(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.tasks.FindAll(r.Context(), filter, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, page, msgOK)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.tasks.FindOne(r.Context(), id, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, task, msgOK)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := req.toPatch(h.cfg.Params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, patch, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, task, msgUpdated)
}

func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.tasks.ToggleComplete(r.Context(), id, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, task, msgUpdated)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.tasks.Remove(r.Context(), id, identity(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTaskFiles(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	files, err := h.files.ListByTask(r.Context(), id, identity(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if files == nil {
		files = []*models.FileRecord{}
	}
	response.JSON(w, http.StatusOK, files, msgOK)
}
