package projects

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/api/respond"
	"github.com/good-yellow-bee/atelier/internal/models"
)

func recordID(r *http.Request) (int64, *respond.Error) {
	return respond.ParseID(chi.URLParam(r, "id"))
}

// ListTasks handles GET …/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	tasks, err := h.store.Tasks().ListByProject(r.Context(), project.ID)
	if err != nil {
		respond.Err(w, h.logger, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	respond.OK(w, map[string]any{
		"items":              tasks,
		"completion_percent": models.TaskCompletion(tasks),
	})
}

// CreateTask handles POST /api/v1/projects/{projectID}/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req TaskRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	task := &models.Task{ProjectID: project.ID, CreatedAt: time.Now().UTC()}
	if err := req.apply(task, true); err != nil {
		respond.Err(w, h.logger, "create task", err)
		return
	}
	if err := h.store.Tasks().Create(r.Context(), task); err != nil {
		respond.Err(w, h.logger, "create task", err)
		return
	}

	respond.Created(w, task)
}

// UpdateTask handles PUT /api/v1/projects/{projectID}/tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	task, err := h.store.Tasks().GetByID(r.Context(), project.ID, id)
	if err != nil {
		respond.Err(w, h.logger, "get task", err)
		return
	}
	if task == nil {
		respond.JSONError(w, respond.NewNotFound("Task not found"))
		return
	}

	var req TaskRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if err := req.apply(task, false); err != nil {
		respond.Err(w, h.logger, "update task", err)
		return
	}
	if err := h.store.Tasks().Update(r.Context(), task); err != nil {
		respond.Err(w, h.logger, "update task", err)
		return
	}

	respond.OK(w, task)
}

// DeleteTask handles DELETE /api/v1/projects/{projectID}/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	if err := h.store.Tasks().Delete(r.Context(), project.ID, id); err != nil {
		respond.Err(w, h.logger, "delete task", err)
		return
	}

	respond.NoContent(w)
}

// ListBudget handles GET …/budget.
func (h *Handler) ListBudget(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	items, err := h.store.Budget().ListByProject(r.Context(), project.ID)
	if err != nil {
		respond.Err(w, h.logger, "list budget", err)
		return
	}
	if items == nil {
		items = []*models.BudgetItem{}
	}

	respond.OK(w, map[string]any{
		"items":   items,
		"summary": models.SummarizeBudget(items),
	})
}

// CreateBudgetItem handles POST /api/v1/projects/{projectID}/budget.
func (h *Handler) CreateBudgetItem(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req BudgetItemRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	item := &models.BudgetItem{ProjectID: project.ID}
	if err := req.apply(item, true); err != nil {
		respond.Err(w, h.logger, "create budget item", err)
		return
	}
	if err := h.store.Budget().Create(r.Context(), item); err != nil {
		respond.Err(w, h.logger, "create budget item", err)
		return
	}

	respond.Created(w, item)
}

// UpdateBudgetItem handles PUT /api/v1/projects/{projectID}/budget/{id}.
func (h *Handler) UpdateBudgetItem(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	item, err := h.store.Budget().GetByID(r.Context(), project.ID, id)
	if err != nil {
		respond.Err(w, h.logger, "get budget item", err)
		return
	}
	if item == nil {
		respond.JSONError(w, respond.NewNotFound("Budget item not found"))
		return
	}

	var req BudgetItemRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if err := req.apply(item, false); err != nil {
		respond.Err(w, h.logger, "update budget item", err)
		return
	}
	if err := h.store.Budget().Update(r.Context(), item); err != nil {
		respond.Err(w, h.logger, "update budget item", err)
		return
	}

	respond.OK(w, item)
}

// DeleteBudgetItem handles DELETE /api/v1/projects/{projectID}/budget/{id}.
func (h *Handler) DeleteBudgetItem(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	if err := h.store.Budget().Delete(r.Context(), project.ID, id); err != nil {
		respond.Err(w, h.logger, "delete budget item", err)
		return
	}

	respond.NoContent(w)
}

// ListTimeline handles GET …/timeline.
func (h *Handler) ListTimeline(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	milestones, err := h.store.Timeline().ListByProject(r.Context(), project.ID)
	if err != nil {
		respond.Err(w, h.logger, "list timeline", err)
		return
	}
	if milestones == nil {
		milestones = []*models.Milestone{}
	}

	respond.OK(w, map[string]any{"items": milestones})
}

// CreateMilestone handles POST /api/v1/projects/{projectID}/timeline.
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())

	var req MilestoneRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	m := &models.Milestone{ProjectID: project.ID}
	if err := req.apply(m, true); err != nil {
		respond.Err(w, h.logger, "create milestone", err)
		return
	}
	if err := h.store.Timeline().Create(r.Context(), m); err != nil {
		respond.Err(w, h.logger, "create milestone", err)
		return
	}

	respond.Created(w, m)
}

// UpdateMilestone handles PUT /api/v1/projects/{projectID}/timeline/{id}.
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	m, err := h.store.Timeline().GetByID(r.Context(), project.ID, id)
	if err != nil {
		respond.Err(w, h.logger, "get milestone", err)
		return
	}
	if m == nil {
		respond.JSONError(w, respond.NewNotFound("Milestone not found"))
		return
	}

	var req MilestoneRequest
	if apiErr := respond.Decode(r, &req); apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}
	if err := req.apply(m, false); err != nil {
		respond.Err(w, h.logger, "update milestone", err)
		return
	}
	if err := h.store.Timeline().Update(r.Context(), m); err != nil {
		respond.Err(w, h.logger, "update milestone", err)
		return
	}

	respond.OK(w, m)
}

// DeleteMilestone handles DELETE /api/v1/projects/{projectID}/timeline/{id}.
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	project := middleware.GetProject(r.Context())
	id, apiErr := recordID(r)
	if apiErr != nil {
		respond.JSONError(w, apiErr)
		return
	}

	if err := h.store.Timeline().Delete(r.Context(), project.ID, id); err != nil {
		respond.Err(w, h.logger, "delete milestone", err)
		return
	}

	respond.NoContent(w)
}
