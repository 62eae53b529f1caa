package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/usecase"
)

type taskResponse struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Description    *string       `json:"description"`
	Status         string        `json:"status"`
	DueDate        *time.Time    `json:"due_date"`
	AssignedTo     *string       `json:"assigned_to"`
	AssignedToName *string       `json:"assigned_to_name"`
	TeamID         *types.TeamID `json:"team_id"`
	TeamName       *string       `json:"team_name"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		DueDate:        t.DueDate,
		AssignedTo:     t.AssignedTo,
		AssignedToName: t.AssignedToName,
		TeamID:         t.TeamID,
		TeamName:       t.TeamName,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func listTasksHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := taskUC.ListTasks(r.Context())
		if err != nil {
			writeError(r.Context(), w, err, "Failed to fetch tasks")
			return
		}

		resp := make([]taskResponse, len(tasks))
		for i, t := range tasks {
			resp[i] = toTaskResponse(t)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func createTaskHandler(taskUC *usecase.TaskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			writeError(r.Context(), w, err, "Failed to create task")
			return
		}

		task, err := taskUC.CreateTask(r.Context(), payload)
		if err != nil {
			writeError(r.Context(), w, err, "Failed to create task")
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toTaskResponse(task))
	}
}
