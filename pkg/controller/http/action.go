package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/usecase"
)

const actionFailure = "Internal server error"

type actionResponse struct {
	ActionID       int64              `json:"action_id"`
	TenantID       string             `json:"tenant_id"`
	SiteID         string             `json:"site_id"`
	Title          string             `json:"title"`
	Description    *string            `json:"description"`
	Status         types.ActionStatus `json:"status"`
	Priority       types.Priority     `json:"priority"`
	DueDate        *time.Time         `json:"due_date"`
	CreatedBy      string             `json:"created_by"`
	AssignedTo     *string            `json:"assigned_to"`
	AssignedToName *string            `json:"assigned_to_name"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func toActionResponse(a *model.Action) actionResponse {
	return actionResponse{
		ActionID:       a.ID,
		TenantID:       a.TenantID,
		SiteID:         a.SiteID,
		Title:          a.Title,
		Description:    a.Description,
		Status:         a.Status,
		Priority:       a.Priority,
		DueDate:        a.DueDate,
		CreatedBy:      a.CreatedBy,
		AssignedTo:     a.AssignedTo,
		AssignedToName: a.AssignedToName,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// actionID parses the {id} path parameter. Non-numeric IDs are reported as
// not found.
func actionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func listActionsHandler(actionUC *usecase.ActionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		page := model.ParsePage(q.Get("limit"), q.Get("offset"))

		actions, err := actionUC.ListActions(r.Context(), identity, page)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}

		resp := make([]actionResponse, len(actions))
		for i, a := range actions {
			resp[i] = toActionResponse(a)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func getActionHandler(actionUC *usecase.ActionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}
		id, ok := actionID(r)
		if !ok {
			writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Error: "Not found"})
			return
		}

		action, err := actionUC.GetAction(r.Context(), identity, id)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toActionResponse(action))
	}
}

func createActionHandler(actionUC *usecase.ActionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}

		payload, err := decodePayload(r)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}

		action, err := actionUC.CreateAction(r.Context(), identity, payload)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toActionResponse(action))
	}
}

func updateActionHandler(actionUC *usecase.ActionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}

		payload, err := decodePayload(r)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}

		id, ok := actionID(r)
		if !ok {
			writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Error: "Not found"})
			return
		}

		action, err := actionUC.UpdateAction(r.Context(), identity, id, payload)
		if err != nil {
			writeError(r.Context(), w, err, actionFailure)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toActionResponse(action))
	}
}
