package controllers

import (
	"net/http"
	"strings"

	"github.com/workoutbrothers/storefront-backend/api/responses"
	"github.com/workoutbrothers/storefront-backend/api/validators"
	"github.com/workoutbrothers/storefront-backend/internal/agent"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

type agentQueryRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

// AgentQuery answers a customer question from the assistant's canned responses.
func AgentQuery(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload agentQueryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := strings.TrimSpace(payload.Query)
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}
		responses.WriteSuccess(w, agent.Respond(query))
	}
}
