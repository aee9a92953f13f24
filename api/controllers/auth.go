package controllers

import (
	"net/http"

	"github.com/workoutbrothers/storefront-backend/api/responses"
	"github.com/workoutbrothers/storefront-backend/internal/auth"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

// AuthRegister creates a customer account and answers 201 with a token.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth", logg)
	}
	return jsonAction(logg, http.StatusCreated, svc.Register)
}

// AuthLogin exchanges email and password for a token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth", logg)
	}
	return jsonAction(logg, http.StatusOK, svc.Login)
}

func unavailable(name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
	}
}
