package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/api/middleware"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
)

// actorID pulls the authenticated user id out of the request context.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
