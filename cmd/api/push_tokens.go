package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/pushtokens"
)

// SavePushTokenRequest represents the payload for saving/updating a push token
type SavePushTokenRequest struct {
	Token      string          `json:"token" validate:"required"`
	DeviceInfo json.RawMessage `json:"device_info"`
}

// RemovePushTokenRequest represents the payload for removing a push token
type RemovePushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// PruneStaleTokensRequest is {"older_than": "1680h"}, i.e. 70 days.
type PruneStaleTokensRequest struct {
	OlderThan string `json:"older_than" validate:"required"`
}

func (p *PruneStaleTokensRequest) Duration() (time.Duration, error) {
	return time.ParseDuration(p.OlderThan)
}

// SavePushToken godoc
//
//	@Summary		Register a device push token
//	@Description	Stores or refreshes the Expo push token of the caller's device.
//	@Tags			push-tokens
//	@Accept			json
//	@Param			payload	body	SavePushTokenRequest	true	"Push token"
//	@Success		204		"No Content"
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/push-tokens [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	var payload SavePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.pushTokens.Register(r.Context(), caller.ID, payload.Token, payload.DeviceInfo); err != nil {
		if errors.Is(err, pushtokens.ErrInvalidToken) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemovePushToken godoc
//
//	@Summary		Remove a device push token
//	@Tags			push-tokens
//	@Accept			json
//	@Param			payload	body	RemovePushTokenRequest	true	"Push token"
//	@Success		204		"No Content"
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	var payload RemovePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.pushTokens.Unregister(r.Context(), caller.ID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PruneStaleTokens godoc
//
//	@Summary		Prune stale push tokens (admin)
//	@Tags			push-tokens
//	@Accept			json
//	@Param			payload	body	PruneStaleTokensRequest	true	"Age cut-off"
//	@Success		204		"No Content"
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/push-tokens/prune [post]
func (app *application) pruneStaleTokensHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != accesscontrol.RoleAdmin {
		app.forbiddenResponse(w, r, errors.New("pruning push tokens needs the admin role"))
		return
	}

	var payload PruneStaleTokensRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dur, err := payload.Duration()
	if err != nil || dur <= 0 {
		app.badRequestResponse(w, r, errors.New("older_than must be a positive duration such as 1680h"))
		return
	}

	if err := app.pushTokens.PruneStale(r.Context(), dur); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
