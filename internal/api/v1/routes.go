// Package v1 provides the participant appearance routes of the REST API.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/api/common"
	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/coordinator"
	"github.com/stacklok/appearance-server/internal/presence"
)

// EventSource hands out the events queued for a participant
type EventSource interface {
	// Drain returns and clears the participant's pending events. The second result is
	// false when the participant has no open outbox.
	Drain(id uuid.UUID) ([]presence.Event, bool)
}

// SetAppearanceRequest is the body of PUT /v1/participants/{id}/appearance
type SetAppearanceRequest struct {
	Textures      *appearance.TextureSet         `json:"textures,omitempty"`
	VisualParams  []byte                         `json:"visual_params,omitempty"`
	WearableCache []appearance.WearableCacheHint `json:"wearable_cache,omitempty"`
}

// WearingRequest is the body of PUT /v1/participants/{id}/wearing
type WearingRequest struct {
	Items []coordinator.WornItem `json:"items"`
}

// CachedTexturesRequest is the body of POST /v1/participants/{id}/cached-textures
type CachedTexturesRequest struct {
	Requests []appearance.CachedTextureRequest `json:"requests"`
}

// CachedTexturesResponse answers a CachedTexturesRequest
type CachedTexturesResponse struct {
	Responses []appearance.CachedTextureResponse `json:"responses"`
}

// BakeValidationResponse is the body of POST /v1/participants/{id}/bake-validation
type BakeValidationResponse struct {
	Valid bool `json:"valid"`
}

// EventsResponse is the body of GET /v1/participants/{id}/events
type EventsResponse struct {
	Events []presence.Event `json:"events"`
}

// Routes holds the handlers of the participant API
type Routes struct {
	coord  coordinator.Coordinator
	events EventSource
}

// NewRoutes creates a new Routes instance with the provided dependencies
func NewRoutes(coord coordinator.Coordinator, events EventSource) *Routes {
	return &Routes{
		coord:  coord,
		events: events,
	}
}

// Router creates the router for the participant API
func Router(coord coordinator.Coordinator, events EventSource) http.Handler {
	routes := NewRoutes(coord, events)

	r := chi.NewRouter()
	r.Route("/participants/{id}", func(r chi.Router) {
		r.Post("/session", routes.connect)
		r.Delete("/session", routes.disconnect)
		r.Get("/appearance", routes.getAppearance)
		r.Put("/appearance", routes.setAppearance)
		r.Put("/wearing", routes.setWearing)
		r.Post("/cached-textures", routes.cachedTextures)
		r.Post("/bake-validation", routes.validateBakes)
		r.Post("/wearables", routes.sendWearables)
		r.Get("/events", routes.drainEvents)
	})

	return r
}

// participantID parses the {id} parameter, writing a 400 response when it is invalid
func participantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := common.GetUUIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeCoordinatorError maps coordinator errors onto HTTP status codes
func writeCoordinatorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, coordinator.ErrSessionNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, coordinator.ErrSessionExists):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, coordinator.ErrNotStarted):
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.ErrorContext(r.Context(), "Appearance request failed", "path", r.URL.Path, "error", err)
		common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

// connect handles POST /v1/participants/{id}/session
//
// @Summary		Open a participant session
// @Description	Load the stored appearance and bake cache index of a participant
// @Tags			participants
// @Produce		json
// @Param			id	path	string	true	"Participant ID"
// @Success		201
// @Failure		400	{object}	common.ErrorResponse
// @Failure		409	{object}	common.ErrorResponse
// @Failure		503	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/session [post]
func (rr *Routes) connect(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	if err := rr.coord.Connect(r.Context(), id); err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// disconnect handles DELETE /v1/participants/{id}/session
//
// @Summary		Close a participant session
// @Tags			participants
// @Param			id	path	string	true	"Participant ID"
// @Success		204
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/session [delete]
func (rr *Routes) disconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	if err := rr.coord.Disconnect(r.Context(), id); err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getAppearance handles GET /v1/participants/{id}/appearance
//
// @Summary		Get the current appearance
// @Tags			participants
// @Produce		json
// @Param			id	path		string	true	"Participant ID"
// @Success		200	{object}	appearance.Record
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/appearance [get]
func (rr *Routes) getAppearance(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	rec, err := rr.coord.Appearance(r.Context(), id)
	if err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, rec, http.StatusOK)
}

// setAppearance handles PUT /v1/participants/{id}/appearance
//
// @Summary		Apply an appearance update
// @Description	Replace baked textures and visual params. Omitted fields are left untouched.
// @Tags			participants
// @Accept			json
// @Param			id		path	string					true	"Participant ID"
// @Param			body	body	SetAppearanceRequest	true	"Appearance update"
// @Success		202
// @Failure		400	{object}	common.ErrorResponse
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/appearance [put]
func (rr *Routes) setAppearance(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	var body SetAppearanceRequest
	if err := common.DecodeJSONBody(w, r, &body); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := coordinator.SetAppearanceRequest{
		Textures:      body.Textures,
		VisualParams:  body.VisualParams,
		WearableCache: body.WearableCache,
	}
	if err := rr.coord.SetAppearance(r.Context(), id, req); err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// setWearing handles PUT /v1/participants/{id}/wearing
//
// @Summary		Replace worn items
// @Description	Resolve the listed items through the participant's inventory. Unlisted slots keep their items.
// @Tags			participants
// @Accept			json
// @Param			id		path	string			true	"Participant ID"
// @Param			body	body	WearingRequest	true	"Worn items"
// @Success		202
// @Failure		400	{object}	common.ErrorResponse
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/wearing [put]
func (rr *Routes) setWearing(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	var body WearingRequest
	if err := common.DecodeJSONBody(w, r, &body); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, item := range body.Items {
		if !item.Type.Valid() {
			common.WriteErrorResponse(w, "invalid wearable type "+strconv.Itoa(int(item.Type)), http.StatusBadRequest)
			return
		}
	}
	if err := rr.coord.AvatarIsWearing(r.Context(), id, body.Items); err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// cachedTextures handles POST /v1/participants/{id}/cached-textures
//
// @Summary		Look up cached bakes
// @Description	Answer which viewer cache ids already map to a baked texture
// @Tags			participants
// @Accept			json
// @Produce		json
// @Param			id		path		string					true	"Participant ID"
// @Param			body	body		CachedTexturesRequest	true	"Cache lookups"
// @Success		200		{object}	CachedTexturesResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/cached-textures [post]
func (rr *Routes) cachedTextures(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	var body CachedTexturesRequest
	if err := common.DecodeJSONBody(w, r, &body); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	responses, err := rr.coord.AgentCachedTexturesRequest(r.Context(), id, body.Requests)
	if err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, CachedTexturesResponse{Responses: responses}, http.StatusOK)
}

// validateBakes handles POST /v1/participants/{id}/bake-validation
//
// @Summary		Validate baked textures
// @Description	Check the participant's bakes against the asset store, optionally requesting rebakes
// @Tags			participants
// @Produce		json
// @Param			id		path		string	true	"Participant ID"
// @Param			rebake	query		bool	false	"Request a rebake for every missing bake"
// @Success		200		{object}	BakeValidationResponse
// @Failure		400		{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/bake-validation [post]
func (rr *Routes) validateBakes(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	rebake := false
	if raw := r.URL.Query().Get("rebake"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			common.WriteErrorResponse(w, "rebake must be true or false", http.StatusBadRequest)
			return
		}
		rebake = v
	}
	valid := rr.coord.ValidateBakedTextureCache(r.Context(), id, rebake)
	common.WriteJSONResponse(w, BakeValidationResponse{Valid: valid}, http.StatusOK)
}

// sendWearables handles POST /v1/participants/{id}/wearables
//
// @Summary		Send wearables
// @Description	Queue the participant's current wearables and serial to its own viewer
// @Tags			participants
// @Param			id	path	string	true	"Participant ID"
// @Success		202
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/wearables [post]
func (rr *Routes) sendWearables(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	if err := rr.coord.SendWearables(r.Context(), id); err != nil {
		writeCoordinatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// drainEvents handles GET /v1/participants/{id}/events
//
// @Summary		Drain queued events
// @Description	Return and clear the events queued for the participant's viewer
// @Tags			participants
// @Produce		json
// @Param			id	path		string	true	"Participant ID"
// @Success		200	{object}	EventsResponse
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/participants/{id}/events [get]
func (rr *Routes) drainEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := participantID(w, r)
	if !ok {
		return
	}
	events, found := rr.events.Drain(id)
	if !found {
		common.WriteErrorResponse(w, coordinator.ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}
	if events == nil {
		events = []presence.Event{}
	}
	common.WriteJSONResponse(w, EventsResponse{Events: events}, http.StatusOK)
}
