package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/rest"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
)

const defaultSearchResults = 10

type createRoomRequest struct {
	HostUserID string `json:"hostUserId" validate:"omitempty,max=64"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest

	if r.ContentLength != 0 {
		if err := rest.ReadJSON(r, &req); err != nil {
			c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
			rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
			return
		}
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "invalid create room request", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	createRoomResp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		HostUserID: req.HostUserID,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to create room"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResponse{
		RoomID: createRoomResp.RoomID,
	}})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room-id")

	summary, err := c.roomService.GetRoomSummary(r.Context(), roomID)
	switch {
	case errors.Is(err, room.ErrInvalidInput):
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
	case errors.Is(err, room.ErrRoomNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
	case err != nil:
		c.logger.ErrorContext(r.Context(), "failed to get room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to get room"})
	default:
		rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": summary})
	}
}

type searchVideosRequest struct {
	Query      string `json:"q" validate:"required,max=200"`
	MaxResults int    `json:"max" validate:"gte=1,lte=50"`
}

// writeUpstreamError reports a failed video metadata lookup in the room:error shape.
func (c controller) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	c.logger.WarnContext(r.Context(), "video metadata lookup failed", "error", err)
	rest.WriteJSON(w, http.StatusBadGateway, rest.Envelope{"error": ErrorPayload{
		Error:     true,
		Type:      "invalid_input",
		Message:   "Video lookup failed. Please try again.",
		Retryable: true,
	}})
}

func (c controller) searchVideos(w http.ResponseWriter, r *http.Request) {
	req := searchVideosRequest{
		Query:      r.URL.Query().Get("q"),
		MaxResults: defaultSearchResults,
	}
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "max must be an integer"})
			return
		}
		req.MaxResults = n
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	results, err := c.videoData.Search(r.Context(), req.Query, req.MaxResults)
	if errors.Is(err, ytvideodata.ErrNoAPIKey) {
		rest.WriteJSON(w, http.StatusServiceUnavailable, rest.Envelope{"error": "video search is not configured"})
		return
	}
	if err != nil {
		c.writeUpstreamError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": results})
}

type getVideoRequest struct {
	VideoID string `json:"videoId" validate:"required,len=11"`
}

func (c controller) getVideo(w http.ResponseWriter, r *http.Request) {
	req := getVideoRequest{VideoID: chi.URLParam(r, "video-id")}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	videoData, err := c.videoData.Get(r.Context(), req.VideoID)
	if errors.Is(err, ytvideodata.ErrVideoNotFound) || errors.Is(err, ytvideodata.ErrVideoNotEmbeddable) {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": err.Error()})
		return
	}
	if err != nil {
		c.writeUpstreamError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": videoData})
}
