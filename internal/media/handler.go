package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mediashare/service/internal/response"
	"github.com/mediashare/service/internal/validate"
)

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the media endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/preSignedURL", h.PresignedURL)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/like", h.Like)
		r.Post("/unlike", h.Unlike)
	})
}

type createRequest struct {
	Title       string  `json:"title"       validate:"required,max=255" example:"Sunset"`
	Description *string `json:"description"                             example:"Taken from the pier"`
	FileURL     string  `json:"file_url"    validate:"required,url,max=255" example:"http://localhost:9000/media/uploads/sunset.png"`
	Type        string  `json:"type"        validate:"required"         example:"image"`
}

type updateRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=255"     example:"Sunset at the pier"`
	Description *string `json:"description"                                  example:"Edited description"`
	URL         *string `json:"url"         validate:"omitempty,url,max=255" example:"http://localhost:9000/media/uploads/sunset2.png"`
}

// Create godoc
//
//	@Summary		Create media
//	@Description	Register a media file that was uploaded with a pre-signed URL.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Param			request	body		createRequest	true	"Media details"
//	@Success		201		{object}	Media
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/media [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	m, err := h.svc.Create(r.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		Type:        Type(req.Type),
	})
	if err != nil {
		h.fail(w, r, err, "failed to create media")
		return
	}

	response.Created(w, m)
}

// List godoc
//
//	@Summary		List media
//	@Description	Return every media record, newest first.
//	@Tags			media
//	@Produce		json
//	@Success		200	{array}		Media
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/media [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "failed to fetch media list")
		return
	}
	response.OK(w, items)
}

// PresignedURL godoc
//
//	@Summary		Issue upload URL
//	@Description	Return a pre-signed PUT URL valid for one upload of fileName with Content-Type fileType.
//	@Tags			media
//	@Produce		json
//	@Param			fileName	query		string	true	"File name"	example(sunset.png)
//	@Param			fileType	query		string	true	"MIME type"	example(image/png)
//	@Success		200			{object}	PresignedUpload
//	@Failure		400			{object}	response.ErrorBody
//	@Failure		500			{object}	response.ErrorBody
//	@Router			/media/preSignedURL [get]
func (h *Handler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	up, err := h.svc.IssueUpload(r.Context(), q.Get("fileName"), q.Get("fileType"))
	if err != nil {
		h.fail(w, r, err, "failed to generate upload url")
		return
	}
	response.OK(w, up)
}

// Get godoc
//
//	@Summary		Get media
//	@Tags			media
//	@Produce		json
//	@Param			id	path		int	true	"Media ID"
//	@Success		200	{object}	Media
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/media/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "failed to fetch media")
		return
	}
	response.OK(w, m)
}

// Update godoc
//
//	@Summary		Update media
//	@Description	Change title, description and/or file URL. Omitted fields are kept.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Media ID"
//	@Param			request	body		updateRequest	true	"Fields to change"
//	@Success		200		{object}	response.MessageBody
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/media/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	err := h.svc.Update(r.Context(), id, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.URL,
	})
	if err != nil {
		h.fail(w, r, err, "failed to update media")
		return
	}
	response.Message(w, "media updated successfully")
}

// Delete godoc
//
//	@Summary		Delete media
//	@Description	Remove the stored object, then the record.
//	@Tags			media
//	@Produce		json
//	@Param			id	path		int	true	"Media ID"
//	@Success		200	{object}	response.MessageBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		409	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/media/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to delete media")
		return
	}
	response.Message(w, "media deleted successfully")
}

// Like godoc
//
//	@Summary	Like media
//	@Tags		media
//	@Produce	json
//	@Param		id	path		int	true	"Media ID"
//	@Success	200	{object}	response.MessageBody
//	@Failure	404	{object}	response.ErrorBody
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/media/{id}/like [post]
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Like(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to like media")
		return
	}
	response.Message(w, "media liked successfully")
}

// Unlike godoc
//
//	@Summary	Unlike media
//	@Tags		media
//	@Produce	json
//	@Param		id	path		int	true	"Media ID"
//	@Success	200	{object}	response.MessageBody
//	@Failure	400	{object}	response.ErrorBody
//	@Failure	404	{object}	response.ErrorBody
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/media/{id}/unlike [post]
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Unlike(r.Context(), id); err != nil {
		h.fail(w, r, err, "failed to unlike media")
		return
	}
	response.Message(w, "media unliked successfully")
}

// parseID reads the {id} path parameter. Ids that cannot exist are reported
// as not found, like any other id without a row.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(w, ErrNotFound.Error())
		return 0, false
	}
	return id, true
}

// fail maps service errors to status codes. Unexpected errors are logged and
// answered with fallback so no internals reach the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	log := zerolog.Ctx(r.Context())

	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, ErrNotFound.Error())
	case errors.Is(err, ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNoLikes):
		response.BadRequest(w, ErrNoLikes.Error())
	case errors.Is(err, ErrDataIntegrity):
		log.Error().Err(err).Msg("media record out of sync with storage")
		response.Conflict(w, ErrDataIntegrity.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		response.InternalError(w, fallback)
	}
}
