package handler

import (
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/service"
)

type CommuteHandler struct {
	commuteService *service.CommuteService
	now            func() time.Time
}

func NewCommuteHandler(commuteService *service.CommuteService) *CommuteHandler {
	return &CommuteHandler{
		commuteService: commuteService,
		now:            time.Now,
	}
}

func (h *CommuteHandler) Current(w http.ResponseWriter, r *http.Request) {
	logs, err := h.commuteService.Current(ctxkeys.SubjectID(r.Context()), h.now())
	if err != nil {
		writeError(w, r, err, "Failed to load this week's commutes")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(logs))
}

func (h *CommuteHandler) History(w http.ResponseWriter, r *http.Request) {
	logs, err := h.commuteService.History(ctxkeys.SubjectID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load commute history")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(logs))
}

func (h *CommuteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CommuteLogInput
	if !decodeJSON(w, r, &req) {
		return
	}

	log, err := h.commuteService.Log(r.Context(), ctxkeys.SubjectID(r.Context()), req, h.now())
	if err != nil {
		writeError(w, r, err, "Failed to log commute")
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

func (h *CommuteHandler) Export(w http.ResponseWriter, r *http.Request) {
	url, err := h.commuteService.Export(r.Context(), ctxkeys.SubjectID(r.Context()), h.now())
	if err != nil {
		writeError(w, r, err, "Failed to export commutes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
