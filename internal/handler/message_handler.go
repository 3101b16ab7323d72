package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/req"
	"roomchat/internal/pkg/resp"
)

type SendMessageInput struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	// Type is "message" for a broadcast or "private_message" for a single recipient.
	Type string `json:"type" validate:"required"`
}

// HandleSendMessage stores a message from the requesting participant.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendMessageInput
		if customErr := req.BindAndValidate(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		msg, err := deps.Messages.Send(r.Context(), participantName(r), input.To, input.Text, store.MessageType(input.Type))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondCreated(w, r, msg)
	}
}

// HandleListMessages returns the latest messages visible to the requesting participant.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, customErr := req.Limit(r, "limit", deps.Config.DefaultMessageLimit)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, err := deps.Messages.List(r.Context(), participantName(r), limit)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		if messages == nil {
			messages = []store.Message{}
		}
		resp.RespondSuccess(w, r, messages)
	}
}

// HandleDeleteMessage deletes a message owned by the requesting participant.
func HandleDeleteMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Messages.Delete(r.Context(), id, participantName(r)); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
