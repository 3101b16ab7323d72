package handler

import (
	"net/http"

	"github.com/samber/lo"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/req"
	"roomchat/internal/pkg/resp"
)

type JoinInput struct {
	Name string `json:"name" validate:"required"`
}

// ParticipantView is the wire form of a participant. LastStatus is in Unix milliseconds.
type ParticipantView struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

func toParticipantView(p store.Participant, _ int) ParticipantView {
	return ParticipantView{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()}
}

// HandleJoin admits a participant to the room.
func HandleJoin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input JoinInput
		if customErr := req.BindAndValidate(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		participant, err := deps.Presence.Join(r.Context(), input.Name)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondCreated(w, r, toParticipantView(participant, 0))
	}
}

// HandleListParticipants returns everyone currently in the room.
func HandleListParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, err := deps.Presence.ListParticipants(r.Context())
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, lo.Map(participants, toParticipantView))
	}
}

// HandleLeave removes the requesting participant from the room.
func HandleLeave(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Presence.Leave(r.Context(), participantName(r)); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleHeartbeat refreshes the requesting participant's liveness.
func HandleHeartbeat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Presence.Heartbeat(r.Context(), participantName(r)); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
