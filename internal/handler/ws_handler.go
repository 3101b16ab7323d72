/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which validates the participant,
upgrades the HTTP connection to WebSocket, and starts the client lifecycle on the feed hub.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"roomchat/internal/app/feed"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process live feed connection requests.
// The participant is taken from the user query parameter, falling back to the user header.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("user")
		if name == "" {
			name = participantName(r)
		}

		participant, err := deps.Presence.Find(r.Context(), name)
		if err != nil {
			logx.Info("WebSocket connection rejected: participant not in the room.", "participant", name)
			resp.RespondErr(w, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := feed.NewClient(deps.Hub, conn, participant.Name)

		if !deps.Hub.Register(client) {
			logx.Warn("WebSocket connection closed: feed is shutting down.", "participant", participant.Name)
			_ = conn.Close()
			return
		}

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "participant", participant.Name)

		client.ReadPump()
	}
}
