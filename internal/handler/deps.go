package handler

import (
	"roomchat/internal/app/chat"
	"roomchat/internal/app/feed"
	"roomchat/internal/configs"
)

type AppDeps struct {
	Presence *chat.Presence
	Messages *chat.Messages
	Hub      *feed.Hub
	Config   *configs.AppConfig
}
