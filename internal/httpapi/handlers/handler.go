package handlers

import (
	"github.com/voxlink/slackbridge/internal/bridge"
)

type Handler struct {
	Bridge *bridge.Service
}

func NewHandler(b *bridge.Service) *Handler {
	return &Handler{Bridge: b}
}
