package handler

import (
	"swapyard/internal/app/realtime"
	"swapyard/internal/app/storage"
	"swapyard/internal/app/store"
	"swapyard/internal/configs"
)

// AppDeps bundles the shared dependencies injected into every handler.
type AppDeps struct {
	Hub            *realtime.Hub
	Config         *configs.AppConfig
	Store          *store.Store
	StorageService storage.StorageService
}
