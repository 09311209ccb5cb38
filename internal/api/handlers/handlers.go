// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"github.com/fluffyriot/statsync/internal/config"
	"github.com/fluffyriot/statsync/internal/fetcher"
	"github.com/fluffyriot/statsync/internal/store"
	"github.com/fluffyriot/statsync/internal/worker"
)

type Handler struct {
	Store   *store.Store
	Fetcher *fetcher.Client
	Config  *config.AppConfig
	Worker  *worker.Worker
}

func NewHandler(st *store.Store, clientFetch *fetcher.Client, cfg *config.AppConfig, w *worker.Worker) *Handler {
	return &Handler{
		Store:   st,
		Fetcher: clientFetch,
		Config:  cfg,
		Worker:  w,
	}
}
