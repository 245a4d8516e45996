package main

import (
	"fmt"

	"github.com/ospect/amosheets/internal/amocrm"
	"github.com/ospect/amosheets/internal/config"
	"github.com/ospect/amosheets/internal/engine"
	"github.com/ospect/amosheets/internal/server"
	"github.com/ospect/amosheets/internal/sheets"
)

// bridge bundles the wired components every command starts from.
type bridge struct {
	cfg    *config.Config
	store  *sheets.Client
	crm    *amocrm.Client
	pusher *engine.Pusher
	puller *engine.Puller
	auth   *sheets.Authorizer
	server *server.Server
}

// buildBridge loads the configuration and wires the backends together.
// The sheets service itself is created lazily, so this succeeds even
// before OAuth has ever been completed.
func buildBridge() (*bridge, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := sheets.NewClient(cfg.Sheets, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	crm := amocrm.NewClient(cfg.Amo, nil, nil)
	committer := engine.NewCommitter(store, cfg.UpdateChunkSize, cfg.AppendChunkSize)
	pusher := engine.NewPusher(store, crm)
	puller := engine.NewPuller(store, crm, committer, cfg.Amo.PipelineID)
	auth := sheets.NewAuthorizer(cfg.Sheets, store)

	return &bridge{
		cfg:    cfg,
		store:  store,
		crm:    crm,
		pusher: pusher,
		puller: puller,
		auth:   auth,
		server: server.New(pusher, puller, store, auth, nil),
	}, nil
}
