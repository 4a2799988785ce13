package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/plantit/internal/app"
	"github.com/zeusync/plantit/internal/config"
	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"github.com/zeusync/plantit/internal/core/schema/registry"
	"github.com/zeusync/plantit/internal/core/snapshot"
	"github.com/zeusync/plantit/internal/core/storage"
	"github.com/zeusync/plantit/internal/plant"
)

// ProviderSet wires the store, the snapshot stack and the plant shell.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	registry.New,
	ecs.NewStore,
	plant.Register,
	ProvideWriter,
	ProvideReader,
	ProvideGateway,
	ProvideService,
	app.New,
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger, err := log.New(level,
		log.WithEncoding(cfg.Log.Encoding),
		log.WithOutputPaths(cfg.Log.OutputPaths...),
	)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideWriter(reg *registry.Registry, cfg *config.Config) *snapshot.Writer {
	return snapshot.NewWriter(reg, snapshot.WithChecksum(cfg.Snapshot.WriteChecksum))
}

func ProvideReader(reg *registry.Registry, cfg *config.Config) *snapshot.Reader {
	return snapshot.NewReader(reg,
		snapshot.WithDecodeWorkers(cfg.Snapshot.DecodeWorkers),
		snapshot.WithChecksumVerification(cfg.Snapshot.VerifyChecksum),
	)
}

func ProvideGateway(writer *snapshot.Writer, reader *snapshot.Reader, logger log.Log, cfg *config.Config) *storage.Gateway {
	return storage.NewGateway(writer, reader, logger, storage.WithIndent(cfg.Snapshot.Indent))
}

func ProvideService(store *ecs.Store, plants *ecs.Pool[plant.Plant], gateway *storage.Gateway, logger log.Log, cfg *config.Config) *plant.Service {
	return plant.NewService(store, plants, gateway, cfg.DataPath, plant.WithLogger(logger))
}
