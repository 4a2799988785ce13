package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"github.com/zeusync/plantit/internal/core/snapshot"
	"github.com/zeusync/plantit/pkg/encoding"
)

const fileMode = 0o644

// Gateway saves stores to snapshot files and loads them back.
type Gateway struct {
	writer *snapshot.Writer
	reader *snapshot.Reader
	logger log.Log

	codec  encoding.Codec
	indent int
}

type Option func(*Gateway)

// WithCodec forces one codec for every path instead of choosing by extension.
func WithCodec(codec encoding.Codec) Option {
	return func(g *Gateway) {
		g.codec = codec
	}
}

// WithIndent sets the indent used by codecs chosen by extension.
func WithIndent(indent int) Option {
	return func(g *Gateway) {
		g.indent = indent
	}
}

// NewGateway creates a gateway around a snapshot writer and reader.
func NewGateway(writer *snapshot.Writer, reader *snapshot.Reader, logger log.Log, opts ...Option) *Gateway {
	if logger == nil {
		logger = log.NewNop()
	}
	g := &Gateway{
		writer: writer,
		reader: reader,
		logger: logger,
		indent: 2,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) codecFor(path string) encoding.Codec {
	if g.codec != nil {
		return g.codec
	}
	return encoding.ForPath(path, g.indent)
}

// Save writes a snapshot of store to path. The file is written to a temporary
// sibling and renamed into place, so readers see either the old or the new
// snapshot, never a partial one.
func (g *Gateway) Save(_ context.Context, store *ecs.Store, path string) error {
	started := time.Now()

	doc, err := g.writer.Write(store)
	if err != nil {
		return err
	}
	codec := g.codecFor(path)
	data, err := snapshot.Encode(codec, doc)
	if err != nil {
		return err
	}
	if err = g.writeAtomic(path, data); err != nil {
		g.logger.Error("snapshot save failed", log.String("path", path), log.Error(err))
		return err
	}

	g.logger.Debug("snapshot saved",
		log.String("path", path),
		log.String("codec", codec.Name()),
		log.Int("entities", len(doc.Entities)),
		log.Int("bytes", len(data)),
		log.Duration("took", time.Since(started)),
	)
	return nil
}

// Load replaces the contents of store with the snapshot at path.
// On any error store is left unchanged.
func (g *Gateway) Load(ctx context.Context, store *ecs.Store, path string) (snapshot.Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot.Stats{}, fmt.Errorf("read %s: %w: %w", path, ErrIO, err)
	}
	return g.load(ctx, store, path, data)
}

// LoadIfExists loads the snapshot at path when the file exists. A missing
// file is the empty-store signal: store is left unchanged and false is
// returned without error.
func (g *Gateway) LoadIfExists(ctx context.Context, store *ecs.Store, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		g.logger.Info("no snapshot found, starting empty", log.String("path", path))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w: %w", path, ErrIO, err)
	}
	if _, err = g.load(ctx, store, path, data); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gateway) load(ctx context.Context, store *ecs.Store, path string, data []byte) (snapshot.Stats, error) {
	codec := g.codecFor(path)
	doc, err := snapshot.Parse(codec, data)
	if err != nil {
		g.logger.Error("snapshot parse failed", log.String("path", path), log.Error(err))
		return snapshot.Stats{}, fmt.Errorf("load %s: %w", path, err)
	}

	stats, err := g.reader.Read(ctx, doc, store)
	if err != nil {
		g.logger.Error("snapshot load failed", log.String("path", path), log.Error(err))
		return snapshot.Stats{}, fmt.Errorf("load %s: %w", path, err)
	}

	g.logger.Info("snapshot loaded",
		log.String("path", path),
		log.String("codec", codec.Name()),
		log.Int("entities", stats.Entities),
		log.Int("components", stats.Components),
		log.Int("migrated", stats.MigratedTotal()),
	)
	for tag, byVersion := range stats.Migrated {
		for version, count := range byVersion {
			g.logger.Info("component records migrated",
				log.String("component", tag),
				log.Int("from_version", version),
				log.Int("records", count),
			)
		}
	}
	return stats, nil
}

func (g *Gateway) writeAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", tmp, ErrIO, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w: %w", tmp, ErrIO, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w: %w", tmp, ErrIO, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", tmp, ErrIO, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w: %w", path, ErrIO, err)
	}
	return nil
}
