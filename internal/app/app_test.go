package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"github.com/zeusync/plantit/internal/core/schema/registry"
	"github.com/zeusync/plantit/internal/core/snapshot"
	"github.com/zeusync/plantit/internal/core/storage"
	"github.com/zeusync/plantit/internal/plant"
)

func newApp(t *testing.T, path, script string) (*App, *bytes.Buffer) {
	t.Helper()
	reg := registry.New()
	store := ecs.NewStore()
	plants, err := plant.Register(reg, store)
	require.NoError(t, err)

	gateway := storage.NewGateway(snapshot.NewWriter(reg, snapshot.WithChecksum(true)), snapshot.NewReader(reg), nil)
	clock := func() time.Time { return time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC) }
	service := plant.NewService(store, plants, gateway, path, plant.WithClock(clock))

	out := &bytes.Buffer{}
	return New(service, gateway, store, log.NewNop(), strings.NewReader(script), out), out
}

func TestShellSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plants.json")

	a, out := newApp(t, path, strings.Join([]string{
		"add steve big ficus",
		"add bob",
		"water steve",
		"info steve",
		"list -a",
		"delete bob",
		"quit",
		"add never",
	}, "\n"))
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Run(ctx))

	text := out.String()
	require.Contains(t, text, "You have (0) plants")
	require.Contains(t, text, "added steve")
	require.Contains(t, text, "watered steve at 22:13:20 GMT 14/11/2023")
	require.Contains(t, text, "Description: big ficus")
	require.Contains(t, text, "Description: (Empty)")
	require.Contains(t, text, "Plant has never been watered!")
	require.Contains(t, text, "Watered: 1 times")
	require.Contains(t, text, "deleted 1 plant(s) named bob")
	require.NotContains(t, text, "added never")

	reloaded, out := newApp(t, path, "list -a\n")
	require.NoError(t, reloaded.Start(ctx))
	require.NoError(t, reloaded.Run(ctx))
	require.Contains(t, out.String(), "You have (1) plants")
	require.Contains(t, out.String(), "~~~~~ steve ~~~~~")
	require.NotContains(t, out.String(), "bob")
}

func TestShellErrorsKeepRunning(t *testing.T) {
	ctx := context.Background()
	a, out := newApp(t, filepath.Join(t.TempDir(), "plants.json"), "fly\ninfo ghost\nlist\nadd\n\nlist -a\n")
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Run(ctx))

	text := out.String()
	require.Contains(t, text, `unknown command "fly"`)
	require.Contains(t, text, "plant not found")
	require.Contains(t, text, "usage: list -a")
	require.Contains(t, text, "usage: add <key>")
	require.Contains(t, text, "no plants")
}

func TestShellLoadCommand(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plants.yaml")

	a, out := newApp(t, path, "load\nadd fern\nadd fern\nsave\nload\n")
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Run(ctx))
	require.Contains(t, out.String(), "no snapshot at "+path)
	require.Contains(t, out.String(), "You have (2) plants")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "key: fern")
}

func TestStartRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	a, _ := newApp(t, path, "")
	err := a.Start(context.Background())
	require.ErrorIs(t, err, snapshot.ErrMalformedDocument)
}

func TestExecuteQuit(t *testing.T) {
	a, _ := newApp(t, filepath.Join(t.TempDir(), "plants.json"), "")
	for _, line := range []string{"quit", "  exit  "} {
		quit, err := a.Execute(context.Background(), line)
		require.NoError(t, err)
		require.True(t, quit)
	}
}
