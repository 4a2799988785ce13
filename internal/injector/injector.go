//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"io"

	"github.com/google/wire"
	"github.com/zeusync/plantit/internal/app"
	"github.com/zeusync/plantit/internal/config"
)

func InitializeApp(cfg *config.Config, in io.Reader, out io.Writer) (*app.App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
