//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/sevigo/stk-reviewer/internal/app"
)

// InitializeApp loads the configuration and wires every component of a run.
func InitializeApp() (*app.App, error) {
	wire.Build(AppSet)
	return nil, nil
}
