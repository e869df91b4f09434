// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/sieve/internal/adapters/cas"
	_ "go.trai.ch/sieve/internal/adapters/config"
	_ "go.trai.ch/sieve/internal/adapters/fs"
	_ "go.trai.ch/sieve/internal/adapters/index"
	_ "go.trai.ch/sieve/internal/adapters/logger"
	_ "go.trai.ch/sieve/internal/adapters/parsers"
	_ "go.trai.ch/sieve/internal/adapters/scanners"
	_ "go.trai.ch/sieve/internal/adapters/telemetry"
	_ "go.trai.ch/sieve/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/sieve/internal/app"
)
