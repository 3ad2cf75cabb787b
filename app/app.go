package app

import (
	"go.uber.org/fx"

	"chiaotu/internal/fetch"
	"chiaotu/internal/group"
	"chiaotu/internal/link"
	"chiaotu/internal/metrics"
	"chiaotu/internal/pipeline"
	"chiaotu/internal/store"
	"chiaotu/internal/worker"
)

// Modules are the application modules, except the config module, which
// callers add or replace with a supplied config.
var Modules = fx.Options(
	metrics.Module,
	store.Module,
	link.Module,
	group.Module,
	worker.Module,
	fetch.Module,
	pipeline.Module,
)
