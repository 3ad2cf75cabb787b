package pipeline

import (
	"go.uber.org/fx"

	"chiaotu/internal/fetch"
	"chiaotu/internal/group"
	"chiaotu/internal/interfaces"
	"chiaotu/internal/link"
	"chiaotu/internal/store"
	"chiaotu/internal/worker"
)

var Module = fx.Options(
	fx.Provide(
		func(s *store.Store) interfaces.SubscriptionStore { return s },
		func(f *fetch.Fetcher) interfaces.Downloader { return f },
		func(p *link.Parser) interfaces.LinkParser { return p },
		func(b *group.Builder) interfaces.GroupBuilder { return b },
		func(p *worker.Pool) interfaces.WorkerPool { return p },
	),
	fx.Provide(NewService),
)
