package interfaces

import (
	"context"
	"time"

	"chiaotu/internal/clash"
	"chiaotu/internal/domain"
	"chiaotu/internal/fetch"
	"chiaotu/internal/worker"
)

// SubscriptionStore defines the content root as seen by the pipeline
type SubscriptionStore interface {
	Cache(name string, body []byte) (string, error)
	LoadCache() ([]domain.Source, error)
	LoadRules() ([]string, error)
	LoadBaseTemplate() (*clash.Document, error)
	SaveResult(data []byte, now time.Time) (string, error)
}

// Downloader retrieves subscription bodies
type Downloader interface {
	FetchAll(ctx context.Context, urls []string, save func(fetch.Download) error) error
}

// LinkParser decodes share-link text into descriptors
type LinkParser interface {
	ParseText(body string) ([]domain.Proxy, int)
}

// GroupBuilder builds the proxy groups for a list of proxy names
type GroupBuilder interface {
	Build(names []string) []domain.Group
}

// WorkerPool decodes sources in parallel
type WorkerPool interface {
	Run(ctx context.Context, sources []domain.Source, decode worker.DecodeFunc) ([]worker.Result, error)
}
