// Package pipeline runs the two modes of the tool: downloading subscriptions
// into the cache and merging the cache into one Clash document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"chiaotu/internal/clash"
	"chiaotu/internal/domain"
	"chiaotu/internal/fetch"
	"chiaotu/internal/interfaces"
	"chiaotu/internal/link"
	"chiaotu/internal/merge"
)

var ErrNoSources = errors.New("no cached subscriptions, run with a URL list first")

type Service struct {
	store   interfaces.SubscriptionStore
	fetcher interfaces.Downloader
	parser  interfaces.LinkParser
	groups  interfaces.GroupBuilder
	pool    interfaces.WorkerPool
	metrics domain.MetricsCollector
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(
	store interfaces.SubscriptionStore,
	fetcher interfaces.Downloader,
	parser interfaces.LinkParser,
	groups interfaces.GroupBuilder,
	pool interfaces.WorkerPool,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		parser:  parser,
		groups:  groups,
		pool:    pool,
		metrics: metrics,
		logger:  logger.With(zap.String("component", "pipeline")),
		now:     time.Now,
	}
}

// Download fetches every URL listed in urlsFile, one per line, and caches
// the bodies. Blank lines are skipped.
func (s *Service) Download(ctx context.Context, urlsFile string) error {
	data, err := os.ReadFile(urlsFile)
	if err != nil {
		return fmt.Errorf("failed to read url list: %w", err)
	}
	urls := link.SplitLines(string(data))
	if len(urls) == 0 {
		return fmt.Errorf("url list %s is empty", urlsFile)
	}

	s.logger.Info("downloading subscriptions", zap.Int("urls", len(urls)))
	return s.fetcher.FetchAll(ctx, urls, func(dl fetch.Download) error {
		_, err := s.store.Cache(dl.Name, dl.Body)
		return err
	})
}

// Merge decodes every cached subscription, tags proxy names with their
// vendor, removes duplicates, builds the region groups and writes the result
// over the base template. It returns the timestamped result path.
func (s *Service) Merge(ctx context.Context) (string, error) {
	sources, err := s.store.LoadCache()
	if err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", ErrNoSources
	}

	results, err := s.pool.Run(ctx, sources, s.decodeSource)
	if err != nil {
		return "", fmt.Errorf("decoding subscriptions: %w", err)
	}

	batches := make([][]clash.Proxy, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn("skipping subscription", zap.String("vendor", r.Source.Vendor), zap.Error(r.Err))
			continue
		}
		vendor := r.Source.Vendor
		batches = append(batches, lo.Map(r.Proxies, func(p clash.Proxy, _ int) clash.Proxy {
			return p.Renamed(merge.VendorSuffix(p.Name, vendor))
		}))
		s.metrics.RecordSource(vendor, len(r.Proxies))
		s.logger.Info("subscription decoded",
			zap.String("vendor", vendor),
			zap.Int("proxies", len(r.Proxies)))
	}

	total := lo.SumBy(batches, func(b []clash.Proxy) int { return len(b) })
	proxies := merge.Merge(batches, clash.Proxy.Key)
	s.metrics.RecordMerge(total, len(proxies))

	rules, err := s.store.LoadRules()
	if err != nil {
		return "", err
	}
	doc, err := s.store.LoadBaseTemplate()
	if err != nil {
		return "", err
	}

	names := lo.Map(proxies, func(p clash.Proxy, _ int) string { return p.Name })
	doc.Proxies = proxies
	doc.ProxyGroups = clash.GroupsFromDomain(s.groups.Build(names))
	doc.Rules = rules

	data, err := doc.Encode()
	if err != nil {
		return "", err
	}
	path, err := s.store.SaveResult(data, s.now())
	if err != nil {
		return "", err
	}

	s.logger.Info("merge complete",
		zap.Int("proxies", len(proxies)),
		zap.Int("duplicates", total-len(proxies)),
		zap.Int("groups", len(doc.ProxyGroups)),
		zap.Int("rules", len(rules)))
	return path, nil
}

// decodeSource reads a cached body either as a Clash document, whose
// proxies pass through as they are, or as a share-link list.
func (s *Service) decodeSource(_ context.Context, src domain.Source) ([]clash.Proxy, error) {
	if proxies, err := clash.DecodeProxies(src.Body); err == nil {
		return proxies, nil
	}

	descriptors, dropped := s.parser.ParseText(string(src.Body))
	if len(descriptors) == 0 && dropped > 0 {
		return nil, fmt.Errorf("none of %d lines could be decoded", dropped)
	}

	descriptors = merge.Proxies(descriptors)
	proxies := make([]clash.Proxy, 0, len(descriptors))
	for _, d := range descriptors {
		p, err := clash.FromDescriptor(d)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, p)
	}
	return proxies, nil
}
