package group

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"chiaotu/internal/config"
	"chiaotu/internal/domain"
)

const (
	ManualSelectName = "手动选择"
	DirectMember     = "DIRECT"

	DefaultInterval = 3600
)

// Vendors get a selector each, with DIRECT offered ahead of the regions.
var Vendors = []string{"Google", "Microsoft", "Apple"}

type Options struct {
	Interval int
	TestURL  string
}

// Build buckets names by region and returns the selector groups followed by
// one url-test group per non-empty region, Other last. Member order follows
// the input order.
func Build(names []string, opts Options) []domain.Group {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	buckets := make(map[string][]string, len(Regions)+1)
	for _, name := range names {
		label, ok := Classify(name)
		if !ok {
			continue
		}
		buckets[label] = append(buckets[label], name)
	}

	labels := append(lo.Map(Regions, func(r Region, _ int) string { return r.Label }), OtherLabel)
	emitted := lo.Filter(labels, func(label string, _ int) bool {
		return len(buckets[label]) > 0
	})

	groups := make([]domain.Group, 0, 1+len(Vendors)+len(emitted))
	groups = append(groups, domain.Group{
		Name:    ManualSelectName,
		Kind:    domain.GroupSelect,
		Members: append([]string(nil), emitted...),
	})
	for _, vendor := range Vendors {
		groups = append(groups, domain.Group{
			Name:    vendor,
			Kind:    domain.GroupSelect,
			Members: append([]string{DirectMember}, emitted...),
		})
	}
	for _, label := range emitted {
		groups = append(groups, domain.Group{
			Name:     label,
			Kind:     domain.GroupURLTest,
			Members:  buckets[label],
			TestURL:  opts.TestURL,
			Interval: opts.Interval,
		})
	}
	return groups
}

// Builder builds groups with the configured health-check settings and
// reports group sizes.
type Builder struct {
	opts    Options
	logger  *zap.Logger
	metrics domain.MetricsCollector
}

func NewBuilder(cfg *config.Config, logger *zap.Logger, metrics domain.MetricsCollector) *Builder {
	return &Builder{
		opts: Options{
			Interval: cfg.Groups.IntervalSeconds,
			TestURL:  cfg.Groups.TestURL,
		},
		logger:  logger.With(zap.String("component", "group")),
		metrics: metrics,
	}
}

func (b *Builder) Build(names []string) []domain.Group {
	groups := Build(names, b.opts)
	for _, g := range groups {
		b.metrics.RecordGroup(g.Name, len(g.Members))
		if g.Kind == domain.GroupURLTest {
			b.logger.Info("region group built",
				zap.String("group", g.Name),
				zap.Int("members", len(g.Members)))
		}
	}
	return groups
}
