package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chiaotu/internal/config"
	"chiaotu/internal/domain"
	"chiaotu/internal/mocks"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		wantLabel string
		wantOK    bool
	}{
		{name: "香港 01", wantLabel: "Hong Kong", wantOK: true},
		{name: "HK-IPLC", wantLabel: "Hong Kong", wantOK: true},
		{name: "日本 香港 中转", wantLabel: "Hong Kong", wantOK: true},
		{name: "JP to HK", wantLabel: "Hong Kong", wantOK: true},
		{name: "德国 日本", wantLabel: "Germany", wantOK: true},
		{name: "新加坡", wantLabel: "Singapore", wantOK: true},
		{name: "美国 剩余流量", wantLabel: "US", wantOK: true},
		{name: "UK London", wantLabel: "UK", wantOK: true},
		{name: "剩余流量：10GB", wantOK: false},
		{name: "套餐到期：2025-01-01", wantOK: false},
		{name: "Mars 01", wantLabel: OtherLabel, wantOK: true},
		{name: "hk lowercase", wantLabel: OtherLabel, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := Classify(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		label, _ := Classify("日本 香港")
		require.Equal(t, "Hong Kong", label)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		opts     Options
		validate func(*testing.T, []domain.Group)
	}{
		{
			name:  "selectors then non-empty regions",
			names: []string{"美国 01", "香港 01", "Mars", "剩余流量：1GB", "香港 02"},
			opts:  Options{Interval: 600, TestURL: "http://www.gstatic.com/generate_204"},
			validate: func(t *testing.T, groups []domain.Group) {
				require.Len(t, groups, 7)

				assert.Equal(t, ManualSelectName, groups[0].Name)
				assert.Equal(t, domain.GroupSelect, groups[0].Kind)
				assert.Equal(t, []string{"Hong Kong", "US", "Other"}, groups[0].Members)
				assert.Zero(t, groups[0].Interval)
				assert.Empty(t, groups[0].TestURL)

				for i, vendor := range Vendors {
					g := groups[1+i]
					assert.Equal(t, vendor, g.Name)
					assert.Equal(t, domain.GroupSelect, g.Kind)
					assert.Equal(t, []string{"DIRECT", "Hong Kong", "US", "Other"}, g.Members)
				}

				hk := groups[4]
				assert.Equal(t, "Hong Kong", hk.Name)
				assert.Equal(t, domain.GroupURLTest, hk.Kind)
				assert.Equal(t, []string{"香港 01", "香港 02"}, hk.Members)
				assert.Equal(t, 600, hk.Interval)
				assert.Equal(t, "http://www.gstatic.com/generate_204", hk.TestURL)

				assert.Equal(t, "US", groups[5].Name)
				assert.Equal(t, "Other", groups[6].Name)
				assert.Equal(t, []string{"Mars"}, groups[6].Members)
			},
		},
		{
			name:  "default interval",
			names: []string{"JP 1"},
			validate: func(t *testing.T, groups []domain.Group) {
				require.Len(t, groups, 5)
				assert.Equal(t, DefaultInterval, groups[4].Interval)
			},
		},
		{
			name:  "no proxies",
			names: nil,
			validate: func(t *testing.T, groups []domain.Group) {
				require.Len(t, groups, 4)
				assert.Empty(t, groups[0].Members)
				assert.Equal(t, []string{"DIRECT"}, groups[1].Members)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Build(tt.names, tt.opts))
		})
	}
}

func TestBuilder_RecordsGroupSizes(t *testing.T) {
	cfg := &config.Config{Groups: config.GroupsConfig{IntervalSeconds: 120, TestURL: "http://example.com"}}

	metrics := mocks.NewMetricsCollector(t)
	metrics.On("RecordGroup", ManualSelectName, 1).Once()
	for _, vendor := range Vendors {
		metrics.On("RecordGroup", vendor, 2).Once()
	}
	metrics.On("RecordGroup", "Taiwan", 1).Once()

	groups := NewBuilder(cfg, zap.NewNop(), metrics).Build([]string{"台湾 01"})
	require.Len(t, groups, 5)
	assert.Equal(t, 120, groups[4].Interval)
}
