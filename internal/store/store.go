// Package store manages the content root: cached subscription bodies, the
// base template, rule files and merge results.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"chiaotu/internal/clash"
	"chiaotu/internal/config"
	"chiaotu/internal/domain"
)

const (
	cacheExt         = ".yml"
	resourcesDir     = "resources"
	rulesDir         = "resources/rules"
	baseTemplateFile = "resources/templates/default.yml"
	resultTimeLayout = "2006-01-02-15-04-05"
)

type Store struct {
	root       string
	resultsDir string
	outputFile string
	zone       *time.Location
	logger     *zap.Logger
}

// NewStore opens the content root and extracts the bundled resources that
// are missing from it.
func NewStore(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	s := &Store{
		root:       cfg.ContentRoot,
		resultsDir: cfg.ResultsDir(),
		outputFile: cfg.OutputFile,
		zone:       time.FixedZone(fmt.Sprintf("UTC%+d", cfg.ResultUTCOffsetHours), cfg.ResultUTCOffsetHours*3600),
		logger:     logger.With(zap.String("component", "store")),
	}
	if err := s.ExtractResources(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Root() string {
	return s.root
}

// CacheName reduces a downloaded file name to a safe vendor name: directory
// parts and the extension are dropped.
func CacheName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("invalid cache name %q", name)
	}
	return base, nil
}

// Cache stores a subscription body as <root>/<vendor>.yml, replacing any
// previous body of the same vendor. It returns the written path.
func (s *Store) Cache(name string, body []byte) (string, error) {
	vendor, err := CacheName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.root, vendor+cacheExt)
	if err := writeFile(path, body); err != nil {
		return "", fmt.Errorf("failed to cache %s: %w", vendor, err)
	}
	s.logger.Info("subscription cached",
		zap.String("vendor", vendor),
		zap.String("path", path),
		zap.Int("bytes", len(body)))
	return path, nil
}

// LoadCache returns every cached body sorted by vendor name.
func (s *Store) LoadCache() ([]domain.Source, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list content root: %w", err)
	}

	var sources []domain.Source
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != cacheExt {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached subscription: %w", err)
		}
		sources = append(sources, domain.Source{
			Vendor: strings.TrimSuffix(entry.Name(), cacheExt),
			Path:   path,
			Body:   body,
		})
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Vendor < sources[j].Vendor
	})
	return sources, nil
}

// LoadRules concatenates the rules lists of every rule file, in file name
// order.
func (s *Store) LoadRules() ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(rulesDir))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var rules []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read rules: %w", err)
		}
		doc, err := clash.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("rule file %s: %w", entry.Name(), err)
		}
		rules = append(rules, doc.Rules...)
	}
	return rules, nil
}

// LoadBaseTemplate reads the document the merge result is written into.
func (s *Store) LoadBaseTemplate() (*clash.Document, error) {
	path := filepath.Join(s.root, filepath.FromSlash(baseTemplateFile))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("default template not found at %s: %w", path, err)
	}
	return clash.Decode(data)
}

// SaveResult writes data to results/<timestamp>.yaml, stamped in the
// configured UTC offset, and to the output file. It returns the timestamped
// path.
func (s *Store) SaveResult(data []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(s.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	path := filepath.Join(s.resultsDir, now.In(s.zone).Format(resultTimeLayout)+".yaml")
	if err := writeFile(path, data); err != nil {
		return "", fmt.Errorf("failed to save result: %w", err)
	}
	if err := writeFile(s.outputFile, data); err != nil {
		return "", fmt.Errorf("failed to save output file: %w", err)
	}

	s.logger.Info("result saved",
		zap.String("path", path),
		zap.String("output", s.outputFile))
	return path, nil
}

// writeFile replaces path through a temporary file so readers never see a
// partial document.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
