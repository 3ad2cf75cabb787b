package link

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"chiaotu/internal/domain"
)

// Classify reports which protocol family a line claims to be. Any line that
// mentions vmess, in any case, is reported as vmess.
func Classify(line string) domain.ProtocolTag {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, vmessScheme),
		strings.Contains(strings.ToLower(line), "vmess"):
		return domain.ProtocolVmess
	case strings.HasPrefix(line, ssScheme):
		return domain.ProtocolShadowsocks
	case strings.HasPrefix(line, trojanScheme):
		return domain.ProtocolTrojan
	case strings.HasPrefix(line, vlessScheme):
		return domain.ProtocolVless
	default:
		return domain.ProtocolUnrecognized
	}
}

type decoder func(string) (domain.Proxy, error)

// Parse decodes a single share link. Decoders are tried in a fixed order and
// the first success wins. Lines no decoder accepts yield an error wrapping
// ErrUnrecognized.
func Parse(line string) (domain.Proxy, error) {
	line = strings.TrimSpace(line)

	decoders := []decoder{decodeShadowsocks, decodeTrojan, decodeVless}
	if Classify(line) == domain.ProtocolVmess {
		decoders = append([]decoder{decodeVmess}, decoders...)
	}

	var errs error
	for _, decode := range decoders {
		proxy, err := decode(line)
		if err == nil {
			return proxy, nil
		}
		if !errors.Is(err, errSchemeMismatch) {
			errs = multierr.Append(errs, err)
		}
	}
	if errs == nil {
		return domain.Proxy{}, ErrUnrecognized
	}
	return domain.Proxy{}, fmt.Errorf("%w: %w", ErrUnrecognized, errs)
}

// SplitLines returns the trimmed, non-empty lines of text.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodeSubscription unwraps a base64 encoded link list. Bodies that are not
// base64 text are returned unchanged.
func DecodeSubscription(body string) string {
	compact := stripWhitespace(body)
	if compact == "" {
		return body
	}
	text, err := DecodeBase64Text(compact, StdStrategy, URLStrategy, RawStdStrategy, RawURLStrategy)
	if err != nil {
		return body
	}
	return text
}

// Parser decodes batches of share links, dropping the lines it cannot
// decode.
type Parser struct {
	logger  *zap.Logger
	metrics domain.MetricsCollector
}

func NewParser(logger *zap.Logger, metrics domain.MetricsCollector) *Parser {
	return &Parser{
		logger:  logger.With(zap.String("component", "link")),
		metrics: metrics,
	}
}

// ParseLines decodes every line in order. It returns the decoded proxies and
// the number of dropped lines.
func (p *Parser) ParseLines(lines []string) ([]domain.Proxy, int) {
	proxies := make([]domain.Proxy, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		proxy, err := Parse(line)
		if err != nil {
			dropped++
			p.metrics.RecordLineDropped(Classify(line))
			p.logger.Debug("dropping share link",
				zap.String("protocol", string(Classify(line))),
				zap.Error(err))
			continue
		}
		p.metrics.RecordLineDecoded(proxy.Protocol())
		proxies = append(proxies, proxy)
	}
	return proxies, dropped
}

// ParseText decodes a subscription body, base64 wrapped or plain.
func (p *Parser) ParseText(body string) ([]domain.Proxy, int) {
	return p.ParseLines(SplitLines(DecodeSubscription(body)))
}
