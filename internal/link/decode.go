package link

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// Base64Strategy is one alphabet/padding combination tried when decoding.
type Base64Strategy struct {
	Name     string
	Encoding *base64.Encoding
}

var (
	StdStrategy    = Base64Strategy{Name: "std", Encoding: base64.StdEncoding}
	URLStrategy    = Base64Strategy{Name: "url", Encoding: base64.URLEncoding}
	RawStdStrategy = Base64Strategy{Name: "raw-std", Encoding: base64.RawStdEncoding}
	RawURLStrategy = Base64Strategy{Name: "raw-url", Encoding: base64.RawURLEncoding}
)

// DecodeBase64 tries the strategies in order and returns the first
// successful decoding. The order is part of each caller's contract.
func DecodeBase64(s string, strategies ...Base64Strategy) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty base64 input")
	}

	var errs error
	for _, st := range strategies {
		decoded, err := st.Encoding.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", st.Name, err))
	}
	if errs == nil {
		return nil, errors.New("no base64 strategy given")
	}
	return nil, errs
}

// DecodeBase64Text is DecodeBase64 followed by a UTF-8 check.
func DecodeBase64Text(s string, strategies ...Base64Strategy) (string, error) {
	decoded, err := DecodeBase64(s, strategies...)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("decoded bytes are not valid UTF-8")
	}
	return string(decoded), nil
}

// Unescape percent-decodes s, returning s unchanged when it is not a valid
// escape sequence.
func Unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// SplitHostPort splits at the last colon. Brackets are not interpreted, so an
// IPv6 literal keeps everything before its final colon as the host.
func SplitHostPort(s string) (host, port string, err error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return "", "", fmt.Errorf("missing port in %q", s)
	}
	return s[:idx], s[idx+1:], nil
}

// ParsePort parses a decimal port. Zero is accepted here and rejected by
// descriptor validation.
func ParsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return uint16(port), nil
}

// QueryPair is one key/value token of a share-link query string.
type QueryPair struct {
	Key   string
	Value string
}

// ParseQuery tokenizes on '&' and splits every token once on the first '='.
// Values are percent-decoded best effort; a key without '=' has an empty
// value.
func ParseQuery(s string) []QueryPair {
	if s == "" {
		return nil
	}

	pairs := make([]QueryPair, 0, strings.Count(s, "&")+1)
	for _, token := range strings.Split(s, "&") {
		if token == "" {
			continue
		}
		key, value, _ := strings.Cut(token, "=")
		pairs = append(pairs, QueryPair{Key: key, Value: Unescape(value)})
	}
	return pairs
}

func queryMap(pairs []QueryPair) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}

// credentialLink is the common shape of trojan:// and vless:// links:
// credential@host:port[?query][#remarks].
type credentialLink struct {
	Credential string
	Host       string
	Port       uint16
	Query      []QueryPair
	Remarks    string
}

func splitCredentialLink(rest string) (credentialLink, string, error) {
	credential, serverPart, found := strings.Cut(rest, "@")
	if !found {
		return credentialLink{}, "format", errors.New("missing '@' separator")
	}

	var l credentialLink
	serverPart, fragment, hasFragment := strings.Cut(serverPart, "#")
	if hasFragment {
		l.Remarks = Unescape(fragment)
	}

	hostPort, query, _ := strings.Cut(serverPart, "?")
	hostPort = strings.TrimSuffix(hostPort, "/")

	host, portStr, err := SplitHostPort(hostPort)
	if err != nil {
		return credentialLink{}, "host", err
	}
	port, err := ParsePort(portStr)
	if err != nil {
		return credentialLink{}, "port", err
	}

	l.Credential = strings.TrimSpace(credential)
	l.Host = host
	l.Port = port
	l.Query = ParseQuery(query)
	return l, "", nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func fallbackName(host string, port uint16) string {
	return host + ":" + strconv.Itoa(int(port))
}
