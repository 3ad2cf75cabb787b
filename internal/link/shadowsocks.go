package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"chiaotu/internal/domain"
)

const ssScheme = "ss://"

// A known producer writes a percent-encoded flag and city name where the port
// belongs. That exact token always stands for this port.
const (
	malformedPortToken = "%F0%9F%87%B0%E9%A6%99%E6%B8%AF"
	malformedPortValue = 25451
)

type ssUserinfo struct {
	method       string
	password     string
	authProtocol string
	obfs         string
	obfsParam    string
}

func decodeShadowsocks(line string) (domain.Proxy, error) {
	rest, ok := strings.CutPrefix(line, ssScheme)
	if !ok {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "scheme", errSchemeMismatch)
	}

	userinfo, serverPart, found := strings.Cut(rest, "@")
	if !found {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "format", errors.New("missing '@' separator"))
	}

	var (
		info ssUserinfo
		err  error
	)
	if strings.Contains(userinfo, ":") {
		info, err = parseLegacyUserinfo(userinfo)
	} else {
		info, err = parseSIP002Userinfo(userinfo)
	}
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "userinfo", err)
	}

	serverPart, remarks, hasRemarks := strings.Cut(serverPart, "#")
	hostPort, query, _ := strings.Cut(serverPart, "?")
	hostPort = strings.TrimSuffix(hostPort, "/")

	host, portToken, err := SplitHostPort(hostPort)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "host", err)
	}
	port, err := parseSSPort(portToken)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "port", err)
	}

	payload := domain.ShadowsocksPayload{
		Method:       info.method,
		Password:     info.password,
		AuthProtocol: info.authProtocol,
		Obfs:         info.obfs,
		ObfsParam:    info.obfsParam,
		Plugin:       queryMap(ParseQuery(query))["plugin"],
	}
	if hasRemarks {
		// Only the text up to a second '#' names the proxy.
		payload.Remarks, _, _ = strings.Cut(remarks, "#")
	}

	proxy := domain.Proxy{
		Name:    payload.Remarks,
		Server:  host,
		Port:    port,
		Payload: payload,
	}
	if proxy.Name == "" {
		proxy.Name = fallbackName(host, port)
	}
	if err := proxy.Validate(); err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolShadowsocks, "validate", err)
	}
	return proxy, nil
}

// parseLegacyUserinfo handles the plain "method:password" form.
func parseLegacyUserinfo(s string) (ssUserinfo, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ssUserinfo{}, fmt.Errorf("expected method:password, got %d fields", len(parts))
	}
	return ssUserinfo{method: parts[0], password: parts[1]}, nil
}

// parseSIP002Userinfo decodes the base64 userinfo (standard alphabet only)
// and interprets its colon separated fields by count:
//
//	2, 3  method:password[:ignored]
//	4     method:password:server:port
//	5     method:password:protocol:server:port
//	>=6   method:password:protocol:obfs[:obfsparam...]:server:port
//
// Embedded server/port fields must be well formed but the address after '@'
// is the one used.
func parseSIP002Userinfo(s string) (ssUserinfo, error) {
	decoded, err := DecodeBase64Text(s, StdStrategy)
	if err != nil {
		return ssUserinfo{}, err
	}

	parts := strings.Split(decoded, ":")
	n := len(parts)
	if n < 2 {
		return ssUserinfo{}, errors.New("expected method:password")
	}

	info := ssUserinfo{method: parts[0], password: parts[1]}
	switch {
	case n <= 3:
		return info, nil
	case n == 4:
	case n == 5:
		info.authProtocol = parts[2]
	default:
		info.authProtocol = parts[2]
		info.obfs = parts[3]
		info.obfsParam = strings.Join(parts[4:n-2], ":")
	}

	if _, err := ParsePort(parts[n-1]); err != nil {
		return ssUserinfo{}, fmt.Errorf("embedded port: %w", err)
	}
	return info, nil
}

func parseSSPort(token string) (uint16, error) {
	if !strings.Contains(token, "%") {
		return ParsePort(token)
	}
	if token == malformedPortToken {
		return malformedPortValue, nil
	}
	decoded, err := url.PathUnescape(token)
	if err != nil {
		return 0, fmt.Errorf("invalid encoded port %q: %w", token, err)
	}
	return ParsePort(decoded)
}
