package link

import (
	"errors"
	"strings"

	"chiaotu/internal/domain"
)

const vlessScheme = "vless://"

func decodeVless(line string) (domain.Proxy, error) {
	rest, ok := strings.CutPrefix(line, vlessScheme)
	if !ok {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVless, "scheme", errSchemeMismatch)
	}

	l, stage, err := splitCredentialLink(rest)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVless, stage, err)
	}
	if !domain.IsUUIDShape(l.Credential) {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVless, "credential", errors.New("uuid is not UUID shaped"))
	}

	params := queryMap(l.Query)
	payload := domain.VlessPayload{
		UUID:           l.Credential,
		Remarks:        l.Remarks,
		Encryption:     params["encryption"],
		Flow:           params["flow"],
		PacketEncoding: params["packetEncoding"],
		Fingerprint:    params["fp"],
		SID:            params["sid"],
		PBK:            params["pbk"],
		ServiceName:    params["serviceName"],
		Security:       params["security"],
		Insecure:       params["insecure"] == "1",
		SNI:            params["sni"],
		Transport:      vlessTransport(params),
		TLS:            vlessTLS(params),
	}

	proxy := domain.Proxy{
		Name:    l.Remarks,
		Server:  l.Host,
		Port:    l.Port,
		Payload: payload,
	}
	if proxy.Name == "" {
		proxy.Name = fallbackName(l.Host, l.Port)
	}
	if err := proxy.Validate(); err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVless, "validate", err)
	}
	return proxy, nil
}

func hasAny(params map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := params[k]; ok {
			return true
		}
	}
	return false
}

func vlessTransport(params map[string]string) *domain.VlessTransport {
	if !hasAny(params, "type", "host", "path") {
		return nil
	}
	t := &domain.VlessTransport{
		Type:       params["type"],
		Path:       params["path"],
		Host:       params["host"],
		HeaderType: params["headerType"],
	}
	if t.Type == "" {
		t.Type = "tcp"
	}
	return t
}

func vlessTLS(params map[string]string) *domain.VlessTLS {
	if !hasAny(params, "quicSecurity", "serviceName", "security") {
		return nil
	}
	security := params["security"]
	return &domain.VlessTLS{
		Enabled:     security == "tls" || security == "reality",
		ServerName:  params["sni"],
		Fingerprint: params["fp"],
	}
}
