package link

import (
	"errors"
	"strings"

	"chiaotu/internal/domain"
)

const trojanScheme = "trojan://"

func decodeTrojan(line string) (domain.Proxy, error) {
	rest, ok := strings.CutPrefix(line, trojanScheme)
	if !ok {
		return domain.Proxy{}, newDecodeError(domain.ProtocolTrojan, "scheme", errSchemeMismatch)
	}

	l, stage, err := splitCredentialLink(rest)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolTrojan, stage, err)
	}
	if !domain.IsUUIDShape(l.Credential) {
		return domain.Proxy{}, newDecodeError(domain.ProtocolTrojan, "credential", errors.New("password is not UUID shaped"))
	}

	payload := domain.TrojanPayload{
		Password: l.Credential,
		Remarks:  l.Remarks,
	}
	for _, kv := range l.Query {
		switch kv.Key {
		case "allowInsecure":
			payload.AllowInsecure = kv.Value == "1"
		case "peer":
			payload.Peer = kv.Value
		case "sni":
			payload.SNI = kv.Value
		case "network":
			payload.Network = kv.Value
		}
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
		return domain.Proxy{}, newDecodeError(domain.ProtocolTrojan, "validate", err)
	}
	return proxy, nil
}
