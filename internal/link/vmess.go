package link

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"chiaotu/internal/domain"
)

const vmessScheme = "vmess://"

// Every vmess JSON payload carries all of these keys, each a JSON string.
// Keys match exactly, so "PS" is not "ps".
var vmessFields = []string{"v", "ps", "add", "port", "id", "aid", "net", "type", "host", "path", "tls"}

func decodeVmess(line string) (domain.Proxy, error) {
	encoded, ok := strings.CutPrefix(line, vmessScheme)
	if !ok {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "scheme", errSchemeMismatch)
	}

	text, err := DecodeBase64Text(encoded, StdStrategy, URLStrategy)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "base64", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "json", err)
	}
	values := make(map[string]string, len(vmessFields))
	for _, field := range vmessFields {
		msg, ok := raw[field]
		if !ok {
			return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "json", fmt.Errorf("missing field %q", field))
		}
		var v string
		if string(msg) == "null" {
			return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "json", fmt.Errorf("field %q is null", field))
		}
		if err := json.Unmarshal(msg, &v); err != nil {
			return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "json", fmt.Errorf("field %q: %w", field, err))
		}
		values[field] = v
	}

	payload := domain.VmessPayload{
		Version:    values["v"],
		Remarks:    values["ps"],
		Address:    values["add"],
		Port:       values["port"],
		ID:         values["id"],
		AlterID:    values["aid"],
		Network:    values["net"],
		HeaderType: values["type"],
		Host:       values["host"],
		Path:       values["path"],
		TLS:        values["tls"],
	}

	port, err := ParsePort(payload.Port)
	if err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "port", err)
	}

	proxy := domain.Proxy{
		Name:    payload.Remarks,
		Server:  payload.Address,
		Port:    port,
		Payload: payload,
	}
	if proxy.Name == "" {
		proxy.Name = fallbackName(proxy.Server, proxy.Port)
	}
	if err := proxy.Validate(); err != nil {
		return domain.Proxy{}, newDecodeError(domain.ProtocolVmess, "validate", err)
	}
	return proxy, nil
}

// EncodeVmess renders a payload back into a vmess:// link using the standard
// base64 alphabet.
func EncodeVmess(payload domain.VmessPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal vmess payload: %w", err)
	}
	return vmessScheme + base64.StdEncoding.EncodeToString(data), nil
}
