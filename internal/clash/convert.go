package clash

import (
	"fmt"
	"strconv"
	"strings"

	"chiaotu/internal/domain"
)

// FromDescriptor maps a decoded share link onto Clash proxy fields.
func FromDescriptor(p domain.Proxy) (Proxy, error) {
	fields := map[string]any{
		"server": p.Server,
		"port":   int(p.Port),
	}

	switch payload := p.Payload.(type) {
	case domain.ShadowsocksPayload:
		shadowsocksFields(fields, payload)
	case domain.VmessPayload:
		vmessFields(fields, payload)
	case domain.TrojanPayload:
		trojanFields(fields, payload)
	case domain.VlessPayload:
		vlessFields(fields, payload)
	default:
		return Proxy{}, fmt.Errorf("unsupported payload %T", p.Payload)
	}

	return Proxy{Name: p.Name, Fields: fields}, nil
}

func shadowsocksFields(f map[string]any, p domain.ShadowsocksPayload) {
	f["cipher"] = p.Method
	f["password"] = p.Password
	f["udp"] = true

	if p.AuthProtocol != "" || p.Obfs != "" {
		f["type"] = "ssr"
		f["protocol"] = orDefault(p.AuthProtocol, "origin")
		f["obfs"] = orDefault(p.Obfs, "plain")
		if p.ObfsParam != "" {
			f["obfs-param"] = p.ObfsParam
		}
		return
	}

	f["type"] = "ss"
	if p.Plugin == "" {
		return
	}
	name, opts := parsePlugin(p.Plugin)
	switch name {
	case "obfs-local", "simple-obfs", "obfs":
		f["plugin"] = "obfs"
		pluginOpts := map[string]any{"mode": opts["obfs"]}
		if host := opts["obfs-host"]; host != "" {
			pluginOpts["host"] = host
		}
		f["plugin-opts"] = pluginOpts
	case "v2ray-plugin":
		f["plugin"] = "v2ray-plugin"
		pluginOpts := map[string]any{"mode": orDefault(opts["mode"], "websocket")}
		if host := opts["host"]; host != "" {
			pluginOpts["host"] = host
		}
		if path := opts["path"]; path != "" {
			pluginOpts["path"] = path
		}
		if _, ok := opts["tls"]; ok {
			pluginOpts["tls"] = true
		}
		f["plugin-opts"] = pluginOpts
	default:
		f["plugin"] = name
	}
}

// parsePlugin splits a SIP003 plugin string like "obfs-local;obfs=http".
// Options without a value map to "".
func parsePlugin(s string) (string, map[string]string) {
	parts := strings.Split(s, ";")
	opts := make(map[string]string, len(parts)-1)
	for _, part := range parts[1:] {
		k, v, _ := strings.Cut(part, "=")
		opts[k] = v
	}
	return parts[0], opts
}

func vmessFields(f map[string]any, p domain.VmessPayload) {
	f["type"] = "vmess"
	f["uuid"] = p.ID
	f["cipher"] = "auto"
	f["udp"] = true

	alterID, err := strconv.Atoi(p.AlterID)
	if err != nil {
		alterID = 0
	}
	f["alterId"] = alterID

	if p.TLS == "tls" {
		f["tls"] = true
		if p.Host != "" {
			f["servername"] = p.Host
		}
	}

	switch p.Network {
	case "", "tcp":
	case "ws":
		f["network"] = "ws"
		wsOpts := map[string]any{"path": orDefault(p.Path, "/")}
		if p.Host != "" {
			wsOpts["headers"] = map[string]any{"Host": p.Host}
		}
		f["ws-opts"] = wsOpts
	case "h2":
		f["network"] = "h2"
		h2Opts := map[string]any{"path": orDefault(p.Path, "/")}
		if p.Host != "" {
			h2Opts["host"] = []string{p.Host}
		}
		f["h2-opts"] = h2Opts
	case "grpc":
		f["network"] = "grpc"
		f["grpc-opts"] = map[string]any{"grpc-service-name": p.Path}
	default:
		f["network"] = p.Network
	}
}

func trojanFields(f map[string]any, p domain.TrojanPayload) {
	f["type"] = "trojan"
	f["password"] = p.Password
	f["udp"] = true
	if sni := orDefault(p.SNI, p.Peer); sni != "" {
		f["sni"] = sni
	}
	if p.AllowInsecure {
		f["skip-cert-verify"] = true
	}
	if p.Network != "" && p.Network != "tcp" {
		f["network"] = p.Network
	}
}

func vlessFields(f map[string]any, p domain.VlessPayload) {
	f["type"] = "vless"
	f["uuid"] = p.UUID
	f["udp"] = true
	if p.Flow != "" {
		f["flow"] = p.Flow
	}
	if p.PacketEncoding != "" {
		f["packet-encoding"] = p.PacketEncoding
	}
	if p.Insecure {
		f["skip-cert-verify"] = true
	}

	if p.TLS != nil && p.TLS.Enabled {
		f["tls"] = true
		if p.TLS.ServerName != "" {
			f["servername"] = p.TLS.ServerName
		}
		if p.TLS.Fingerprint != "" {
			f["client-fingerprint"] = p.TLS.Fingerprint
		}
	}
	if p.Security == "reality" {
		realityOpts := map[string]any{"public-key": p.PBK}
		if p.SID != "" {
			realityOpts["short-id"] = p.SID
		}
		f["reality-opts"] = realityOpts
	}

	if p.Transport == nil {
		return
	}
	switch p.Transport.Type {
	case "tcp":
		f["network"] = "tcp"
	case "ws":
		f["network"] = "ws"
		wsOpts := map[string]any{"path": orDefault(p.Transport.Path, "/")}
		if p.Transport.Host != "" {
			wsOpts["headers"] = map[string]any{"Host": p.Transport.Host}
		}
		f["ws-opts"] = wsOpts
	case "grpc":
		f["network"] = "grpc"
		f["grpc-opts"] = map[string]any{"grpc-service-name": p.ServiceName}
	default:
		f["network"] = p.Transport.Type
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
