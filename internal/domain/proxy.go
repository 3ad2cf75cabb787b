package domain

import (
	"fmt"
)

// ProtocolTag identifies the share-link family a line belongs to.
type ProtocolTag string

const (
	ProtocolVmess        ProtocolTag = "vmess"
	ProtocolShadowsocks  ProtocolTag = "ss"
	ProtocolTrojan       ProtocolTag = "trojan"
	ProtocolVless        ProtocolTag = "vless"
	ProtocolUnrecognized ProtocolTag = "unrecognized"
)

// Payload is the protocol specific part of a Proxy. The set of
// implementations is closed to this package.
type Payload interface {
	Protocol() ProtocolTag
	isPayload()
}

// Proxy is a decoded and normalized proxy endpoint.
type Proxy struct {
	Name    string
	Server  string  `validate:"required"`
	Port    uint16  `validate:"min=1"`
	Payload Payload `validate:"-"`
}

func (p Proxy) Protocol() ProtocolTag {
	if p.Payload == nil {
		return ProtocolUnrecognized
	}
	return p.Payload.Protocol()
}

// GroupKey is the identity used for deduplication and group membership.
func (p Proxy) GroupKey() string {
	return p.Name
}

func (p Proxy) String() string {
	name := p.Name
	if name == "" {
		name = "No remarks"
	}
	return fmt.Sprintf("%s://%s:%d [%s]", p.Protocol(), p.Server, p.Port, name)
}

// VmessPayload mirrors the JSON object carried by a vmess:// link. Port stays
// textual the way the link format stores it.
type VmessPayload struct {
	Version    string `json:"v"`
	Remarks    string `json:"ps"`
	Address    string `json:"add"`
	Port       string `json:"port"`
	ID         string `json:"id" validate:"required"`
	AlterID    string `json:"aid"`
	Network    string `json:"net"`
	HeaderType string `json:"type"`
	Host       string `json:"host"`
	Path       string `json:"path"`
	TLS        string `json:"tls"`
}

func (VmessPayload) Protocol() ProtocolTag { return ProtocolVmess }
func (VmessPayload) isPayload()            {}

// ShadowsocksPayload holds the credentials of an ss:// link. AuthProtocol,
// Obfs and ObfsParam are only set by the extended SIP002 userinfo forms.
type ShadowsocksPayload struct {
	Method       string `validate:"required"`
	Password     string `validate:"required"`
	Remarks      string
	AuthProtocol string
	Obfs         string
	ObfsParam    string
	Plugin       string // raw SIP002 plugin query value, e.g. "obfs-local;obfs=http"
}

func (ShadowsocksPayload) Protocol() ProtocolTag { return ProtocolShadowsocks }
func (ShadowsocksPayload) isPayload()            {}

type TrojanPayload struct {
	Password      string `validate:"uuidshape"`
	Remarks       string
	AllowInsecure bool
	SNI           string
	Peer          string
	Network       string
}

func (TrojanPayload) Protocol() ProtocolTag { return ProtocolTrojan }
func (TrojanPayload) isPayload()            {}

type VlessPayload struct {
	UUID           string `validate:"uuidshape"`
	Remarks        string
	Encryption     string
	Flow           string
	PacketEncoding string
	Fingerprint    string
	SID            string
	PBK            string
	ServiceName    string
	Security       string
	Insecure       bool
	SNI            string

	// Transport and TLS are nil unless one of their trigger keys was present
	// in the link.
	Transport *VlessTransport
	TLS       *VlessTLS
}

func (VlessPayload) Protocol() ProtocolTag { return ProtocolVless }
func (VlessPayload) isPayload()            {}

type VlessTransport struct {
	Type       string
	Path       string
	Host       string
	HeaderType string
}

type VlessTLS struct {
	Enabled     bool
	ServerName  string
	Fingerprint string
}
