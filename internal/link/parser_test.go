package link

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chiaotu/internal/domain"
	"chiaotu/internal/mocks"
)

const testUUID = "f9ad69aa-bb58-48bb-93d7-47a8e93651d4"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want domain.ProtocolTag
	}{
		{name: "vmess prefix", line: "vmess://abc", want: domain.ProtocolVmess},
		{name: "vmess substring wins over ss prefix", line: "ss://VMESS@host:1", want: domain.ProtocolVmess},
		{name: "shadowsocks", line: "  ss://abc@host:1 ", want: domain.ProtocolShadowsocks},
		{name: "trojan", line: "trojan://x@host:1", want: domain.ProtocolTrojan},
		{name: "vless", line: "vless://x@host:1", want: domain.ProtocolVless},
		{name: "unknown scheme", line: "hysteria2://x@host:1", want: domain.ProtocolUnrecognized},
		{name: "empty", line: "", want: domain.ProtocolUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		expectError bool
		validate    func(*testing.T, domain.Proxy)
	}{
		{
			name: "SIP002 shadowsocks",
			line: "ss://YWVzLTEyOC1nY206OTQzYjI4MDEtYWE2YS00YTIwLWI2OTAtNGUzNzdkY2ZjOTJl@hk11.cxk.lol:25451",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, domain.ProtocolShadowsocks, p.Protocol())
				assert.Equal(t, "hk11.cxk.lol", p.Server)
				assert.Equal(t, uint16(25451), p.Port)
				payload := p.Payload.(domain.ShadowsocksPayload)
				assert.Equal(t, "aes-128-gcm", payload.Method)
				assert.Equal(t, "943b2801-aa6a-4a20-b690-4e377dcfc92e", payload.Password)
				assert.Equal(t, "hk11.cxk.lol:25451", p.Name)
			},
		},
		{
			name: "legacy shadowsocks",
			line: "ss://aes-256-gcm:password@example.com:8388#MyServer",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, "example.com", p.Server)
				assert.Equal(t, uint16(8388), p.Port)
				assert.Equal(t, "MyServer", p.Name)
				payload := p.Payload.(domain.ShadowsocksPayload)
				assert.Equal(t, "aes-256-gcm", payload.Method)
				assert.Equal(t, "password", payload.Password)
				assert.Equal(t, "MyServer", payload.Remarks)
			},
		},
		{
			name: "SIP002 with padding and plugin",
			line: "ss://Y2hhY2hhMjAtaWV0Zi1wb2x5MTMwNTpwYXNzd29yZA==@example.com:443/?plugin=obfs-local%3Bobfs%3Dhttp#Node",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.ShadowsocksPayload)
				assert.Equal(t, "chacha20-ietf-poly1305", payload.Method)
				assert.Equal(t, "password", payload.Password)
				assert.Equal(t, "obfs-local;obfs=http", payload.Plugin)
				assert.Equal(t, uint16(443), p.Port)
				assert.Equal(t, "Node", p.Name)
			},
		},
		{
			name: "SIP002 with protocol field",
			line: "ss://YWVzLTI1Ni1jZmI6cHc6YXV0aF9hZXMxMjhfbWQ1OjEuMi4zLjQ6NDQz@example.com:443",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.ShadowsocksPayload)
				assert.Equal(t, "aes-256-cfb", payload.Method)
				assert.Equal(t, "auth_aes128_md5", payload.AuthProtocol)
				assert.Empty(t, payload.Obfs)
			},
		},
		{
			name: "SIP002 with obfs parameters",
			line: "ss://YWVzLTI1Ni1jZmI6cHc6b3JpZ2luOnBsYWluOnBhcmFtOmE6YjoxLjIuMy40OjQ0Mw==@example.com:443",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.ShadowsocksPayload)
				assert.Equal(t, "origin", payload.AuthProtocol)
				assert.Equal(t, "plain", payload.Obfs)
				assert.Equal(t, "param:a:b", payload.ObfsParam)
			},
		},
		{
			name: "shadowsocks remarks end at a second hash",
			line: "ss://aes-256-gcm:pw@example.com:8388#b#c",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, "b", p.Name)
				assert.Equal(t, "b", p.Payload.(domain.ShadowsocksPayload).Remarks)
			},
		},
		{
			name: "percent encoded port token",
			line: "ss://aes-256-gcm:pw@example.com:%F0%9F%87%B0%E9%A6%99%E6%B8%AF#HK",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, uint16(25451), p.Port)
			},
		},
		{
			name: "trojan with query",
			line: "trojan://" + testUUID + "@host:12068?allowInsecure=1&peer=cdn.x.com&sni=cdn.x.com",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, domain.ProtocolTrojan, p.Protocol())
				assert.Equal(t, "host", p.Server)
				assert.Equal(t, uint16(12068), p.Port)
				payload := p.Payload.(domain.TrojanPayload)
				assert.True(t, payload.AllowInsecure)
				assert.Equal(t, "cdn.x.com", payload.Peer)
				assert.Equal(t, "cdn.x.com", payload.SNI)
			},
		},
		{
			name: "trojan remarks are percent decoded",
			line: "trojan://" + testUUID + "@host:443?allowInsecure=true#%E9%A6%99%E6%B8%AF%2001",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, "香港 01", p.Name)
				assert.False(t, p.Payload.(domain.TrojanPayload).AllowInsecure)
			},
		},
		{
			name: "trojan remarks fall back to raw text",
			line: "trojan://" + testUUID + "@host:443#100%off",
			validate: func(t *testing.T, p domain.Proxy) {
				assert.Equal(t, "100%off", p.Name)
			},
		},
		{
			name: "vless with reality",
			line: "vless://" + testUUID + "@example.com:443?type=tcp&security=reality&fp=chrome&pbk=publicKey&sid=shortId&sni=www.example.org&flow=xtls-rprx-vision#JP",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.VlessPayload)
				assert.Equal(t, testUUID, payload.UUID)
				assert.Equal(t, "reality", payload.Security)
				assert.Equal(t, "publicKey", payload.PBK)
				assert.Equal(t, "shortId", payload.SID)
				assert.Equal(t, "xtls-rprx-vision", payload.Flow)
				require.NotNil(t, payload.Transport)
				assert.Equal(t, "tcp", payload.Transport.Type)
				require.NotNil(t, payload.TLS)
				assert.True(t, payload.TLS.Enabled)
				assert.Equal(t, "www.example.org", payload.TLS.ServerName)
				assert.Equal(t, "chrome", payload.TLS.Fingerprint)
			},
		},
		{
			name: "vless without trigger keys",
			line: "vless://" + testUUID + "@example.com:443?encryption=none",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.VlessPayload)
				assert.Equal(t, "none", payload.Encryption)
				assert.Nil(t, payload.Transport)
				assert.Nil(t, payload.TLS)
			},
		},
		{
			name: "vless grpc service name without security keeps tls off",
			line: "vless://" + testUUID + "@example.com:443?type=grpc&serviceName=svc",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.VlessPayload)
				require.NotNil(t, payload.TLS)
				assert.False(t, payload.TLS.Enabled)
			},
		},
		{
			name: "vless websocket transport",
			line: "vless://" + testUUID + "@example.com:443?path=%2Fws&host=cdn.example.com",
			validate: func(t *testing.T, p domain.Proxy) {
				payload := p.Payload.(domain.VlessPayload)
				require.NotNil(t, payload.Transport)
				assert.Equal(t, "tcp", payload.Transport.Type)
				assert.Equal(t, "/ws", payload.Transport.Path)
				assert.Equal(t, "cdn.example.com", payload.Transport.Host)
				assert.Nil(t, payload.TLS)
			},
		},
		{
			name:        "trojan with non UUID password",
			line:        "trojan://password@example.com:443",
			expectError: true,
		},
		{
			name:        "vless with port out of range",
			line:        "vless://" + testUUID + "@example.com:70000",
			expectError: true,
		},
		{
			name:        "zero port",
			line:        "ss://aes-256-gcm:pw@example.com:0",
			expectError: true,
		},
		{
			name:        "empty host",
			line:        "ss://aes-256-gcm:pw@:8388",
			expectError: true,
		},
		{
			name:        "legacy with too many fields",
			line:        "ss://a:b:c@example.com:8388",
			expectError: true,
		},
		{
			name:        "SIP002 with URL-safe alphabet only",
			line:        "ss://_-_-@example.com:8388",
			expectError: true,
		},
		{
			name:        "SIP002 with bad embedded port",
			line:        "ss://YTpiOmM6ZDpub3RhcG9ydA==@example.com:8388",
			expectError: true,
		},
		{
			name:        "false positive vmess classification",
			line:        "this mentions VMess but is not a link",
			expectError: true,
		},
		{
			name:        "unsupported protocol",
			line:        "unknown://test@example.com:443",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy, err := Parse(tt.line)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrUnrecognized)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, proxy)
			}
		})
	}
}

func TestParse_DecodeErrorDetails(t *testing.T) {
	_, err := Parse("trojan://" + testUUID + "@example.com:notaport")
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, domain.ProtocolTrojan, decodeErr.Protocol)
	assert.Equal(t, "port", decodeErr.Stage)
}

func TestParse_VmessRoundTrip(t *testing.T) {
	payload := domain.VmessPayload{
		Version:    "2",
		Remarks:    "日本 01",
		Address:    "jp.example.com",
		Port:       "443",
		ID:         testUUID,
		AlterID:    "0",
		Network:    "ws",
		HeaderType: "none",
		Host:       "jp.example.com",
		Path:       "/ray",
		TLS:        "tls",
	}

	line, err := EncodeVmess(payload)
	require.NoError(t, err)

	first, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "日本 01", first.Name)
	assert.Equal(t, "jp.example.com", first.Server)
	assert.Equal(t, uint16(443), first.Port)
	assert.Equal(t, payload, first.Payload)

	reencoded, err := EncodeVmess(first.Payload.(domain.VmessPayload))
	require.NoError(t, err)
	second, err := Parse(reencoded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_VmessRejections(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "only the address fields", json: `{"ps":"a","add":"h.example.com","port":"443","id":"x"}`},
		{name: "missing id", json: `{"v":"2","ps":"a","add":"h","port":"1","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":""}`},
		{name: "missing v", json: `{"ps":"a","add":"h","port":"1","id":"x","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":""}`},
		{name: "missing tls", json: `{"v":"2","ps":"a","add":"h","port":"1","id":"x","aid":"0","net":"tcp","type":"none","host":"","path":""}`},
		{name: "upper case key does not count", json: `{"v":"2","PS":"a","add":"h","port":"1","id":"x","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":""}`},
		{name: "numeric port", json: `{"v":"2","ps":"a","add":"h","port":1,"id":"x","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":""}`},
		{name: "null field", json: `{"v":"2","ps":"a","add":"h","port":"1","id":"x","aid":null,"net":"tcp","type":"none","host":"","path":"","tls":""}`},
		{name: "not json", json: `hello`},
		{name: "empty id", json: `{"v":"2","ps":"a","add":"h","port":"1","id":"","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := "vmess://" + base64Std(tt.json)
			_, err := Parse(line)
			assert.ErrorIs(t, err, ErrUnrecognized)
		})
	}
}

func TestParse_VmessKeysMatchExactly(t *testing.T) {
	line := "vmess://" + base64Std(`{"v":"2","ps":"a","PS":"b","add":"h.example.com","port":"443","id":"`+testUUID+`","aid":"0","net":"tcp","type":"none","host":"","path":"","tls":"","Add":"other.example.com"}`)

	proxy, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "a", proxy.Name)
	assert.Equal(t, "h.example.com", proxy.Server)
}

func TestParser_ParseText(t *testing.T) {
	// Base64 of a three line body: one ss link, one vless link and garbage.
	body := "c3M6Ly9ZV1Z6TFRFeU9DMW5ZMjA2Y0dGemN3PT1AYS5leGFtcGxlLmNvbToxMDAwI0EKdmxlc3M6Ly9mOWFkNjlhYS1iYjU4LTQ4YmItOTNkNy00N2E4ZTkzNjUxZDRAYi5leGFtcGxlLmNvbTo0NDMjQgpnYXJiYWdlCg=="

	metrics := mocks.NewMetricsCollector(t)
	metrics.On("RecordLineDecoded", domain.ProtocolShadowsocks).Once()
	metrics.On("RecordLineDecoded", domain.ProtocolVless).Once()
	metrics.On("RecordLineDropped", domain.ProtocolUnrecognized).Once()

	parser := NewParser(zap.NewNop(), metrics)
	proxies, dropped := parser.ParseText(body)

	require.Len(t, proxies, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "A", proxies[0].Name)
	assert.Equal(t, "B", proxies[1].Name)
}

func TestParser_ParseLinesKeepsGoingAfterFailures(t *testing.T) {
	metrics := mocks.NewMetricsCollector(t)
	metrics.On("RecordLineDropped", domain.ProtocolTrojan).Twice()
	metrics.On("RecordLineDecoded", domain.ProtocolShadowsocks).Once()

	parser := NewParser(zap.NewNop(), metrics)
	proxies, dropped := parser.ParseLines([]string{
		"trojan://bad@host:1",
		"ss://aes-256-gcm:pw@example.com:8388#ok",
		"trojan://" + testUUID + "@host:99999",
	})

	require.Len(t, proxies, 1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "ok", proxies[0].Name)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitLines(" a \r\n\n\tb\n"))
	assert.Empty(t, SplitLines(""))
}

func TestDecodeSubscription(t *testing.T) {
	plain := "ss://aes-256-gcm:pw@example.com:8388#ok"
	assert.Equal(t, plain, DecodeSubscription(plain))

	wrapped := base64Std(plain)
	split := wrapped[:10] + "\n" + wrapped[10:]
	assert.Equal(t, plain, DecodeSubscription(split))
}

func FuzzParse(f *testing.F) {
	f.Add("vmess://")
	f.Add("ss://YWVzLTEyOC1nY206cGFzcw==@a.example.com:1000#A")
	f.Add("trojan://" + testUUID + "@host:12068?allowInsecure=1")
	f.Add("vless://" + testUUID + "@[::1]:443?type=ws")
	f.Add("ss://a:b@c:%F0%9F")
	f.Add("\xff\xfe")

	f.Fuzz(func(t *testing.T, line string) {
		tag := Classify(line)
		proxy, err := Parse(line)
		if err != nil {
			assert.ErrorIs(t, err, ErrUnrecognized)
			return
		}
		assert.NotEqual(t, domain.ProtocolUnrecognized, tag)
		assert.NoError(t, proxy.Validate())
	})
}
