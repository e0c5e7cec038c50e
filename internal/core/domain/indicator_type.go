package domain

import "strings"

// IndicatorType is a canonical indicator category.
type IndicatorType string

// Canonical indicator types. Provider vocabularies are mapped onto these
// by per-feed type maps; unmapped provider types pass through unchanged.
const (
	TypeIPv4     IndicatorType = "ip"
	TypeIPv6     IndicatorType = "ipv6"
	TypeIPPort   IndicatorType = "ip:port"
	TypeCIDR     IndicatorType = "cidr"
	TypeDomain   IndicatorType = "domain"
	TypeURL      IndicatorType = "url"
	TypeEmail    IndicatorType = "email"
	TypeFilePath IndicatorType = "filepath"
	TypeHash     IndicatorType = "hash"
	TypeMD5      IndicatorType = "hash:md5"
	TypeSHA1     IndicatorType = "hash:sha1"
	TypeSHA256   IndicatorType = "hash:sha256"
	TypeSHA512   IndicatorType = "hash:sha512"
	TypePEHash   IndicatorType = "hash:pehash"
	TypeImpHash  IndicatorType = "hash:imphash"
	TypeCVE      IndicatorType = "cve"
	TypeASN      IndicatorType = "asn"
	TypeBitcoin  IndicatorType = "bitcoin"
	TypeSSLCert  IndicatorType = "ssl_cert"
	TypeMutex    IndicatorType = "mutex"
	TypeRegistry IndicatorType = "registry_key"
	TypeYARA     IndicatorType = "yara"
	TypeJA3      IndicatorType = "ja3"
	TypeJA3S     IndicatorType = "ja3s"
	TypeUnknown  IndicatorType = "unknown"
)

// TypeMap translates a provider's lowercased type names into canonical types.
type TypeMap map[string]IndicatorType

// Resolve returns the canonical type for a provider type. The input is
// trimmed and lowercased before lookup; unmapped names pass through.
func (m TypeMap) Resolve(raw string) IndicatorType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return TypeUnknown
	}
	if canonical, ok := m[key]; ok {
		return canonical
	}
	return IndicatorType(key)
}

// Merge returns a new TypeMap containing m overlaid with overrides.
// Override keys are lowercased.
func (m TypeMap) Merge(overrides map[string]string) TypeMap {
	out := make(TypeMap, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToLower(strings.TrimSpace(k))] = IndicatorType(strings.TrimSpace(v))
	}
	return out
}

// DefaultCaseSensitiveTypes are the types whose values keep their casing.
func DefaultCaseSensitiveTypes() map[IndicatorType]bool {
	return map[IndicatorType]bool{
		TypeURL:      true,
		TypeFilePath: true,
	}
}
