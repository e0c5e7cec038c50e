package otx

import "github.com/custodia-labs/iocsync/internal/core/domain"

// DefaultTypeMap maps OTX indicator types (lowercased) to canonical types.
var DefaultTypeMap = domain.TypeMap{
	"ipv4":             domain.TypeIPv4,
	"ipv6":             domain.TypeIPv6,
	"domain":           domain.TypeDomain,
	"hostname":         domain.TypeDomain,
	"url":              domain.TypeURL,
	"uri":              domain.TypeURL,
	"filehash-md5":     domain.TypeMD5,
	"filehash-sha1":    domain.TypeSHA1,
	"filehash-sha256":  domain.TypeSHA256,
	"filehash-pehash":  domain.TypePEHash,
	"filehash-imphash": domain.TypeImpHash,
	"email":            domain.TypeEmail,
	"cidr":             domain.TypeCIDR,
	"cve":              domain.TypeCVE,
	"filepath":         domain.TypeFilePath,
	"bitcoinaddress":   domain.TypeBitcoin,
	"sslcert":          domain.TypeSSLCert,
	"mutex":            domain.TypeMutex,
	"yara":             domain.TypeYARA,
	"ja3":              domain.TypeJA3,
	"ja3s":             domain.TypeJA3S,
}

// pulsePage is one page of a pulse feed.
type pulsePage struct {
	Results []pulse `json:"results"`
	Count   int     `json:"count"`
	Next    string  `json:"next"`
}

type pulse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Tags       []string    `json:"tags"`
	Created    string      `json:"created"`
	Modified   string      `json:"modified"`
	Indicators []indicator `json:"indicators"`
}

type indicator struct {
	ID        int64  `json:"id"`
	Indicator string `json:"indicator"`
	Type      string `json:"type"`
	Created   string `json:"created"`
	Modified  string `json:"modified"`
}
