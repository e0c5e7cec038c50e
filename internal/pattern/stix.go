package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// TypeMap maps STIX cyber-observable object types to canonical types.
// Hash types are already canonical when they leave Extract.
var TypeMap = domain.TypeMap{
	"ipv4-addr":            domain.TypeIPv4,
	"ipv6-addr":            domain.TypeIPv6,
	"domain-name":          domain.TypeDomain,
	"url":                  domain.TypeURL,
	"email-addr":           domain.TypeEmail,
	"autonomous-system":    domain.TypeASN,
	"mutex":                domain.TypeMutex,
	"x509-certificate":     domain.TypeSSLCert,
	"windows-registry-key": domain.TypeRegistry,
	"directory":            domain.TypeFilePath,
}

// stixObject is the subset of a STIX 2.x indicator this package reads.
type stixObject struct {
	Type        string          `json:"type"`
	ID          string          `json:"id"`
	SpecVersion string          `json:"spec_version"`
	Pattern     string          `json:"pattern"`
	PatternType string          `json:"pattern_type"`
	Labels      []string        `json:"labels"`
	Confidence  json.RawMessage `json:"confidence"`
	ValidFrom   string          `json:"valid_from"`
	Created     string          `json:"created"`
	Modified    string          `json:"modified"`
}

// kindOf peeks at an object's "type" without full decoding.
type kindOf struct {
	Type string `json:"type"`
}

// ExtractIndicators converts raw STIX objects into raw records. Objects
// whose type is not "indicator" are ignored. An indicator object that
// fails validation or has a malformed pattern becomes a skip; it never
// aborts the batch. origin prefixes skip origins (e.g. a file name).
func ExtractIndicators(objects []json.RawMessage, origin string) ([]domain.RawRecord, []domain.Skip) {
	var records []domain.RawRecord
	var skipped []domain.Skip

	for i, raw := range objects {
		var kind kindOf
		if err := json.Unmarshal(raw, &kind); err != nil {
			skipped = append(skipped, domain.Skip{
				Origin: objectOrigin(origin, "", i),
				Reason: fmt.Sprintf("%s: %v", domain.ErrMalformedRecord, err),
			})
			continue
		}
		if kind.Type != "indicator" {
			continue
		}

		recs, err := indicatorRecords(raw)
		if err != nil {
			skipped = append(skipped, domain.NewSkip(objectOrigin(origin, idOf(raw), i), err))
			continue
		}
		records = append(records, recs...)
	}
	return records, skipped
}

// indicatorRecords validates one indicator object and emits one record
// per observable in its pattern.
func indicatorRecords(raw json.RawMessage) ([]domain.RawRecord, error) {
	var obj stixObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("%w: indicator has no id", domain.ErrMalformedRecord)
	}
	if pt := strings.ToLower(obj.PatternType); pt != "" && pt != "stix" {
		return nil, fmt.Errorf("%w: unsupported pattern_type %q", domain.ErrMalformedRecord, obj.PatternType)
	}
	if strings.TrimSpace(obj.Pattern) == "" {
		return nil, fmt.Errorf("%w: indicator has no pattern", domain.ErrMalformedRecord)
	}

	observables, err := Extract(obj.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	firstSeen := obj.ValidFrom
	if firstSeen == "" {
		firstSeen = obj.Created
	}
	confidence := scalarText(obj.Confidence)

	records := make([]domain.RawRecord, 0, len(observables))
	for _, o := range observables {
		records = append(records, domain.RawRecord{
			Type:       o.Type,
			Value:      o.Value,
			Labels:     obj.Labels,
			Confidence: confidence,
			FirstSeen:  firstSeen,
			LastSeen:   obj.Modified,
			Origin:     obj.ID,
		})
	}
	return records, nil
}

// SplitContainer flattens the three shapes a STIX file may take (a bundle
// with an objects list, a bare list, or a single object) into one list.
func SplitContainer(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrMalformedRecord)
	}

	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
		}
		return list, nil
	}

	var bundle struct {
		Type    string            `json:"type"`
		Objects []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if bundle.Type == "bundle" {
		return bundle.Objects, nil
	}
	return []json.RawMessage{json.RawMessage(data)}, nil
}

// scalarText renders a JSON number or string as plain text. Anything
// else yields an empty string.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

func idOf(raw json.RawMessage) string {
	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &obj)
	return obj.ID
}

func objectOrigin(prefix, id string, index int) string {
	if id == "" {
		id = fmt.Sprintf("object %d", index)
	}
	if prefix == "" {
		return id
	}
	return prefix + ": " + id
}
