package pattern

import (
	"strings"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// Observable is one (type, value) pair pulled from a pattern.
// Type is the STIX object type, except for file hashes which are
// already classified as hash:<algorithm>.
type Observable struct {
	Type  string
	Value string
}

// Placeholder is emitted for a well-formed pattern with no equality
// comparison, so the indicator is never silently dropped.
var Placeholder = Observable{Type: string(domain.TypeUnknown), Value: ""}

// Extract returns one Observable per `object:property = value` comparison
// in the pattern, in order of appearance. Negated comparisons and
// non-equality operators are ignored. Returns ErrMalformedPattern (wrapped)
// when the pattern cannot be tokenised.
func Extract(src string) ([]Observable, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	var out []Observable
	for i := 0; i+2 < len(tokens); i++ {
		path := tokens[i]
		if path.kind != tokPath {
			continue
		}
		op := tokens[i+1]
		if op.kind != tokOperator || op.text != "=" {
			continue
		}
		lit := tokens[i+2]
		switch lit.kind {
		case tokString, tokNumber, tokBool:
		default:
			continue
		}
		out = append(out, Observable{
			Type:  classify(path.objectType, path.property),
			Value: lit.text,
		})
		i += 2
	}

	if len(out) == 0 {
		return []Observable{Placeholder}, nil
	}
	return out, nil
}

// classify returns the observable type for an object path. File hash
// paths carry the algorithm in the property text.
func classify(objectType, property string) string {
	objectType = strings.ToLower(objectType)
	if objectType != "file" {
		return objectType
	}
	prop := strings.ToUpper(property)
	if !strings.HasPrefix(prop, "HASHES") {
		return objectType
	}
	switch {
	case strings.Contains(prop, "MD5"):
		return string(domain.TypeMD5)
	case strings.Contains(prop, "SHA-512") || strings.Contains(prop, "SHA512"):
		return string(domain.TypeSHA512)
	case strings.Contains(prop, "SHA-256") || strings.Contains(prop, "SHA256"):
		return string(domain.TypeSHA256)
	case strings.Contains(prop, "SHA-1") || strings.Contains(prop, "SHA1"):
		return string(domain.TypeSHA1)
	default:
		return string(domain.TypeHash)
	}
}
