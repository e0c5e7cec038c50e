package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleComparison(t *testing.T) {
	got, err := Extract("[domain-name:value = 'evil.example']")

	require.NoError(t, err)
	assert.Equal(t, []Observable{{Type: "domain-name", Value: "evil.example"}}, got)
}

func TestExtract_TwoHashes(t *testing.T) {
	got, err := Extract("[file:hashes.MD5 = 'd41d8cd98f00b204e9800998ecf8427e' AND file:hashes.'SHA-256' = 'e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855']")

	require.NoError(t, err)
	assert.Equal(t, []Observable{
		{Type: "hash:md5", Value: "d41d8cd98f00b204e9800998ecf8427e"},
		{Type: "hash:sha256", Value: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}, got)
}

func TestExtract_OrderAcrossObservations(t *testing.T) {
	got, err := Extract("[ipv4-addr:value = '1.2.3.4'] FOLLOWEDBY ([url:value = 'http://a/b'] OR [email-addr:value = 'a@b.c']) WITHIN 60 SECONDS")

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ipv4-addr", got[0].Type)
	assert.Equal(t, "url", got[1].Type)
	assert.Equal(t, "email-addr", got[2].Type)
}

func TestExtract_IgnoresNonEquality(t *testing.T) {
	got, err := Extract("[network-traffic:dst_port > 1024 AND ipv4-addr:value != '10.0.0.1' AND url:value LIKE 'http%']")

	require.NoError(t, err)
	assert.Equal(t, []Observable{Placeholder}, got)
}

func TestExtract_IgnoresNegated(t *testing.T) {
	got, err := Extract("[domain-name:value NOT = 'good.example' AND domain-name:value = 'bad.example']")

	require.NoError(t, err)
	assert.Equal(t, []Observable{{Type: "domain-name", Value: "bad.example"}}, got)
}

func TestExtract_NonStringLiterals(t *testing.T) {
	got, err := Extract("[autonomous-system:number = 64512 AND x-flag:set = TRUE]")

	require.NoError(t, err)
	assert.Equal(t, []Observable{
		{Type: "autonomous-system", Value: "64512"},
		{Type: "x-flag", Value: "true"},
	}, got)
}

func TestExtract_Placeholder(t *testing.T) {
	got, err := Extract("[file:size IN (1, 2, 3)]")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unknown", got[0].Type)
	assert.Empty(t, got[0].Value)
}

func TestExtract_Malformed(t *testing.T) {
	_, err := Extract("[url:value = 'http://x")

	assert.True(t, errors.Is(err, ErrMalformedPattern))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		objectType string
		property   string
		want       string
	}{
		{"file", "hashes.MD5", "hash:md5"},
		{"file", "hashes.'md5'", "hash:md5"},
		{"file", "hashes.'SHA-1'", "hash:sha1"},
		{"file", "hashes.SHA1", "hash:sha1"},
		{"file", "hashes.'SHA-256'", "hash:sha256"},
		{"file", "hashes.'SHA-512'", "hash:sha512"},
		{"file", "hashes.SSDEEP", "hash"},
		{"file", "name", "file"},
		{"File", "name", "file"},
		{"IPv4-Addr", "value", "ipv4-addr"},
		{"artifact", "hashes.MD5", "artifact"},
	}

	for _, tt := range tests {
		t.Run(tt.objectType+":"+tt.property, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.objectType, tt.property))
		})
	}
}
