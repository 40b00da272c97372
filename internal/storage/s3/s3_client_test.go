package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3storage "dutycalc/internal/storage/s3"
)

func TestParseURI(t *testing.T) {
	bucket, key, err := s3storage.ParseURI("s3://tariff-data/2024/schedule.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "tariff-data", bucket)
	assert.Equal(t, "2024/schedule.xlsx", key)
}

func TestParseURI_Invalid(t *testing.T) {
	for _, loc := range []string{
		"tariff.xlsx",
		"s3://",
		"s3://bucket-only",
		"s3://bucket/",
		"s3:///key.xlsx",
	} {
		t.Run(loc, func(t *testing.T) {
			_, _, err := s3storage.ParseURI(loc)
			assert.Error(t, err)
		})
	}
}

func TestIsURI(t *testing.T) {
	assert.True(t, s3storage.IsURI("s3://b/k"))
	assert.False(t, s3storage.IsURI("/tmp/k.xlsx"))
}
