package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRulesLoad(t *testing.T) {
	rs := DefaultRules()
	require.Equal(t, 1, rs.Version)
	require.NotEmpty(t, rs.CrisisKeywords)
	require.NotEmpty(t, rs.CriticalKeywords)
	require.NotEmpty(t, rs.SeverityAdvice[SeverityCritical])
}

func TestLoadRulesRejectsMissingVersion(t *testing.T) {
	_, err := LoadRules([]byte("crisis_keywords: [gun]"))
	require.Error(t, err)
}

func TestLoadRulesRejectsOrphanCriticalKeyword(t *testing.T) {
	doc := []byte(`
version: 1
crisis_keywords: [gun]
critical_keywords: [suicide]
`)
	_, err := LoadRules(doc)
	require.Error(t, err)
}

func TestLoadRulesRejectsOrphanAbuseKeyword(t *testing.T) {
	doc := []byte(`
version: 1
crisis_keywords: [gun]
abuse_keywords: [abuse]
`)
	_, err := LoadRules(doc)
	require.Error(t, err)
}
