package scanners_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/adapters/scanners"
	"go.trai.ch/sieve/internal/core/domain"
)

func TestScriptScanner_EmitsFeatures(t *testing.T) {
	script := `
for _, n := range nodes {
	emit({"kind": "comment", "id": n["text"], "node": n, "attrs": {"url": url}})
}
`
	s := scanners.NewScriptScanner("comments", script, []string{"comment"})
	src := "// first\nconst a = 1;\n// second\n"

	features, warnings := scanSource(t, domain.TypeJS, src, s)
	assert.Empty(t, warnings)
	require.Len(t, features, 2)

	first, ok := features[0].(*domain.ScannedScriptFeature)
	require.True(t, ok)
	assert.Equal(t, "comment", first.Kind())
	assert.Equal(t, "// first", first.ID())
	assert.Equal(t, map[string]string{"url": "doc.js"}, first.Attributes)
	require.NotNil(t, first.Range())
	assert.Equal(t, 0, first.Range().Start.Line)

	second := features[1].(*domain.ScannedScriptFeature)
	assert.Equal(t, "// second", second.ID())
	assert.Equal(t, 2, second.Range().Start.Line)
}

func TestScriptScanner_Warn(t *testing.T) {
	s := scanners.NewScriptScanner("warner", `warn("found " + string(len(nodes)))`, []string{"comment"})

	_, warnings := scanSource(t, domain.TypeJS, "// only\n", s)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningScriptError, warnings[0].Code)
	assert.Equal(t, domain.SeverityWarning, warnings[0].Severity)
	assert.Equal(t, "warner: found 1", warnings[0].Message)
}

func TestScriptScanner_RuntimeErrorBecomesWarning(t *testing.T) {
	s := scanners.NewScriptScanner("broken", `emit(1)`, nil)

	features, warnings := scanSource(t, domain.TypeJS, "const a = 1;\n", s)
	assert.Empty(t, features)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarningScriptError, warnings[0].Code)
	assert.Equal(t, domain.SeverityError, warnings[0].Severity)
	assert.Contains(t, warnings[0].Message, "broken:")
}

func TestScriptScanner_SkipsDocumentsWithoutMatches(t *testing.T) {
	s := scanners.NewScriptScanner("never", `emit(1)`, []string{"comment"})

	features, warnings := scanSource(t, domain.TypeJS, "const a = 1;\n", s)
	assert.Empty(t, features)
	assert.Empty(t, warnings)
}
