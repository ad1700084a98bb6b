package expression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite_DottedReferencesBracketEscaped(t *testing.T) {
	assert.Equal(t,
		`[stream.parsedFile.resolution] == '1080p'`,
		rewrite(`stream.parsedFile.resolution == '1080p'`))
}

func TestRewrite_WordOperators(t *testing.T) {
	assert.Equal(t, `a && b || ! c`, rewrite(`a and b or not c`))
}

func TestRewrite_QuotedStringsUntouched(t *testing.T) {
	// "and" inside the literal must survive; the one outside must not.
	assert.Equal(t,
		`contains(title, 'Band of Brothers and Sisters') && cached`,
		rewrite(`contains(title, 'Band of Brothers and Sisters') and cached`))
}

func TestRewrite_SeadexPredicate(t *testing.T) {
	assert.Equal(t, `__seadex_is_seadex == true`, rewrite(`seadex()`))
}

func TestCompile_FailureCarriesExpression(t *testing.T) {
	_, err := Compile(`resolution == (((`)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, `resolution == (((`, ce.Expression)
}

func TestEvaluateBool_DottedStreamField(t *testing.T) {
	c, err := Compile(`stream.parsedFile.resolution == '1080p' and stream.cached`)
	require.NoError(t, err)

	ok, err := c.EvaluateBool(map[string]interface{}{
		"stream.parsedFile.resolution": "1080p",
		"stream.cached":                true,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.EvaluateBool(map[string]interface{}{
		"stream.parsedFile.resolution": "720p",
		"stream.cached":                true,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateBool_NilFieldComparesUnequal(t *testing.T) {
	c, err := Compile(`title == 'Arrival'`)
	require.NoError(t, err)

	ok, err := c.EvaluateBool(map[string]interface{}{"title": nil})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateBool_NonBooleanResultIsFalse(t *testing.T) {
	c, err := Compile(`size`)
	require.NoError(t, err)

	ok, err := c.EvaluateBool(map[string]interface{}{"size": float64(42)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineFunctions(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		params map[string]interface{}
		want   bool
	}{
		{"exists true", `exists(title)`, map[string]interface{}{"title": "x"}, true},
		{"exists nil", `exists(title)`, map[string]interface{}{"title": nil}, false},
		{"istrue", `istrue(cached)`, map[string]interface{}{"cached": true}, true},
		{"istrue non-bool", `istrue(cached)`, map[string]interface{}{"cached": "yes"}, false},
		{"isfalse", `isfalse(cached)`, map[string]interface{}{"cached": false}, true},
		{"contains case-insensitive", `contains(filename, 'subsplease')`, map[string]interface{}{"filename": "[SubsPlease] Frieren"}, true},
		{"in scalar list", `resolution in ('1080p', '2160p')`, map[string]interface{}{"resolution": "2160p"}, true},
		{"in slice param", `'HDR' in stream.parsedFile.visualTags`, map[string]interface{}{"stream.parsedFile.visualTags": []interface{}{"HDR", "DV"}}, true},
		{"in miss", `resolution in ('1080p', '480p')`, map[string]interface{}{"resolution": "720p"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compile(tt.expr)
			require.NoError(t, err)
			ok, err := c.EvaluateBool(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestEvaluateNumber_Coercions(t *testing.T) {
	c, err := Compile(`size * 2`)
	require.NoError(t, err)
	n, err := c.EvaluateNumber(map[string]interface{}{"size": float64(21)})
	require.NoError(t, err)
	assert.Equal(t, float64(42), n)
}

func TestEngine_GetCachesCompilationsAndFailures(t *testing.T) {
	e := NewEngine()

	c1, err := e.Get(`cached`)
	require.NoError(t, err)
	c2, err := e.Get(`cached`)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err1 := e.Get(`((`)
	require.Error(t, err1)
	_, err2 := e.Get(`((`)
	assert.Equal(t, err1, err2)
}

func TestSelect_ReturnsMatchingSubset(t *testing.T) {
	e := NewEngine()
	items := []map[string]interface{}{
		{"resolution": "2160p"},
		{"resolution": "1080p"},
		{"resolution": "2160p"},
	}
	out, err := Select(e, items, `resolution == '2160p'`, func(m map[string]interface{}) map[string]interface{} { return m })
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestSelect_CompileErrorPropagates(t *testing.T) {
	e := NewEngine()
	_, err := Select(e, []int{1}, `((`, func(int) map[string]interface{} { return nil })
	assert.Error(t, err)
}
