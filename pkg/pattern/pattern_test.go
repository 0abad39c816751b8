package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{
			name:    "literal match",
			pattern: "/user/settings",
			path:    "/user/settings",
			want:    true,
		},
		{
			name:    "literal is anchored",
			pattern: "/user/settings",
			path:    "/user/settings/extra",
			want:    false,
		},
		{
			name:    "placeholder matches one segment",
			pattern: "/user/{userId}/details",
			path:    "/user/abc123/details",
			want:    true,
		},
		{
			name:    "placeholder does not span segments",
			pattern: "/user/{userId}",
			path:    "/user/a/b",
			want:    false,
		},
		{
			name:    "regex fragments pass through",
			pattern: "/hello/[0-9]/[A-z]/.*",
			path:    "/hello/8/b/doesntmatter-hehe",
			want:    true,
		},
		{
			name:    "regex fragment rejects",
			pattern: "/hello/[0-9]",
			path:    "/hello/x",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Matches(tt.path))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("/hello/[0-9")
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = Compile("/things?filter")
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = Compile("/things?=x")
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestPathParams(t *testing.T) {
	p, err := Compile("/user/{userId}/{thing_id}/{yepyep}")
	require.NoError(t, err)

	assert.Equal(t, []string{"userId", "thing_id", "yepyep"}, p.ParamNames())

	params := p.PathParams("/user/123/abc/Hello!")
	assert.Equal(t, map[string]string{
		"userId":   "123",
		"thing_id": "abc",
		"yepyep":   "Hello!",
	}, params)

	assert.Empty(t, p.PathParams("/nope"))
}

func TestQueryConstraints(t *testing.T) {
	p, err := Compile("/user/{id}/details?filter=*&version=1")
	require.NoError(t, err)

	assert.True(t, p.Matches("/user/42/details"))
	assert.Equal(t, map[string]string{"filter": "*", "version": "1"}, p.QueryConstraints())
}

func TestSatisfiesConstraints(t *testing.T) {
	constraints := map[string]string{"filter": "*", "version": "1"}

	tests := []struct {
		name   string
		actual map[string]string
		want   bool
	}{
		{
			name:   "wildcard accepts any value, literal matches",
			actual: map[string]string{"filter": "anything", "version": "1"},
			want:   true,
		},
		{
			name:   "missing constrained key",
			actual: map[string]string{"version": "1"},
			want:   false,
		},
		{
			name:   "wildcard rejects empty value",
			actual: map[string]string{"filter": "", "version": "1"},
			want:   false,
		},
		{
			name:   "literal mismatch",
			actual: map[string]string{"filter": "x", "version": "2"},
			want:   false,
		},
		{
			name:   "extra request params are ignored",
			actual: map[string]string{"filter": "x", "version": "1", "other": "y"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SatisfiesConstraints(constraints, tt.actual))
		})
	}
}

func TestParseQuery(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, ParseQuery("a=1&b=2"))
	assert.Equal(t, map[string]string{"a": "2"}, ParseQuery("a=1&a=2"), "later occurrence wins")
	assert.Equal(t, map[string]string{"flag": ""}, ParseQuery("flag"))
	assert.Empty(t, ParseQuery(""))
}

func TestSplitTarget(t *testing.T) {
	path, query := SplitTarget("/user/42?filter=all&x=1")
	assert.Equal(t, "/user/42", path)
	assert.Equal(t, "filter=all&x=1", query)

	path, query = SplitTarget("/plain")
	assert.Equal(t, "/plain", path)
	assert.Empty(t, query)
}
