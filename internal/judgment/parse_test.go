package judgment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment/judgmenttest"
)

func TestParse_Valid(t *testing.T) {
	res, vs, err := Parse(judgmenttest.JSON(nil))
	require.NoError(t, err)
	require.Empty(t, vs)
	require.NotNil(t, res)
	assert.Equal(t, PersonaCoach, res.Personas[2].Name)
}

func TestParse_Fenced(t *testing.T) {
	raw := "```json\n" + judgmenttest.JSON(nil) + "\n```\n"
	res, vs, err := Parse(raw)
	require.NoError(t, err)
	require.Empty(t, vs)
	require.NotNil(t, res)
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", "```json\n```"} {
		_, _, err := Parse(raw)
		assert.True(t, errors.Is(err, ErrEmpty), "raw=%q err=%v", raw, err)
	}
}

func TestParse_NotJSON(t *testing.T) {
	res, vs, err := Parse("Sure! Here is my judgment: you were fine.")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmpty))
	assert.Nil(t, res)
	assert.Nil(t, vs)
}

func TestParse_SchemaViolation(t *testing.T) {
	res, vs, err := Parse(`{"paraphrase": "x", "summary": "y", "personas": []}`)
	require.NoError(t, err)
	assert.Nil(t, res)
	require.Len(t, vs, 1)
	assert.Equal(t, "personas", vs[0].Path)
}

func TestParse_SingleLineFence(t *testing.T) {
	res, vs, err := Parse("```" + judgmenttest.JSON(nil) + "```")
	require.NoError(t, err)
	require.Empty(t, vs)
	require.NotNil(t, res)
	assert.Len(t, res.Personas, 3)
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  {"a":1}  `, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`},
		{"```", ""},
		{"```json```", ""},
		{"```{\"a\":1}```", `{"a":1}`},
		{"```json{\"a\":1}```", `{"a":1}`},
		{"``` [1,2] ```", `[1,2]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFence(tt.in), "input %q", tt.in)
	}
}

func TestParse_IgnoresUnknownKeys(t *testing.T) {
	raw := judgmenttest.JSON(func(p map[string]any) {
		p["confidence"] = 0.9
		judgmenttest.Personas(p)[0].(map[string]any)["tone"] = "warm"
	})
	res, vs, err := Parse(raw)
	require.NoError(t, err)
	require.Empty(t, vs)
	require.NotNil(t, res)
}
