package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/cooper/internal/llm"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, llm.StripFences(tt.in))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":{"b":"}"}}`, llm.ExtractJSONObject(`Sure! {"a":{"b":"}"}} hope that helps`))
	assert.Equal(t, "", llm.ExtractJSONObject("no json here"))
	assert.Equal(t, "", llm.ExtractJSONObject(`{"unterminated": 1`))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		Insights []string `json:"insights"`
	}
	require.NoError(t, llm.DecodeJSON("Here you go:\n{\"insights\":[\"one\",\"two\"]}", &out))
	assert.Equal(t, []string{"one", "two"}, out.Insights)

	var m map[string]any
	assert.Error(t, llm.DecodeJSON("I cannot help with that.", &m))
}
