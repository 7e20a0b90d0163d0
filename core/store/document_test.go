package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKeepsInsertionOrder(t *testing.T) {
	doc := NewDocument()
	doc.SetWelcome(-100300, "third <b>&</b>")
	doc.SetWelcome(-100100, "first")
	doc.SetWelcome(-100300, "overwritten")
	doc.AddGroup(-100222)
	doc.AddGroup(-100111)
	doc.AddGroup(-100222)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"welcome":{"-100300":"overwritten","-100100":"first"},"groups":[-100222,-100111]}`, string(data))
}

func TestEncodeIndentedLayout(t *testing.T) {
	doc := NewDocument()
	doc.SetWelcome(-100123, "Hi {name} & <friends>, ¡bienvenido!")
	doc.AddGroup(-100123)

	data, err := encodeIndented(doc)
	require.NoError(t, err)
	want := "{\n" +
		"  \"welcome\": {\n" +
		"    \"-100123\": \"Hi {name} & <friends>, ¡bienvenido!\"\n" +
		"  },\n" +
		"  \"groups\": [\n" +
		"    -100123\n" +
		"  ]\n" +
		"}\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeIndentedEmpty(t *testing.T) {
	data, err := encodeIndented(NewDocument())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"welcome\": {},\n  \"groups\": []\n}\n", string(data))
}

func TestDocumentUnmarshal(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"welcome":{"5":"five","-3":"minus three"},"groups":[7,7,-9]}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, []WelcomeEntry{{ChatID: 5, Text: "five"}, {ChatID: -3, Text: "minus three"}}, doc.Welcomes())
	assert.Equal(t, []int64{7, -9}, doc.Groups())
}

func TestDocumentUnmarshalEmptySections(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"groups":[],"welcome":{}}`), &doc))
	assert.Empty(t, doc.Welcomes())
	assert.Empty(t, doc.Groups())

	_, ok := doc.Welcome(1)
	assert.False(t, ok)
	doc.SetWelcome(1, "x")
	text, ok := doc.Welcome(1)
	assert.True(t, ok)
	assert.Equal(t, "x", text)
}

func TestDocumentUnmarshalRejectsBadShape(t *testing.T) {
	cases := map[string]string{
		"array":          `[]`,
		"welcome list":   `{"welcome":[],"groups":[]}`,
		"non-int key":    `{"welcome":{"abc":"x"},"groups":[]}`,
		"non-string val": `{"welcome":{"1":2},"groups":[]}`,
		"group string":   `{"welcome":{},"groups":["x"]}`,
		"truncated":      `{"welcome":{`,
		"null":           `null`,
		"string":         `"x"`,
		"empty object":   `{}`,
		"null sections":  `{"welcome":null,"groups":null}`,
		"null welcome":   `{"welcome":null,"groups":[]}`,
		"null groups":    `{"welcome":{},"groups":null}`,
		"unknown only":   `{"other":1}`,
		"wrong case":     `{"Welcome":{"1":"x"},"Groups":[]}`,
		"extra key":      `{"welcome":{},"groups":[],"other":1}`,
		"no groups":      `{"welcome":{"1":"x"}}`,
		"no welcome":     `{"groups":[1]}`,
		"duplicate key":  `{"welcome":{},"groups":[],"groups":[]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			var doc Document
			assert.Error(t, json.Unmarshal([]byte(input), &doc))
		})
	}
}
