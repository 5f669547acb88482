package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairUnmarshalKeepsObjectOrder(t *testing.T) {
	t.Parallel()

	var p Pair
	require.NoError(t, json.Unmarshal([]byte(`{"es":"hola","en":"hello"}`), &p))
	assert.Equal(t, []string{"es", "en"}, p.Langs())

	text, ok := p.Text("en")
	assert.True(t, ok)
	assert.Equal(t, "hello", text)

	_, ok = p.Text("fr")
	assert.False(t, ok)
}

func TestPairUnmarshalList(t *testing.T) {
	t.Parallel()

	var p Pair
	require.NoError(t, json.Unmarshal([]byte(`[{"lang":"en","text":"cat"},{"lang":"de","text":"Katze"}]`), &p))
	assert.Equal(t, NewPair("en", "cat", "de", "Katze"), p)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"lang":"en","text":"cat"},{"lang":"de","text":"Katze"}]`, string(data))

	assert.ErrorIs(t, json.Unmarshal([]byte(`"nope"`), &p), ErrInvalidFormat)
}

func TestSectionHeader(t *testing.T) {
	t.Parallel()

	header := NewPair("en", "[[ Greetings ]]", "es", "[[Saludos]]")
	assert.True(t, header.IsSectionHeader())
	assert.Equal(t, "Greetings", HeaderText(header.Entries[0].Text))
	assert.Equal(t, "Saludos", HeaderText(header.Entries[1].Text))

	mixed := NewPair("en", "[[Greetings]]", "es", "hola")
	assert.False(t, mixed.IsSectionHeader())
	assert.False(t, Pair{}.IsSectionHeader())
	assert.Equal(t, "hola", HeaderText(" hola "))
	assert.Equal(t, "[[]", HeaderText("[[]"))
}

func TestListeningSetValidate(t *testing.T) {
	t.Parallel()

	set, err := NewListeningSet("Basics", []string{"en", "es"}, []Pair{
		NewPair("en", "[[Animals]]", "es", "[[Animales]]"),
		NewPair("en", "dog", "es", "perro"),
		NewPair("en", "cat", "es", "gato"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, set.ScoredPairs())

	_, err = NewListeningSet("Broken", nil, []Pair{NewPair("en", "  ")})
	assert.ErrorIs(t, err, ErrPairTextEmpty)

	_, err = NewListeningSet("Broken", nil, []Pair{{}})
	assert.ErrorIs(t, err, ErrPairEmpty)
}
