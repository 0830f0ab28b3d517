package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorConfigDefaults(t *testing.T) {
	cfg := SelectorConfig{SendButton: "button.send"}.WithDefaults()

	assert.Equal(t, "button.send", cfg.SendButton)
	assert.Equal(t, DefaultSelectorConfig.MatchRoot, cfg.MatchRoot)
	assert.Equal(t, "data-match-id", cfg.MatchIDAttr)
}

func TestSelectorConfigCompile(t *testing.T) {
	s, err := SelectorConfig{}.Compile()
	require.NoError(t, err)

	node, err := ParseOne(`<div aria-label="Incoming message"><span dir="auto">hi</span></div>`)
	require.NoError(t, err)
	assert.True(t, node.Matches(s.IncomingMessage))
	assert.NotNil(t, node.Find(s.MessageText))
}

func TestSelectorConfigCompileInvalid(t *testing.T) {
	_, err := SelectorConfig{LikeButton: "button[aria-label="}.Compile()
	assert.Error(t, err)

	_, err = SelectorConfig{MessageText: "span["}.Compile()
	assert.Error(t, err)
}

func TestMatchItemSelector(t *testing.T) {
	raw := DefaultSelectorConfig.MatchItem("m1")
	assert.Equal(t, `[data-match-id="m1"]`, raw)

	node, err := ParseOne(`<ul><li data-match-id="m0"></li><li data-match-id="m1"></li></ul>`)
	require.NoError(t, err)
	found := node.Find(MustCompile(raw))
	require.NotNil(t, found)
	id, _ := found.Attr("data-match-id")
	assert.Equal(t, "m1", id)

	escaped := DefaultSelectorConfig.MatchItem(`a"b`)
	_, err = Compile(escaped)
	assert.NoError(t, err)
}
