package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionDescriptorUnmarshal(t *testing.T) {
	t.Run("object params", func(t *testing.T) {
		var a ActionDescriptor
		err := json.Unmarshal([]byte(`{"type": "add_task", "params": {"task": "buy milk"}}`), &a)
		require.NoError(t, err)
		assert.Equal(t, "add_task", a.Type)
		assert.Equal(t, "buy milk", a.Params["task"])
	})

	t.Run("string params become message", func(t *testing.T) {
		var a ActionDescriptor
		err := json.Unmarshal([]byte(`{"type": "chat", "params": "tell me a joke"}`), &a)
		require.NoError(t, err)
		assert.Equal(t, "chat", a.Type)
		assert.Equal(t, "tell me a joke", a.Params["message"])
	})

	t.Run("missing params", func(t *testing.T) {
		var a ActionDescriptor
		err := json.Unmarshal([]byte(`{"type": "list_habits"}`), &a)
		require.NoError(t, err)
		assert.Nil(t, a.Params)
	})

	t.Run("unusable params shape dropped", func(t *testing.T) {
		var a ActionDescriptor
		err := json.Unmarshal([]byte(`{"type": "chat", "params": [1, 2]}`), &a)
		require.NoError(t, err)
		assert.Nil(t, a.Params)
	})
}
