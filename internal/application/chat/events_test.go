package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvent_WireFormat 事件类型与 JSON 字段是前端依赖的线上契约
func TestEvent_WireFormat(t *testing.T) {
	assert.Equal(t, EventType("processing"), EventProcessing)
	assert.Equal(t, EventType("message-chunk"), EventMessageChunk)
	assert.Equal(t, EventType("error"), EventError)

	data, err := json.Marshal(NewMessageChunkEvent("c1", "hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message-chunk","conversationId":"c1","chunk":"hello"}`, string(data))

	data, err = json.Marshal(NewProcessingCompletedEvent("c1", "Title"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"processing","conversationId":"c1","status":"completed","title":"Title"}`, string(data))
}
