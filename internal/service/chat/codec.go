package chat

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
)

// encodeConversations serialises the list in order. ConfigStd keeps
// encoding/json semantics, including the Content marshalers.
func encodeConversations(conversations []chat.Conversation) ([]byte, error) {
	if conversations == nil {
		conversations = []chat.Conversation{}
	}
	return sonic.ConfigStd.Marshal(conversations)
}

func decodeConversations(data []byte) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	if err := sonic.ConfigStd.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	for i := range conversations {
		if conversations[i].Messages == nil {
			conversations[i].Messages = []chat.Message{}
		}
	}
	return conversations, nil
}
