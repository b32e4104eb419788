package chat

import (
	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// sendDoneMsg is returned when a send's stream has ended
type sendDoneMsg struct {
	dispatcher *stream.Dispatcher
	err        error
}

type historyLoadedMsg struct {
	conversationID string
	messages       []api.StoredMessage
	err            error
}

type conversationDeletedMsg struct {
	conversationID string
	err            error
}

type panelRefreshedMsg struct {
	err error
}
