package tui

import (
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"

	"github.com/google/uuid"
)

// Intents emitted by the views, carried out by the App against the node
type (
	joinRoomMsg    struct{ room string }
	addRoomMsg     struct{ room string }
	leaveRoomMsg   struct{ room string }
	sendMessageMsg struct{ room, content string }
	searchMsg      struct{ query string }
	navigateMsg    struct{ path string }
	setUsernameMsg struct{ username string }
)

// Outcomes and pushes from the node
type (
	identityMsg     struct{ identity domain.Identity }
	roomsMsg        struct{ rooms api.Rooms }
	roomJoinedMsg   struct{ room string }
	roomLeftMsg     struct{ room string }
	incomingMsg     struct{ message domain.Message }
	searchResultMsg struct {
		query string
		hits  []api.SearchHit
	}
	verificationMsg struct{ event client.VerificationEvent }
	answeredMsg     struct {
		id     uuid.UUID
		accept bool
		err    error
	}
	statusMsg       string
	errMsg          struct{ err error }
)
