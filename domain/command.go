package domain

type Command interface {
	RoomName() string
}

// SendMessageCommand is issued by the local UI to deliver a message to every member of a room.
type SendMessageCommand struct {
	Room     string `validate:"required,room"`
	Username string `validate:"required,max=64"`
	Content  string `validate:"required,max=4096"`
}

func (c SendMessageCommand) RoomName() string {
	return c.Room
}

// GetMessagesCommand reads a page of history, newest first.
type GetMessagesCommand struct {
	Room   string `validate:"required,room"`
	Cursor *string
}

func (c GetMessagesCommand) RoomName() string {
	return c.Room
}
