package wm

// EventType identifies a compositor event.
type EventType string

const (
	EventWindowOpened      EventType = "window.opened"
	EventWindowClosed      EventType = "window.closed"
	EventGroupCreated      EventType = "snapgroup.created"
	EventGroupDissolved    EventType = "snapgroup.dissolved"
	EventGroupWindowAdded  EventType = "snapgroup.window-added"
	EventGroupWindowRemove EventType = "snapgroup.window-removed"
)

// Event is published after the state change it describes.
type Event struct {
	Type     EventType `json:"type" yaml:"type"`
	WindowID string    `json:"windowId,omitempty" yaml:"windowId,omitempty"`
	GroupID  string    `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	LayoutID LayoutID  `json:"layoutId,omitempty" yaml:"layoutId,omitempty"`
	SlotID   SlotID    `json:"slotId,omitempty" yaml:"slotId,omitempty"`
}

// Publisher receives compositor events. Publish must not block and must
// not call back into the Manager.
type Publisher interface {
	Publish(Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
