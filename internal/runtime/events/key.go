package events

// Key identifies a binding: one handler per element and event type.
type Key struct {
	ElementID string
	EventType string
}

// NewKey builds a Key.
func NewKey(elementID, eventType string) Key {
	return Key{ElementID: elementID, EventType: eventType}
}

// String renders the key as "element_id:event_type".
func (k Key) String() string {
	return k.ElementID + ":" + k.EventType
}
