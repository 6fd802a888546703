// Package metadata holds the headers attached to dispatch tap messages.
package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// Header keys written on every tap message.
const (
	KeyBindingKey       = "binding_key"
	KeyChannel          = "channel"
	KeyConnectionID     = "connection_id"
	KeySucceeded        = "succeeded"
	KeyCorrelationToken = "correlation_token"
	KeySchema           = "event_message_schema"
)

// Metadata represents the headers carried alongside a tap record.
type Metadata map[string]string

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// With returns a cloned metadata map containing the provided key/value pair.
// Empty values are skipped so optional headers stay absent.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.Clone()
	if value != "" {
		cloned[key] = value
	}
	return cloned
}

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}

// ToWatermill converts the headers into a Watermill metadata map.
func ToWatermill(md Metadata) message.Metadata {
	wm := make(message.Metadata, len(md))
	for k, v := range md {
		wm[k] = v
	}
	return wm
}

// FromWatermill converts Watermill metadata back into headers.
func FromWatermill(md message.Metadata) Metadata {
	result := make(Metadata, len(md))
	for k, v := range md {
		result[k] = v
	}
	return result
}
