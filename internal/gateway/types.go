// Package gateway is the boundary to the external messaging gateway: it
// receives inbound structured updates over a webhook and sends outbound
// messages over the gateway's HTTP API. Everything chat-transport-specific
// stays inside this package.
package gateway

// UpdateKind is the closed set of inbound update variants.
type UpdateKind string

const (
	UpdateCommand     UpdateKind = "command"
	UpdateFreeText    UpdateKind = "free_text"
	UpdateButtonPress UpdateKind = "button_press"
)

// Update is one inbound user action delivered by the gateway.
type Update struct {
	Kind         UpdateKind `json:"kind"`
	SenderID     int64      `json:"sender_id"`
	SenderName   string     `json:"sender_name"`
	SenderHandle string     `json:"sender_handle"`

	// Command updates.
	Command  string `json:"command,omitempty"`
	Argument string `json:"argument,omitempty"`

	// Free text updates; ImageRef is set when an image is attached.
	Text     string `json:"text,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`

	// Button press updates.
	Token string `json:"token,omitempty"`
}

// Button is one interactive control attached to an outbound message. Token
// comes back verbatim in a ButtonPress update.
type Button struct {
	Text  string `json:"text"`
	Token string `json:"token"`
}

// Row groups buttons rendered on one line.
type Row []Button
