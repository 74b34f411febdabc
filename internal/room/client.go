package room

// Client is one connected session's outbound mailbox. The gateway drains
// the channel into the transport; every producer sends through Deliver.
// The channel is never closed, so Deliver stays safe against a racing
// disconnect.
type Client struct {
	ID   string
	Send chan []byte
}

// NewClient returns a client with a buffered mailbox.
func NewClient(id string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 64)}
}

// Deliver drops the message when the buffer is full rather than blocking
// room mutation on a slow consumer.
func (c *Client) Deliver(data []byte) {
	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}
