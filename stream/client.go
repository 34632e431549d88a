package stream

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Client reads frames from a Server.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a server, e.g. "ws://127.0.0.1:8787/ws".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks for the next frame.
func (c *Client) Next() (Message, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return Message{}, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		return Decode(data)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
