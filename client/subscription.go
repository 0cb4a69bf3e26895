/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TopicSubscribe is the topic of the message that starts a subscription.
const TopicSubscribe = "openeo.subscribe"

// ErrStopSubscription can be returned by a MessageHandler to end a subscription without error.
var ErrStopSubscription = errors.New("stop subscription")

// Message is a message exchanged over the subscription channel.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Issued  time.Time       `json:"issued"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageHandler receives the messages of a subscription.
type MessageHandler func(msg *Message) error

// Subscribe opens the subscription channel of the back-end, subscribes to topic and passes every
// received message to fn until ctx is done, the back-end closes the channel or fn returns an error.
// params are sent along with the topic, e.g. {"job_id": "..."}.
func (c *Connection) Subscribe(ctx context.Context, topic string, params map[string]any, fn MessageHandler) error {
	u := *c.baseURL.JoinPath("subscription")
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	c.authorize(header)
	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("subscribe: %w", errorFromStatus(resp.StatusCode))
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	request, err := subscribeMessage(topic, params)
	if err != nil {
		return err
	}
	if err = conn.WriteMessage(websocket.TextMessage, request); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("subscription: %w", err)
		}

		msg := &Message{}
		if err = sonic.Unmarshal(data, msg); err != nil {
			c.logger.Warnf("subscription: skip malformed message: %v", err)
			continue
		}
		if err = fn(msg); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if errors.Is(err, ErrStopSubscription) {
				return nil
			}
			return err
		}
	}
}

func subscribeMessage(topic string, params map[string]any) ([]byte, error) {
	entry := make(map[string]any, len(params)+1)
	for k, v := range params {
		entry[k] = v
	}
	entry["topic"] = topic

	payload, err := sonic.Marshal(map[string]any{"topics": []any{entry}})
	if err != nil {
		return nil, fmt.Errorf("encode subscription: %w", err)
	}
	return sonic.Marshal(&Message{
		ID:      uuid.NewString(),
		Issued:  time.Now().UTC(),
		Topic:   TopicSubscribe,
		Payload: payload,
	})
}
