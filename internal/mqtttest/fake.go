// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Token is an mqtt.Token. It is complete at once unless Gate is set, in
// which case it completes when Gate is closed.
type Token struct {
	Err  error
	Gate <-chan struct{}
}

func (t *Token) Wait() bool {
	<-t.Done()
	return true
}

func (t *Token) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.Done():
		return true
	case <-time.After(d):
		return false
	}
}

func (t *Token) Error() error { return t.Err }

func (t *Token) Done() <-chan struct{} {
	if t.Gate != nil {
		return t.Gate
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Message is a received message.
type Message struct {
	mqtt.Message
	TopicName string
	Body      []byte
	Retain    bool
}

func (m *Message) Topic() string   { return m.TopicName }
func (m *Message) Payload() []byte { return m.Body }
func (m *Message) Retained() bool  { return m.Retain }
func (m *Message) Qos() byte       { return 0 }
func (m *Message) Ack()            {}

// Published is one recorded Publish call.
type Published struct {
	Topic    string
	Retained bool
	Payload  []byte
}

// Client records publishes and routes Deliver calls to subscribed handlers.
// Topics are matched exactly; wildcards are not supported.
type Client struct {
	mqtt.Client

	// PublishErr, when set, is returned by every Publish token
	PublishErr error
	// SubscribeErr, when set, is returned by every Subscribe token
	SubscribeErr error

	// ConnectErr, when set, is returned by the Connect token
	ConnectErr error

	// PublishGate, when set, holds back the completion of every Publish
	// token until it is closed, like a broker acknowledgement still in flight
	PublishGate chan struct{}

	mu         sync.Mutex
	published  []Published
	handlers   map[string]mqtt.MessageHandler
	subscribed chan string
}

// NewClient returns an empty fake client.
func NewClient() *Client {
	return &Client{
		handlers:   make(map[string]mqtt.MessageHandler),
		subscribed: make(chan string, 64),
	}
}

func (c *Client) IsConnected() bool      { return true }
func (c *Client) IsConnectionOpen() bool { return true }
func (c *Client) Connect() mqtt.Token    { return &Token{Err: c.ConnectErr} }
func (c *Client) Disconnect(_ uint)      {}

func (c *Client) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = append([]byte(nil), p...)
	case string:
		body = []byte(p)
	}

	c.mu.Lock()
	c.published = append(c.published, Published{Topic: topic, Retained: retained, Payload: body})
	c.mu.Unlock()

	return &Token{Err: c.PublishErr, Gate: c.PublishGate}
}

func (c *Client) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	if c.SubscribeErr != nil {
		return &Token{Err: c.SubscribeErr}
	}
	c.mu.Lock()
	c.handlers[topic] = callback
	c.mu.Unlock()

	select {
	case c.subscribed <- topic:
	default:
	}
	return &Token{}
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.mu.Unlock()
	return &Token{}
}

// Subscribed returns a channel receiving every subscribed topic.
func (c *Client) Subscribed() <-chan string {
	return c.subscribed
}

// Deliver invokes the handler subscribed to topic. It reports whether one was found.
func (c *Client) Deliver(topic string, payload []byte) bool {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()

	if h == nil {
		return false
	}
	h(c, &Message{TopicName: topic, Body: payload})
	return true
}

// Published returns a copy of every publish so far.
func (c *Client) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.published...)
}

// LastPublished returns the latest publish on topic.
func (c *Client) LastPublished(topic string) (Published, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.published) - 1; i >= 0; i-- {
		if c.published[i].Topic == topic {
			return c.published[i], true
		}
	}
	return Published{}, false
}

// Reset forgets recorded publishes.
func (c *Client) Reset() {
	c.mu.Lock()
	c.published = nil
	c.mu.Unlock()
}
