// Package notify implements the user-visible notification (toast) channel.
//
// Every message is logged. If the context carries a Collector (installed per
// request by the HTTP middleware, or by the CLI), the message is also
// collected so the caller can show it.
package notify

import (
	"context"
	"sync"
	"time"

	"portfolio/pkg/logger"
)

// Level is the toast severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is one toast.
type Message struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Notifier logs toasts and forwards them to the context Collector.
type Notifier struct {
	log *logger.Logger
}

// New creates a Notifier. A nil log uses the default logger.
func New(log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Default()
	}
	return &Notifier{log: log.WithComponent("notify")}
}

func (n *Notifier) Success(ctx context.Context, message string) {
	n.log.WithContext(ctx).Infow("toast", "level", LevelSuccess, "message", message)
	n.collect(ctx, LevelSuccess, message)
}

func (n *Notifier) Failure(ctx context.Context, message string) {
	n.log.WithContext(ctx).Warnw("toast", "level", LevelError, "message", message)
	n.collect(ctx, LevelError, message)
}

func (n *Notifier) collect(ctx context.Context, level Level, text string) {
	if c := CollectorFrom(ctx); c != nil {
		c.Add(Message{Level: level, Text: text, At: time.Now().UTC()})
	}
}

// Collector accumulates toasts for one request or command.
type Collector struct {
	mu       sync.Mutex
	messages []Message
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

// Messages returns a copy of collected messages in arrival order.
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Last returns the most recent message.
func (c *Collector) Last() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

type collectorKey struct{}

// WithCollector attaches c to ctx.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// CollectorFrom returns the Collector attached to ctx, or nil.
func CollectorFrom(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}
