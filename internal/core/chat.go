package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/models"
)

// ChatThread is the stub chat behind the comparison screen: every message
// gets the same canned reply after a fixed delay.
type ChatThread struct {
	replyDelay  time.Duration
	cannedReply string
	after       AfterFunc
	onChange    func([]models.Message)
	log         *logrus.Entry

	mu       sync.Mutex
	messages []models.Message
	ctx      context.Context
	cancel   context.CancelFunc
	pending  sync.WaitGroup
}

type ChatOption func(*ChatThread)

// WithAfter replaces time.After for the reply delay.
func WithAfter(after AfterFunc) ChatOption {
	return func(c *ChatThread) {
		c.after = after
	}
}

// WithChatListener registers fn to receive the full thread after every
// change. It is called with the thread lock held.
func WithChatListener(fn func([]models.Message)) ChatOption {
	return func(c *ChatThread) {
		c.onChange = fn
	}
}

func NewChatThread(replyDelay time.Duration, cannedReply string, log *logrus.Entry, opts ...ChatOption) *ChatThread {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ChatThread{
		replyDelay:  replyDelay,
		cannedReply: cannedReply,
		after:       time.After,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends the user's message and schedules the canned reply. Blank
// messages are ignored.
func (c *ChatThread) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, models.Message{Content: text, Type: models.User})
	c.notifyLocked()

	ctx := c.ctx
	wait := c.after(c.replyDelay)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		select {
		case <-ctx.Done():
			return
		case <-wait:
		}
		c.reply(ctx)
	}()
	return true
}

func (c *ChatThread) reply(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	c.messages = append(c.messages, models.Message{Content: c.cannedReply, Type: models.Assistant})
	c.notifyLocked()
	c.log.Debug("canned chat reply appended")
}

func (c *ChatThread) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Reset discards the thread and any reply still waiting to be delivered.
func (c *ChatThread) Reset() {
	c.mu.Lock()
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.messages = nil
	c.mu.Unlock()

	c.pending.Wait()
}

// Close cancels pending replies for good.
func (c *ChatThread) Close() {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()

	c.pending.Wait()
}

func (c *ChatThread) copyLocked() []models.Message {
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *ChatThread) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.copyLocked())
	}
}
