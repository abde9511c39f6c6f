package taskhub

// Topics used by BindBus when fanning realtime events out to subscribers.
const (
	TopicMessages      = "taskhub.messages"
	TopicNotifications = "taskhub.notifications"
	TopicPresence      = "taskhub.presence"
)

// Bus is an in-process publish/subscribe channel. It decouples the socket
// layer from arbitrarily many subscribers that hold no reference to the
// client, the way the web app fans notification payloads out to unrelated
// view trees.
type Bus struct {
	d *Dispatcher
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{d: NewDispatcher()}
}

// SetLogger overrides the logger used for subscriber failures.
func (b *Bus) SetLogger(l Logger) { b.d.SetLogger(l) }

// Subscribe registers fn for topic and returns its cancel closure.
func (b *Bus) Subscribe(topic string, fn func(any)) func() {
	return b.d.On(topic, fn)
}

// Publish delivers payload to every subscriber of topic. Subscriber panics
// are isolated and logged.
func (b *Bus) Publish(topic string, payload any) {
	b.d.Emit(topic, payload)
}

// BindBus republishes the client's message, notification and presence events
// onto the bus. The returned closure unbinds everything.
func BindBus(c *Client, b *Bus) func() {
	unsubs := []func(){
		c.OnMessage(func(m Message) { b.Publish(TopicMessages, m) }),
		c.OnNotification(func(n Notification) { b.Publish(TopicNotifications, n) }),
		c.OnStatus(func(s StatusUpdate) { b.Publish(TopicPresence, s) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
