package pubsub

import (
	"errors"
	"sync"

	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	ErrDuplicateClientID    = errors.New("clientID is exist")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNilHandler           = errors.New("handler is nil")
)

type operation int

const (
	opSubscribe operation = iota
	opPublish
	opUnsubscribe
	opShutdown
)

// cmd is one request to the routing loop. An empty topic on opUnsubscribe
// drops every subscription of the client.
type cmd struct {
	op operation

	topic      Topic
	subscriber *Subscriber
	clientID   ClientID

	event Event
	// closed by the loop once every handler for event is counted in its
	// subscriber's wait group
	routed chan struct{}
}

// Publisher routes events to subscribers through a single loop goroutine, so
// events reach the routing step in the order Publish was called. Each handler
// call runs in its own goroutine.
//
// Publish returns only after the event has been routed: a Subscriber.Wait that
// starts after Publish returns also waits for the handlers of that event.
type Publisher struct {
	cmn.BaseService
	name string

	cmds chan cmd

	mtx           sync.RWMutex
	subscribers   map[ClientID]map[Topic]struct{} // client view, guarded by mtx
	subscriptions map[Topic]map[ClientID]*Subscriber // loop-owned routing table
}

func NewPublisher(name string, logger log.Logger) *Publisher {
	publisher := &Publisher{
		name:        name,
		cmds:        make(chan cmd),
		subscribers: make(map[ClientID]map[Topic]struct{}),
	}
	publisher.BaseService = *cmn.NewBaseService(logger, name, publisher)
	return publisher
}

func (publisher *Publisher) OnStart() error {
	publisher.subscriptions = make(map[Topic]map[ClientID]*Subscriber)
	go publisher.loop()
	return nil
}

func (publisher *Publisher) OnStop() {
	publisher.cmds <- cmd{op: opShutdown}
}

func (publisher *Publisher) HasSubscribed(clientID ClientID, topic Topic) bool {
	publisher.mtx.RLock()
	defer publisher.mtx.RUnlock()
	topics, ok := publisher.subscribers[clientID]
	if ok && len(topic) != 0 {
		_, ok = topics[topic]
	}
	return ok
}

func (publisher *Publisher) loop() {
	for c := range publisher.cmds {
		switch c.op {
		case opSubscribe:
			clients, ok := publisher.subscriptions[c.topic]
			if !ok {
				clients = make(map[ClientID]*Subscriber)
				publisher.subscriptions[c.topic] = clients
			}
			clients[c.clientID] = c.subscriber
		case opPublish:
			publisher.route(c.event)
			close(c.routed)
		case opUnsubscribe:
			if len(c.topic) == 0 {
				for topic := range publisher.subscriptions {
					publisher.remove(c.clientID, topic)
				}
			} else {
				publisher.remove(c.clientID, c.topic)
			}
		case opShutdown:
			publisher.subscriptions = make(map[Topic]map[ClientID]*Subscriber)
			return
		}
	}
}

// route counts every handler in its subscriber's wait group before starting it.
func (publisher *Publisher) route(event Event) {
	topic := event.GetTopic()
	for _, s := range publisher.subscriptions[topic] {
		handler := s.handler(topic)
		if handler == nil {
			continue
		}
		s.wg.Add(1)
		go func(s *Subscriber) {
			defer s.wg.Done()
			handler(event)
		}(s)
	}
}

func (publisher *Publisher) remove(clientID ClientID, topic Topic) {
	clients, ok := publisher.subscriptions[topic]
	if !ok {
		return
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(publisher.subscriptions, topic)
	}
}

// Publish routes e and returns once its handlers are started. Events published
// while the publisher is stopped are dropped.
func (publisher *Publisher) Publish(e Event) {
	if !publisher.IsRunning() {
		publisher.Logger.Debug("publisher not running, dropping event", "topic", e.GetTopic())
		return
	}
	routed := make(chan struct{})
	select {
	case publisher.cmds <- cmd{op: opPublish, event: e, routed: routed}:
	case <-publisher.Quit():
		return
	}
	select {
	case <-routed:
	case <-publisher.Quit():
	}
}
