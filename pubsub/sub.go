package pubsub

import "sync"

type ClientID string

// Subscriber is one named client of a Publisher. Its handlers share a wait
// group, which Wait drains.
type Subscriber struct {
	clientID ClientID
	pub      *Publisher

	mtx      sync.RWMutex
	handlers map[Topic]Handler
	wg       *sync.WaitGroup
}

func (publisher *Publisher) NewSubscriber(clientID ClientID) (*Subscriber, error) {
	publisher.mtx.Lock()
	defer publisher.mtx.Unlock()
	_, ok := publisher.subscribers[clientID]
	if ok {
		return nil, ErrDuplicateClientID
	}
	sub := &Subscriber{
		clientID: clientID,
		pub:      publisher,
		handlers: make(map[Topic]Handler),
		wg:       &sync.WaitGroup{},
	}
	publisher.subscribers[clientID] = make(map[Topic]struct{})
	return sub, nil
}

func (s *Subscriber) handler(topic Topic) Handler {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.handlers[topic]
}

func (s *Subscriber) Subscribe(topic Topic, handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}
	s.pub.mtx.RLock()
	subscribers, ok := s.pub.subscribers[s.clientID]
	if ok {
		_, ok = subscribers[topic]
	}
	s.pub.mtx.RUnlock()
	if ok {
		return ErrAlreadySubscribed
	}

	s.mtx.Lock()
	s.handlers[topic] = handler
	s.mtx.Unlock()

	select {
	case s.pub.cmds <- cmd{op: opSubscribe, topic: topic, subscriber: s, clientID: s.clientID}:
		s.pub.mtx.Lock()
		if _, ok := s.pub.subscribers[s.clientID]; !ok {
			s.pub.subscribers[s.clientID] = make(map[Topic]struct{})
		}
		s.pub.subscribers[s.clientID][topic] = struct{}{}
		s.pub.mtx.Unlock()
		return nil
	case <-s.pub.Quit():
		return nil
	}
}

func (s *Subscriber) Unsubscribe(topic Topic) error {
	s.pub.mtx.RLock()
	subscribers, ok := s.pub.subscribers[s.clientID]
	if ok {
		_, ok = subscribers[topic]
	}
	s.pub.mtx.RUnlock()
	if !ok {
		return ErrSubscriptionNotFound
	}
	select {
	case s.pub.cmds <- cmd{op: opUnsubscribe, clientID: s.clientID, topic: topic}:
		s.pub.mtx.Lock()
		delete(s.pub.subscribers[s.clientID], topic)
		s.pub.mtx.Unlock()
		return nil
	case <-s.pub.Quit():
		return nil
	}
}

func (s *Subscriber) UnsubscribeAll() error {
	s.pub.mtx.RLock()
	_, ok := s.pub.subscribers[s.clientID]
	s.pub.mtx.RUnlock()
	if !ok {
		return ErrSubscriptionNotFound
	}
	select {
	case s.pub.cmds <- cmd{op: opUnsubscribe, clientID: s.clientID}:
		s.pub.mtx.Lock()
		delete(s.pub.subscribers, s.clientID)
		s.pub.mtx.Unlock()
		return nil
	case <-s.pub.Quit():
		return nil
	}
}

// Wait blocks until the handlers of every event whose Publish has already
// returned have finished. Handlers of events published concurrently with Wait
// may or may not be waited for.
func (s *Subscriber) Wait() {
	s.wg.Wait()
}
