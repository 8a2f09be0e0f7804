// Package events carries "mutation succeeded" notifications from whoever
// performed a change to the panels that display the affected lists.
package events

import (
	"sync"
)

// Topic names the kind of entity that changed.
type Topic string

const (
	TopicCourses   Topic = "courses"
	TopicQuizzes   Topic = "quizzes"
	TopicQuestions Topic = "questions"
)

// Mutation describes a successful change. Scope narrows it to a parent
// entity (course id for quizzes, test id for questions) and may be empty.
type Mutation struct {
	Topic  Topic
	Scope  string
	Action string
}

// Handler receives mutations synchronously on the publisher's goroutine.
type Handler func(Mutation)

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]Handler)}
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[topic], id)
		b.mu.Unlock()
	}
}

// Publish delivers m to every subscriber of m.Topic.
func (b *Bus) Publish(m Mutation) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[m.Topic]))
	for _, h := range b.subs[m.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(m)
	}
}
