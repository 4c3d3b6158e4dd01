package sensor

import (
	"context"
	"errors"
	"sync"
)

// Family identifies a kind of sensor stream.
type Family string

const (
	FamilyLocation    Family = "location"
	FamilyMotion      Family = "motion"
	FamilyFace        Family = "face"
	FamilyOrientation Family = "orientation"
)

// Handler receives samples pushed by a stream.
type Handler func(Sample)

// Subscription is an active registration on a Stream.
type Subscription interface {
	Stop()
}

// Stream is a push-based sample source that can be started and stopped.
type Stream interface {
	Subscribe(h Handler) (Subscription, error)
}

// Sources bundles the streams a session may subscribe to. Unused
// families may be nil.
type Sources struct {
	Location    Stream
	Motion      Stream
	Face        Stream
	Orientation Stream
}

// Stream returns the stream for a family, or nil.
func (s Sources) Stream(f Family) Stream {
	switch f {
	case FamilyLocation:
		return s.Location
	case FamilyMotion:
		return s.Motion
	case FamilyFace:
		return s.Face
	case FamilyOrientation:
		return s.Orientation
	}
	return nil
}

// PermissionChecker asks the platform whether a sensor family may be used.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, f Family) error
}

// ErrDenied is returned by checkers when access was refused.
var ErrDenied = errors.New("sensor access denied")

// AllowAll grants every family.
type AllowAll struct{}

func (AllowAll) CheckPermission(context.Context, Family) error { return nil }

// DenyAll refuses every family.
type DenyAll struct{}

func (DenyAll) CheckPermission(context.Context, Family) error { return ErrDenied }

// Feed is an in-memory Stream. Push delivers a sample synchronously to
// every current subscriber; samples pushed with no subscriber are dropped.
type Feed struct {
	mu       sync.Mutex
	next     int
	handlers map[int]Handler
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{handlers: make(map[int]Handler)}
}

// Subscribe registers h until the returned subscription is stopped.
func (f *Feed) Subscribe(h Handler) (Subscription, error) {
	if h == nil {
		return nil, errors.New("nil handler")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.handlers[id] = h
	return &feedSubscription{feed: f, id: id}, nil
}

// Push delivers s to all subscribers. It reports whether anyone received it.
func (f *Feed) Push(s Sample) bool {
	f.mu.Lock()
	handlers := make([]Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(s)
	}
	return len(handlers) > 0
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type feedSubscription struct {
	feed *Feed
	id   int
	once sync.Once
}

func (s *feedSubscription) Stop() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.handlers, s.id)
		s.feed.mu.Unlock()
	})
}
