package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/notification"
)

// ErrDirectoryDown is what FakeResolver returns for handles marked failing.
var ErrDirectoryDown = errors.New("directory unavailable")

// FakeResolver is an in-memory identity directory.
type FakeResolver struct {
	mu         sync.Mutex
	members    map[string]*identity.Member
	mobiles    map[string]*identity.Member
	businesses map[string]*identity.Business
	failing    map[string]bool
}

// NewFakeResolver returns an empty directory.
func NewFakeResolver() *FakeResolver {
	return &FakeResolver{
		members:    map[string]*identity.Member{},
		mobiles:    map[string]*identity.Member{},
		businesses: map[string]*identity.Business{},
		failing:    map[string]bool{},
	}
}

// AddMember registers m under its card and, when set, its mobile number.
func (f *FakeResolver) AddMember(m identity.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.CardNumber] = &m
	if m.MobileNumber != "" {
		f.mobiles[m.MobileNumber] = &m
	}
}

// AddBusiness registers b.
func (f *FakeResolver) AddBusiness(b identity.Business) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.businesses[b.BusinessID] = &b
}

// Fail makes every lookup of handle fail.
func (f *FakeResolver) Fail(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[handle] = true
}

func (f *FakeResolver) lookup(handle string, in map[string]*identity.Member) (*identity.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[handle] {
		return nil, ErrDirectoryDown
	}
	if m, ok := in[handle]; ok {
		return m, nil
	}
	return nil, identity.ErrNotFound
}

// ResolveByCard implements identity.Resolver
func (f *FakeResolver) ResolveByCard(_ context.Context, card string) (*identity.Member, error) {
	return f.lookup(card, f.members)
}

// ResolveByMobile implements identity.Resolver
func (f *FakeResolver) ResolveByMobile(_ context.Context, mobile string) (*identity.Member, error) {
	return f.lookup(mobile, f.mobiles)
}

// ResolveBusiness implements identity.Resolver
func (f *FakeResolver) ResolveBusiness(_ context.Context, id string) (*identity.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[id] {
		return nil, ErrDirectoryDown
	}
	if b, ok := f.businesses[id]; ok {
		return b, nil
	}
	return nil, identity.ErrNotFound
}

// RecordingNotifier keeps every event it is handed.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

// Notify implements notification.Notifier
func (n *RecordingNotifier) Notify(e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

// Count returns how many events of kind were recorded for card.
func (n *RecordingNotifier) Count(kind notification.Kind, card string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Kind == kind && e.CardNumber == card {
			c++
		}
	}
	return c
}

var cardSeq atomic.Int64

// NewCard returns a card number unique within the test binary. base keeps
// packages sharing one database apart.
func NewCard(base int64) string {
	return fmt.Sprintf("%016d", base+cardSeq.Add(1))
}
