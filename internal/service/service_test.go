package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/notification"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	var err error
	var dbTeardown func(context.Context, ...testcontainers.TerminateOption) error
	dbTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if dbTeardown != nil {
		_ = dbTeardown(ctx)
	}
	os.Exit(code)
}

var cardSeq atomic.Int64

// newCard returns a card number no other test uses.
func newCard() string {
	return fmt.Sprintf("%016d", 4000000000000000+cardSeq.Add(1))
}

type fakeResolver struct {
	mu         sync.Mutex
	members    map[string]*identity.Member
	mobiles    map[string]*identity.Member
	businesses map[string]*identity.Business
	failing    map[string]bool
	calls      int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		members:    map[string]*identity.Member{},
		mobiles:    map[string]*identity.Member{},
		businesses: map[string]*identity.Business{},
		failing:    map[string]bool{},
	}
}

func (f *fakeResolver) addMember(card, name, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[card] = &identity.Member{CardNumber: card, FullName: name, Email: email}
}

func (f *fakeResolver) ResolveByCard(_ context.Context, card string) (*identity.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[card] {
		return nil, fmt.Errorf("directory unavailable")
	}
	if m, ok := f.members[card]; ok {
		return m, nil
	}
	return nil, identity.ErrNotFound
}

func (f *fakeResolver) ResolveByMobile(_ context.Context, mobile string) (*identity.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[mobile] {
		return nil, fmt.Errorf("directory unavailable")
	}
	if m, ok := f.mobiles[mobile]; ok {
		return m, nil
	}
	return nil, identity.ErrNotFound
}

func (f *fakeResolver) ResolveBusiness(_ context.Context, id string) (*identity.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if b, ok := f.businesses[id]; ok {
		return b, nil
	}
	return nil, identity.ErrNotFound
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(e notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) count(kind notification.Kind, card string) int {
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

func newTestServices(opts Options) (*Services, *fakeResolver, *recordingNotifier) {
	resolver := newFakeResolver()
	notifier := &recordingNotifier{}
	return New(testDB, resolver, notifier, opts), resolver, notifier
}
