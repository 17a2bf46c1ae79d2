package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

type fakeIRC struct {
	mu        sync.Mutex
	onConnect func()
	joined    []string
	said      []string
	stop      chan struct{}
	connErr   error
}

func newFakeIRC() *fakeIRC { return &fakeIRC{stop: make(chan struct{})} }

func (f *fakeIRC) OnConnect(cb func()) { f.onConnect = cb }

func (f *fakeIRC) Join(channels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, channels...)
}

func (f *fakeIRC) Say(channel, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, channel+": "+text)
}

func (f *fakeIRC) Connect() error {
	if f.connErr != nil {
		return f.connErr
	}
	f.onConnect()
	<-f.stop
	return twitch.ErrClientDisconnected
}

func (f *fakeIRC) Disconnect() error {
	close(f.stop)
	return nil
}

func (f *fakeIRC) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.said...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMirrorAnnounce(t *testing.T) {
	irc := newFakeIRC()
	m := newMirror(irc, "#MCSR_BR", nil)

	if err := m.Announce(context.Background(), "too early"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	waitFor(t, m.Connected)

	if err := m.Announce(ctx, "MCSR Ranked: Alice venceu Bob • 1m 0s • Match 1"); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	got := irc.messages()
	if len(got) != 1 || got[0] != "mcsr_br: MCSR Ranked: Alice venceu Bob • 1m 0s • Match 1" {
		t.Errorf("said = %v", got)
	}
	if len(irc.joined) != 1 || irc.joined[0] != "mcsr_br" {
		t.Errorf("joined = %v", irc.joined)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel", err)
	}
	if m.Connected() {
		t.Error("mirror still reports connected")
	}
}

func TestMirrorTruncatesLongMessages(t *testing.T) {
	irc := newFakeIRC()
	m := newMirror(irc, "chan", nil)
	m.connected.Store(true)
	if err := m.Announce(context.Background(), strings.Repeat("é", 600)); err != nil {
		t.Fatal(err)
	}
	msg := strings.TrimPrefix(irc.messages()[0], "chan: ")
	if n := len([]rune(msg)); n != maxMessageLen {
		t.Errorf("message length = %d runes", n)
	}
}

func TestMirrorAnnounceRespectsContext(t *testing.T) {
	m := newMirror(newFakeIRC(), "chan", nil)
	m.connected.Store(true)
	if err := m.Announce(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Announce(ctx, "second"); err == nil {
		t.Error("expected rate limit wait to fail on cancelled context")
	}
}

func TestMirrorRunConnectError(t *testing.T) {
	irc := newFakeIRC()
	irc.connErr = errors.New("login authentication failed")
	m := newMirror(irc, "chan", nil)
	if err := m.Run(context.Background()); err == nil {
		t.Error("expected connect error")
	}
}
