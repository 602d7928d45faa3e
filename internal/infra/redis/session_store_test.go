package redis

import (
	"context"
	"testing"
	"time"

	"trivia-chat-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr := runMiniredis(t)
	store := NewSessionStore(newClient(mr), time.Minute)

	store.Put(app.NewSession("s-1", app.EngineConversational, nil))
	if !mr.Exists("trivia:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("trivia:session:s-1"); got != "conversational" {
		t.Fatalf("expected engine kind stored, got %q", got)
	}

	mr.FastForward(30 * time.Second)
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}
	if ttl := mr.TTL("trivia:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed on get, got %s", ttl)
	}

	store.Put(app.NewSession("s-2", app.EngineDeterministic, nil))
	if n, err := store.Live(context.Background()); err != nil || n != 2 {
		t.Fatalf("expected 2 live sessions, got %d (%v)", n, err)
	}

	store.Delete("s-1")
	if mr.Exists("trivia:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}
