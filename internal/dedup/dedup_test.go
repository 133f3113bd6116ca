package dedup

import "testing"

func TestKey(t *testing.T) {
	if got := Key(7, 123456789); got != "update_seen:7:123456789" {
		t.Errorf("Key = %q", got)
	}
	// Keys are namespaced per bot: the same update id on two bots must not collide.
	if Key(1, 5) == Key(2, 5) {
		t.Error("keys collide across bots")
	}
}

func TestFirstSeenFailsOpenWithoutClient(t *testing.T) {
	if client != nil {
		t.Skip("redis client initialized")
	}
	if !FirstSeen(1, 1) {
		t.Error("FirstSeen should fail open when Redis is not configured")
	}
}
