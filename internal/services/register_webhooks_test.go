package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"PIX-Group-Bot/internal/db"
)

func TestCanonicalWebhookURL(t *testing.T) {
	got := CanonicalWebhookURL("https://bots.example.com/", "123456:AA-bb_cc")
	want := "https://bots.example.com/webhook?token=123456%3AAA-bb_cc"
	if got != want {
		t.Errorf("CanonicalWebhookURL = %q, want %q", got, want)
	}
}

// A bot whose Telegram call hangs until its client timeout must not stop the
// sweep from reporting every other bot.
func TestSweepIsolatesSlowFailures(t *testing.T) {
	bots := make([]db.Bot, 10)
	for i := range bots {
		bots[i] = db.Bot{ID: uint(i + 1), Token: fmt.Sprintf("token-%d", i+1)}
	}

	var checked int32
	check := func(b db.Bot) string {
		atomic.AddInt32(&checked, 1)
		if b.ID == 3 {
			time.Sleep(50 * time.Millisecond) // simulated timeout
			return outcomeFailed
		}
		return outcomeSucceeded
	}

	summary := sweep(bots, check)
	if checked != 10 {
		t.Fatalf("checked %d bots, want 10", checked)
	}
	if summary.Succeeded != 9 || summary.Failed != 1 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 9 succeeded / 1 failed / 0 skipped", summary)
	}
}

func TestSweepSummaryCounting(t *testing.T) {
	var s SweepSummary
	for _, o := range []string{outcomeSucceeded, outcomeSkipped, outcomeFailed, outcomeSkipped} {
		s.add(o)
	}
	if s.Succeeded != 1 || s.Failed != 1 || s.Skipped != 2 {
		t.Errorf("summary = %+v", s)
	}
}
