package events_test

import (
	"testing"

	"github.com/ledgerforge/utxochain/foundation/events"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to broadcast ledger events.")
	{
		evts := events.New()

		bill := evts.Acquire("bill")
		jill := evts.Acquire("jill")

		if evts.Acquire("bill") != bill || evts.Receivers() != 2 {
			t.Fatalf("\t%s\tShould reuse the channel of a known id.", failed)
		}
		t.Logf("\t%s\tShould reuse the channel of a known id.", success)

		evts.Send("viewer: block: 1")

		for name, ch := range map[string]<-chan string{"bill": bill, "jill": jill} {
			if msg := <-ch; msg != "viewer: block: 1" {
				t.Fatalf("\t%s\tShould deliver the event to %s: got %q", failed, name, msg)
			}
		}
		t.Logf("\t%s\tShould deliver the event to every receiver.", success)

		if err := evts.Release("bill"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a receiver: %s", failed, err)
		}
		if _, open := <-bill; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release("bill"); err == nil {
			t.Fatalf("\t%s\tShould not release an unknown receiver.", failed)
		}
		t.Logf("\t%s\tShould not release an unknown receiver.", success)

		for i := 0; i < 500; i++ {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full receiver.", success)

		evts.Shutdown()
		if evts.Receivers() != 0 {
			t.Fatalf("\t%s\tShould remove every receiver on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every receiver on shutdown.", success)
	}
}
