package fault

import (
	"sync"
	"testing"
)

func TestReportNonFatalReturns(t *testing.T) {
	defer SetHandler(nil)

	var got Kind
	var gotFatal bool
	SetHandler(func(kind Kind, fatal bool, loc Location) {
		got, gotFatal = kind, fatal
	})

	Report(DoubleFree)

	if got != DoubleFree || gotFatal {
		t.Fatalf("got kind=%v fatal=%v, want DoubleFree/false", got, gotFatal)
	}
}

func TestDefaultHandlerFatalPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from fatal default handler")
		}
	}()
	Report(LinksMagicCorrupt)
}

func TestKindFatalClassification(t *testing.T) {
	cases := []struct {
		k     Kind
		fatal bool
	}{
		{BufferTooBigForPool, false},
		{DoubleFree, false},
		{QueueInASet, false},
		{QueueSetEmpty, false},
		{EnqueueEmptyHandle, false},
		{ConcurrentDequeue, false},
		{InvalidWaitPolicy, false},
		{LinksMagicCorrupt, true},
		{LinksAddAlreadyOnList, true},
		{LinksRemoveNotOnList, true},
		{PoolReleaseAlreadyOnList, true},
		{QueueDequeueNotOnThisList, true},
		{QueueEnqueueAlreadyOnList, true},
	}
	for _, c := range cases {
		if got := c.k.Fatal(); got != c.fatal {
			t.Errorf("%v.Fatal() = %v, want %v", c.k, got, c.fatal)
		}
	}
}

func TestSetHandlerIsConcurrencySafe(t *testing.T) {
	defer SetHandler(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetHandler(func(Kind, bool, Location) {})
			Report(QueueSetEmpty)
		}()
	}
	wg.Wait()
}
