package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatcher_Notify(t *testing.T) {
	w := NewWatcher()

	obs := &testObserver{}
	w.Add(obs)

	w.Notify("deadbeef")
	require.Equal(t, []interface{}{"deadbeef"}, obs.events)

	w.Remove(obs)

	w.Notify("beefdead")
	require.Len(t, obs.events, 1)
}

func TestWatcher_MultipleObservers(t *testing.T) {
	w := NewWatcher()

	obs1 := &testObserver{}
	obs2 := &testObserver{}

	w.Add(obs1)
	w.Add(obs2)

	w.Notify(42)
	require.Len(t, obs1.events, 1)
	require.Len(t, obs2.events, 1)
}

// -----------------------------------------------------------------------------
// Utility functions

type testObserver struct {
	events []interface{}
}

func (o *testObserver) NotifyCallback(event interface{}) {
	o.events = append(o.events, event)
}
