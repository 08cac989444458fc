package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic_FixedState(t *testing.T) {
	assert.True(t, NewStatic(true).Online())
	assert.False(t, NewStatic(false).Online())
}

func TestStatic_SubscribeNeverFires(t *testing.T) {
	m := NewStatic(true)

	unsubscribe := m.Subscribe(func(bool) {
		t.Fatal("static monitor must never fire transitions")
	})
	assert.NotNil(t, unsubscribe)
	unsubscribe()
}

func TestSubscriberSet_NotifiesAll(t *testing.T) {
	s := newSubscriberSet()

	var first, second []bool
	s.add(func(online bool) { first = append(first, online) })
	s.add(func(online bool) { second = append(second, online) })

	s.notify(true)
	s.notify(false)

	assert.Equal(t, []bool{true, false}, first)
	assert.Equal(t, []bool{true, false}, second)
}

func TestSubscriberSet_Unsubscribe(t *testing.T) {
	s := newSubscriberSet()

	calls := 0
	unsubscribe := s.add(func(bool) { calls++ })

	s.notify(true)
	unsubscribe()
	s.notify(false)

	assert.Equal(t, 1, calls)
}

func TestSubscriberSet_PanickingListenerIsIsolated(t *testing.T) {
	s := newSubscriberSet()

	s.add(func(bool) { panic("bad listener") })
	notified := false
	s.add(func(bool) { notified = true })

	assert.NotPanics(t, func() { s.notify(true) })
	assert.True(t, notified, "surviving listener must still be notified")
}
