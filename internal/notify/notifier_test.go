package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusNotifierTopicRouting(t *testing.T) {
	n := NewBusNotifier()

	var got []string
	handler := func(payload interface{}) {
		m, ok := payload.(map[string]interface{})
		require.True(t, ok)
		got = append(got, m["k"].(string))
	}

	require.NoError(t, n.Bus().Subscribe(TopicOrderStatusChanged, handler))
	require.NoError(t, n.Bus().Subscribe("role.staff."+TopicOrderDeleted, handler))
	require.NoError(t, n.Bus().Subscribe("user.42."+TopicOrderStatusChanged, handler))

	n.Publish(TopicOrderStatusChanged, map[string]interface{}{"k": "general"})
	n.PublishToRole("staff", TopicOrderDeleted, map[string]interface{}{"k": "staff"})
	n.PublishToUser(42, TopicOrderStatusChanged, map[string]interface{}{"k": "user"})
	// no subscriber for this role, delivery is silently dropped
	n.PublishToRole("admin", TopicOrderDeleted, map[string]interface{}{"k": "admin"})

	assert.Equal(t, []string{"general", "staff", "user"}, got)
}

func TestBusNotifierSubscriberPanicIsContained(t *testing.T) {
	n := NewBusNotifier()
	require.NoError(t, n.Bus().Subscribe("boom", func(payload interface{}) {
		panic("subscriber exploded")
	}))

	assert.NotPanics(t, func() {
		n.Publish("boom", map[string]interface{}{"k": "v"})
	})
}
