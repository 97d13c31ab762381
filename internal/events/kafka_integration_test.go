//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"cartera/internal/events"
	"cartera/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)

	pub, err := events.NewKafkaPublisher(broker.Brokers, "cartera-test")
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, pub.EnsureTopics(ctx, 1))

	event := events.VisitRegistered{
		PassToken: "tok-1",
		Points:    3,
	}
	require.NoError(t, pub.Publish(ctx, events.TopicVisits, event.PassToken, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(events.TopicVisits),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "tok-1", string(records[0].Key))

	var got events.VisitRegistered
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, 3, got.Points)
}
