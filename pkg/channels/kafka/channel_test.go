package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/require"

	"github.com/caldera-io/relay/pkg/channels/kafka"
)

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	t.Setenv(kafka.BrokersEnv, "")

	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, "relay-test")
	require.Error(t, err)
	require.Contains(t, err.Error(), kafka.BrokersEnv)
}
