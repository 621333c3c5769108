//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// ffwFeedText is a flash flood warning bulletin used as the canonical
// round-trip fixture.
const ffwFeedText = `WGUS53 KSGF 230245
FFWSGF

FLASH FLOOD WARNING
NATIONAL WEATHER SERVICE SPRINGFIELD MO

MOC077-231500-
/O.CON.KSGF.FF.W.0071.000000T0000Z-150723T1500Z/

AT 944 PM CDT DOPPLER RADAR INDICATED HEAVY RAIN.

LAT...LON 3713 9320 3718 9333 3722 9310

$$

BARHAM
`

// framedFeed wraps bulletin texts in the length-line framing of the raw
// feed.
func framedFeed(texts ...string) []byte {
	var b strings.Builder
	for _, text := range texts {
		body := strings.ReplaceAll(text, "\n", "\r\r\n")
		fmt.Fprintf(&b, "%d\n\n%s", len(body), body)
	}
	return []byte(b.String())
}

// startKafka launches a single-node Kafka broker in a container and returns
// its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hazard-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
