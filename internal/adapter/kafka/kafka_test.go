package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte("184\n\nWGUS53 KSGF 230245\r\r\n"),
		Topic:     "raw-nws-bulletins",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "circuit", Value: []byte("noaaport")},
		},
	}

	r := &Reader{}
	raw := r.toRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, "raw-nws-bulletins", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "noaaport", raw.Headers["circuit"])
	assert.NotNil(t, raw.Commit)
}
