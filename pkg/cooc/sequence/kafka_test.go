package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
)

type fakePartition struct {
	msgs   []kafka.Message
	pos    int
	closed bool
}

func (f *fakePartition) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.pos >= len(f.msgs) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[f.pos]
	f.pos++
	return m, nil
}

func (f *fakePartition) Close() error {
	f.closed = true
	return nil
}

func newFakeKafka(t *testing.T, values ...string) (*KafkaReader, *[]*fakePartition) {
	t.Helper()
	k, err := NewKafkaReader(KafkaConfig{
		Brokers:     []string{"localhost:9092"},
		Topic:       "corpus",
		ReadTimeout: 50 * time.Millisecond,
	}, logging.Discard())
	require.NoError(t, err)

	var opened []*fakePartition
	k.open = func(ctx context.Context) (messageReader, int64, int64, error) {
		p := &fakePartition{}
		for i, v := range values {
			p.msgs = append(p.msgs, kafka.Message{Offset: int64(100 + i), Value: []byte(v)})
		}
		opened = append(opened, p)
		return p, 100, int64(100 + len(values)), nil
	}
	return k, &opened
}

func TestKafkaReadsUpToWatermark(t *testing.T) {
	k, opened := newFakeKafka(t,
		"plain text message. second sentence",
		`{"title":"Json doc","text":"body text"}`,
	)
	src := NewDocuments(k, nil)
	require.NoError(t, src.Reset())

	want := [][]string{
		{"plain", "text", "message"},
		{"second", "sentence"},
		{"json", "doc"},
		{"body", "text"},
	}
	assert.Equal(t, want, drain(t, src))

	require.NoError(t, src.Reset())
	assert.Equal(t, want, drain(t, src))
	require.Len(t, *opened, 2)
	assert.True(t, (*opened)[0].closed)

	require.NoError(t, src.Close())
	assert.True(t, (*opened)[1].closed)
}

func TestKafkaEmptyPartition(t *testing.T) {
	k, _ := newFakeKafka(t)
	src := NewDocuments(k, nil)
	require.NoError(t, src.Reset())
	assert.False(t, src.HasMore())
}

func TestKafkaOpenFailure(t *testing.T) {
	k, _ := newFakeKafka(t)
	boom := errors.New("no leader")
	k.open = func(context.Context) (messageReader, int64, int64, error) {
		return nil, 0, 0, boom
	}
	assert.ErrorIs(t, NewDocuments(k, nil).Reset(), boom)
}

func TestKafkaConfigValidation(t *testing.T) {
	_, err := NewKafkaReader(KafkaConfig{Topic: "x"}, nil)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	_, err = NewKafkaReader(KafkaConfig{Brokers: []string{"b:9092"}}, nil)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
