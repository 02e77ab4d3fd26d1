package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/pkg/tasks"
)

func TestEncodeDecodeEvent(t *testing.T) {
	event := tasks.DocumentIndexedEvent{
		Type:       tasks.EventDocumentIndexed,
		PdfID:      "7f6c1c5e-2d1b-4c4e-9a55-0b8f2c1d3e4f",
		FileName:   "report.pdf",
		Checksum:   "abc",
		PageCount:  2,
		ChunkCount: 5,
		IndexedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	msg, err := EncodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, []byte(event.PdfID), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "document.indexed", string(msg.Headers[0].Value))
	assert.NotContains(t, string(msg.Value), "object_name")

	got, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := DecodeEvent(kafka.Message{Value: []byte("{not json"), Offset: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 42")
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokers(" a:9092, ,b:9092 "))
	assert.Nil(t, brokers(""))
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func eventMessage(t *testing.T, pdfID string, offset int64) kafka.Message {
	t.Helper()
	m, err := EncodeEvent(tasks.DocumentIndexedEvent{Type: tasks.EventDocumentIndexed, PdfID: pdfID})
	require.NoError(t, err)
	m.Offset = offset
	return m
}

func TestConsume_CommitsHandledAndMalformed(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		eventMessage(t, "a", 0),
		{Value: []byte("{broken"), Offset: 1},
		eventMessage(t, "b", 2),
	}}

	var seen []string
	err := consume(context.Background(), r, func(_ context.Context, e tasks.DocumentIndexedEvent) error {
		seen = append(seen, e.PdfID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{0, 1, 2}, r.committed)
}

func TestConsume_StopsWithoutCommittingOnHandlerFailure(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		eventMessage(t, "a", 0),
		eventMessage(t, "b", 1),
		eventMessage(t, "c", 2),
	}}

	var seen []string
	err := consume(context.Background(), r, func(_ context.Context, e tasks.DocumentIndexedEvent) error {
		seen = append(seen, e.PdfID)
		if e.PdfID == "b" {
			return errors.New("sink unavailable")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 1")
	assert.Equal(t, []string{"a", "b"}, seen, "nothing after the failed message is handled")
	assert.Equal(t, []int64{0}, r.committed)
}
