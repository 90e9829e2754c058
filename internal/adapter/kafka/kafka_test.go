package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func ptr(v float64) *float64 { return &v }

func testResult() *domain.Result {
	dec := time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Result{
		GeneratedAt: time.Date(2022, time.March, 1, 9, 30, 0, 0, time.UTC),
		Observations: []domain.Observation{
			{Date: dec.AddDate(0, -1, 0), Year: 2019, Month: time.November, NumberServed: 200},
			{Date: dec, Year: 2019, Month: time.December, NumberServed: 220, AnnualCumulativeDistinct: 2600, YearEndTarget: 2400, PctChgNoServedMoM: ptr(0.1)},
		},
		Annual: []domain.AnnualSummary{
			{Year: 2019, AnnualCumulativeDistinct: 2600, YearEndTarget: 2400, PctChange: ptr(0.04)},
		},
	}
}

func newTestPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	generatedAt := time.Date(2022, time.March, 1, 9, 30, 0, 0, time.UTC)
	obs := domain.Observation{
		Date:         time.Date(2019, time.January, 31, 0, 0, 0, 0, time.UTC),
		Year:         2019,
		Month:        time.January,
		NumberServed: 248,
	}

	msg, err := serializeToMessage(obs.Key(), RecordTypeObservation, obs, generatedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("2019-01-31"), msg.Key)
	assert.Contains(t, string(msg.Value), `"number_served":248`)
	assert.Contains(t, string(msg.Value), `"pct_chg_no_served_mom":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "record_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("observation"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2022-03-01T09:30:00Z"), msg.Headers[1].Value)
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), testResult()))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "2019-11-01", string(w.msgs[0].Key))
	assert.Equal(t, "2019-12-01", string(w.msgs[1].Key))
	assert.Equal(t, "2019", string(w.msgs[2].Key))
	assert.Equal(t, []byte(RecordTypeAnnualSummary), w.msgs[2].Headers[0].Value)
	assert.JSONEq(t,
		`{"year":2019,"annual_cumulative_distinct":2600,"year_end_target":2400,"pct_change":0.04,"pct_of_target":null}`,
		string(w.msgs[2].Value))
}

func TestPublisher_PublishEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), &domain.Result{}))
}

func TestPublisher_PublishError(t *testing.T) {
	brokerErr := errors.New("leader not available")
	p := newTestPublisher(&fakeWriter{err: brokerErr})

	err := p.Publish(context.Background(), testResult())
	require.ErrorIs(t, err, brokerErr)
	assert.Equal(t, "kafka", p.Name())
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestPublisher(w).Close())
	assert.True(t, w.closed)
}
