package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func testList() domain.TargetList {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	feature := &domain.HazardFeature{ID: "urn:oid:1", Event: "Winter Storm Warning", Severity: domain.SeveritySevere, AreaDesc: "New York, NY"}
	return domain.TargetList{
		Mode:         "winter",
		GeneratedAt:  now,
		FeatureCount: 1,
		Targets: []domain.TargetRecord{
			{
				Zip:           domain.ZipEntry{Zip: "10001", Lat: 40.75, Lng: -73.99, City: "New York", State: "NY", County: "New York", Located: true},
				Feature:       feature,
				AttributionID: feature.ID,
			},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	list := testList()

	msg, err := serializeToMessage(list)
	require.NoError(t, err)

	assert.Equal(t, []byte("winter"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("winter"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-01-10T12:00:00Z"), msg.Headers[1].Value)
	assert.Equal(t, []byte("1"), msg.Headers[2].Value)

	var decoded struct {
		Mode    string `json:"mode"`
		Targets []struct {
			Zip           string `json:"zip"`
			Event         string `json:"event"`
			Severity      string `json:"severity"`
			AttributionID string `json:"attribution_id"`
		} `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "winter", decoded.Mode)
	require.Len(t, decoded.Targets, 1)
	assert.Equal(t, "10001", decoded.Targets[0].Zip)
	assert.Equal(t, "Winter Storm Warning", decoded.Targets[0].Event)
	assert.Equal(t, "Severe", decoded.Targets[0].Severity)
	assert.Equal(t, "urn:oid:1", decoded.Targets[0].AttributionID)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testList()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("winter"), fw.msgs[0].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), testList())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish winter targets")
}
