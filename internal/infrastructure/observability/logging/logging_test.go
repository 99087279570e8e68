package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer, b *Broadcaster) *ChanneledLogger {
	t.Helper()
	cfg := DefaultLoggerConfig()
	cfg.Writer = buf
	cfg.Broadcaster = b
	logger, err := NewChanneledLogger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

func TestChannelsTagEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf, nil)

	logger.Leads().Info("Lead created", "leadId", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "leads", entry["channel"])
	assert.Equal(t, "Lead created", entry["msg"])
	assert.Equal(t, "abc", entry["leadId"])
}

func TestSetChannelLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf, nil)

	logger.Auth().Debug("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, logger.SetChannelLevel(ChannelAuth, slog.LevelDebug))
	logger.Auth().Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	levels := logger.GetChannelLevels()
	assert.Equal(t, "DEBUG", levels["auth"])
	assert.Equal(t, "INFO", levels["leads"])
	assert.Len(t, levels, len(AllChannels))

	assert.Error(t, logger.SetChannelLevel(Channel("billing"), slog.LevelDebug))
}

func TestBroadcasterFiltersByChannelAndLevel(t *testing.T) {
	var buf bytes.Buffer
	b := NewBroadcaster()
	logger := newTestLogger(t, &buf, b)

	authOnly := b.Subscribe(StreamFilter{Channel: ChannelAuth, Level: slog.LevelInfo})
	warnings := b.Subscribe(StreamFilter{Channel: "all", Level: slog.LevelWarn})
	defer b.Unsubscribe(authOnly)
	defer b.Unsubscribe(warnings)

	logger.Auth().Info("Login succeeded")
	logger.Leads().Warn("Assignment skipped")

	require.Len(t, authOnly.C, 1)
	var entry LogEntry
	require.NoError(t, json.Unmarshal(<-authOnly.C, &entry))
	assert.Equal(t, "auth", entry.Channel)
	assert.Equal(t, "Login succeeded", entry.Message)

	require.Len(t, warnings.C, 1)
	require.NoError(t, json.Unmarshal(<-warnings.C, &entry))
	assert.Equal(t, "leads", entry.Channel)
	assert.Equal(t, "WARN", entry.Level)
}

func TestBroadcasterDropsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(StreamFilter{Channel: "all"})

	for i := 0; i < cap(sub.C)+5; i++ {
		b.Publish(LogEntry{Channel: "system", Level: "INFO", Message: "tick"})
	}
	assert.Len(t, sub.C, cap(sub.C))
	assert.EqualValues(t, 5, b.Dropped())

	b.Unsubscribe(sub)
	assert.Zero(t, b.SubscriberCount())
	b.Unsubscribe(sub)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("fatal"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMaskID(t *testing.T) {
	assert.Equal(t, "****", MaskID("abc"))
	assert.Equal(t, "64****18", MaskID("64b7f0c2a1b2c3d4e5f60718"))
}
