package testutil

import (
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
		AssertNoLogsAtLevel(t, handler, slog.LevelError)
	})

	t.Run("derived loggers share the store", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "loader").Info("fetched")

		require.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "loader"))
	})
}

func TestFixtures(t *testing.T) {
	t.Run("daily csv parses with header", func(t *testing.T) {
		records, err := csv.NewReader(strings.NewReader(DailyCSV(SampleDaily()...))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, len(SampleDaily())+1)
		assert.Equal(t, DailyHeader, records[0])
		assert.Equal(t, "2011-01", records[1][1])
	})

	t.Run("hourly csv quotes weather text", func(t *testing.T) {
		records, err := csv.NewReader(strings.NewReader(HourlyCSV(SampleHourly()...))).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "Clear, Few clouds, Partly cloudy", records[1][4])
		for _, rec := range records {
			assert.Len(t, rec, len(HourlyHeader))
		}
	})

	t.Run("source server", func(t *testing.T) {
		srv := NewSourceServer(t, map[string]string{"/day.csv": "a,b\n1,2\n"})

		resp, err := http.Get(srv.URL + "/day.csv")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, "a,b\n1,2\n", string(body))

		resp, err = http.Get(srv.URL + "/missing.csv")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
