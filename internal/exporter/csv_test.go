package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikedash/internal/shared/testutil"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name: "basic write with headers",
			options: WriteOptions{
				Headers: []string{"date", "total"},
				Records: [][]string{
					{"2011-01-01", "985"},
					{"2011-01-02", "801"},
				},
			},
			validate: func(t *testing.T, content []byte) {
				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 3)
				assert.Equal(t, "date,total", lines[0])
				assert.Equal(t, "2011-01-01,985", lines[1])
			},
		},
		{
			name: "write with BOM prefix",
			options: WriteOptions{
				Headers:   []string{"season"},
				Records:   [][]string{{"Winter"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
				assert.Equal(t, []string{"season", "Winter"}, lines)
			},
		},
		{
			name: "write without headers",
			options: WriteOptions{
				Records: [][]string{{"a", "b"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "a,b\n", string(content))
			},
		},
		{
			name: "fields with commas are quoted",
			options: WriteOptions{
				Headers: []string{"weather"},
				Records: [][]string{{"Clear, Few clouds, Partly cloudy"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), `"Clear, Few clouds, Partly cloudy"`)
			},
		},
		{
			name: "empty records",
			options: WriteOptions{
				Headers: []string{"Col1", "Col2"},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "Col1,Col2\n", string(content))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			var buf bytes.Buffer

			err := NewCSVWriter(logger).WriteCSV(&buf, tt.options)
			require.NoError(t, err)
			tt.validate(t, buf.Bytes())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSVWriter_WriteCSV_WriterError(t *testing.T) {
	err := NewCSVWriter(nil).WriteCSV(failingWriter{}, WriteOptions{
		Headers:   []string{"a"},
		BOMPrefix: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOM")

	err = NewCSVWriter(nil).WriteCSV(failingWriter{}, WriteOptions{Headers: []string{"a"}})
	assert.Error(t, err)
}

func TestCSVWriter_WriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "daily.csv")

	err := NewCSVWriter(nil).WriteCSVFile(path, WriteOptions{
		Headers:   []string{"date"},
		Records:   [][]string{{"2011-01-01"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"date"}, {"2011-01-01"}}, records)
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer

	sw, err := NewCSVWriter(nil).CreateStreamWriter(&buf, []string{"hour", "total"})
	require.NoError(t, err)

	for _, rec := range [][]string{{"0", "16"}, {"1", "40"}} {
		require.NoError(t, sw.WriteRecord(rec))
	}
	require.NoError(t, sw.Close())

	assert.Equal(t, 2, sw.Rows())
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, "hour,total\n0,16\n1,40\n", string(buf.Bytes()[3:]))
}
