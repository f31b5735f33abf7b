package dataprocessing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apierrors "bikedash/internal/errors"
)

// Table names used in logs, errors and data-quality issues.
const (
	TableDaily  = "daily"
	TableHourly = "hourly"
)

// maxSourceBytes bounds a single table. Larger sources are rejected, never
// truncated.
const maxSourceBytes = 64 << 20

// zipMagic starts every xlsx workbook.
var zipMagic = []byte("PK\x03\x04")

// RawTables is the Loader output.
type RawTables struct {
	Daily  *RawTable
	Hourly *RawTable
}

// Loader reads the daily and hourly tables from URLs or local paths.
type Loader struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger
}

// NewLoader creates a Loader. A nil client uses http.DefaultClient; timeout
// bounds each fetch and is ignored when zero.
func NewLoader(client *http.Client, timeout time.Duration, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client:   client,
		timeout:  timeout,
		maxBytes: maxSourceBytes,
		logger:   logger.With(slog.String("component", "loader")),
	}
}

// Load fetches both tables concurrently. If either fails the other is
// cancelled and no table is returned.
func (l *Loader) Load(ctx context.Context, dailySrc, hourlySrc string) (*RawTables, error) {
	var out RawTables

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := l.LoadTable(gctx, TableDaily, dailySrc, DailyColumns)
		out.Daily = t
		return err
	})
	g.Go(func() error {
		t, err := l.LoadTable(gctx, TableHourly, hourlySrc, HourlyColumns)
		out.Hourly = t
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadTable fetches and parses one table and checks its required columns.
// Every failure is a retrieval error.
func (l *Loader) LoadTable(ctx context.Context, name, src string, required []string) (*RawTable, error) {
	start := time.Now()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	body, err := l.open(ctx, src)
	if err != nil {
		return nil, apierrors.NewRetrievalError(src, err).WithContext("table", name)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, l.maxBytes+1))
	if err != nil {
		return nil, apierrors.NewRetrievalError(src, err).WithContext("table", name)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, apierrors.NewRetrievalError(src,
			fmt.Errorf("source exceeds %d bytes", l.maxBytes)).WithContext("table", name)
	}

	parse := ParseCSV
	if isWorkbook(src, data) {
		parse = ParseXLSX
	}

	table, err := parse(name, bytes.NewReader(data))
	if err != nil {
		return nil, apierrors.NewRetrievalError(src, err).WithContext("table", name)
	}
	if err := table.Require(required...); err != nil {
		return nil, apierrors.NewRetrievalError(src, err).WithContext("table", name)
	}
	table.Source = src

	l.logger.InfoContext(ctx, "table loaded",
		slog.String("table", name),
		slog.String("source", src),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

// open resolves src to a readable stream.
func (l *Loader) open(ctx context.Context, src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, fmt.Errorf("empty source")
	}

	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return l.fetch(ctx, src)
		case "file":
			return os.Open(u.Path)
		}
	}
	return os.Open(src)
}

func (l *Loader) fetch(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// isWorkbook reports whether a source is xlsx, by extension or by the zip
// signature of its content.
func isWorkbook(src string, data []byte) bool {
	if bytes.HasPrefix(data, zipMagic) {
		return true
	}
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".xlsx")
}
