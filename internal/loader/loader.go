// Package loader reads World Bank indicator exports into year-aligned tables.
//
// An export looks like:
//
//	"Data Source","World Development Indicators",
//	"Last Updated Date","2018-11-14",
//	"Country Name","Country Code","Indicator Name","Indicator Code","1960",...,"2018",
//	"Aruba","ABW","Fertility rate, total (births per woman)","SP.DYN.TFRT.IN","4.82",...
//
// Blank lines are ignored, the preamble records are skipped, the trailing
// columns are dropped and every column from FirstYear onward is a year.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"demography/internal/resolver"
	"demography/pkg/domain"
	"demography/pkg/logger"
	"demography/pkg/serrors"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "demography/internal/loader"

const (
	countryNameHeader = "Country Name"
	countryCodeHeader = "Country Code"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF} //nolint: gochecknoglobals

// Options describe the layout of an export.
type Options struct {
	// PreambleRows is the number of non-blank records before the header.
	PreambleRows int
	// TrailingColumns is the number of columns dropped from the right.
	TrailingColumns int
	// FirstYear is the first year column kept.
	FirstYear int
	// Continents enables extraction of the continent table.
	Continents bool
}

// DefaultOptions matches the World Bank bulk CSV exports.
func DefaultOptions() Options {
	return Options{
		PreambleRows:    2,
		TrailingColumns: 3,
		FirstYear:       1960,
		Continents:      true,
	}
}

// Validate rejects layouts no export can have.
func (o Options) Validate() error {
	if o.PreambleRows < 0 {
		return serrors.With(serrors.ErrBadRequest, "preamble rows must not be negative, got %d", o.PreambleRows)
	}
	if o.TrailingColumns < 0 {
		return serrors.With(serrors.ErrBadRequest, "trailing columns must not be negative, got %d", o.TrailingColumns)
	}

	return nil
}

// Stats counts what happened to the data rows of one export.
type Stats struct {
	// Read is the number of data rows after the header.
	Read int
	// Incomplete rows had at least one empty value and were dropped.
	Incomplete int
	// Unresolved rows did not map to a country and were dropped.
	Unresolved int
	// Duplicate rows resolved to an identifier already seen and were dropped.
	Duplicate int
	// Kept rows made it into the country table.
	Kept int
	// Continents rows made it into the continent table.
	Continents int
}

// Result is one loaded indicator.
type Result struct {
	Table *domain.IndicatorTable
	// Continents is nil unless Options.Continents is set.
	Continents *domain.ContinentTable
	Stats      Stats
}

// Loader turns an export into tables. It is stateless between calls.
type Loader struct {
	resolver *resolver.Resolver
	options  Options
	tracer   trace.Tracer
}

// New creates a Loader resolving country rows with res.
func New(res *resolver.Resolver, options Options) *Loader {
	return &Loader{
		resolver: res,
		options:  options,
		tracer:   otel.Tracer(tracerName),
	}
}

// Load reads the export at path.
func (l *Loader) Load(ctx context.Context, path string, indicator domain.Indicator) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "%s source missing", indicator)
		}

		return nil, serrors.Wrap(serrors.ErrMalformed, err, "could not open %s source", indicator)
	}
	defer f.Close()

	return l.Read(ctx, f, indicator, path)
}

// Read parses an export from r. source names r in errors and logs.
func (l *Loader) Read(ctx context.Context, r io.Reader, indicator domain.Indicator, source string) (*Result, error) {
	ctx, span := l.tracer.Start(ctx, "loader.Read", trace.WithAttributes(
		attribute.String("indicator", indicator.String()),
		attribute.String("source", source),
	))
	defer span.End()

	if err := l.options.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res, err := l.read(ctx, r, indicator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rows.read", res.Stats.Read),
		attribute.Int("rows.kept", res.Stats.Kept),
	)
	logger.Debug(ctx, "indicator source loaded",
		zap.String("indicator", indicator.String()),
		zap.String("source", source),
		zap.Int("read", res.Stats.Read),
		zap.Int("incomplete", res.Stats.Incomplete),
		zap.Int("unresolved", res.Stats.Unresolved),
		zap.Int("duplicate", res.Stats.Duplicate),
		zap.Int("kept", res.Stats.Kept),
		zap.Int("continents", res.Stats.Continents),
		zap.Int("firstYear", res.Table.Years().First),
		zap.Int("lastYear", res.Table.Years().Last),
	)

	return res, nil
}

func (l *Loader) read(ctx context.Context, r io.Reader, indicator domain.Indicator) (*Result, error) {
	cr := csv.NewReader(skipBOM(r))
	// preamble and data records differ in width
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for i := 0; i < l.options.PreambleRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, malformed(indicator, err, "reading preamble")
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, malformed(indicator, err, "reading header")
	}
	layout, err := l.parseHeader(header)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformed, err, "%s header", indicator)
	}

	countries := make(map[domain.CountryID][]float64)
	continents := make(map[string][]float64)
	var stats Stats

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(indicator, err, "reading row")
		}
		stats.Read++

		line, _ := cr.FieldPos(0)
		if len(record) < layout.width {
			return nil, serrors.With(serrors.ErrMalformed,
				"%s line %d: %d fields, want at least %d", indicator, line, len(record), layout.width)
		}
		record = record[:layout.width]
		if incomplete(record) {
			stats.Incomplete++

			continue
		}

		values, err := layout.values(record)
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrMalformed, err, "%s line %d", indicator, line)
		}

		name, code := record[layout.name], record[layout.code]
		if l.options.Continents {
			if label, ok := l.resolver.Tables().Continent(name); ok {
				if _, seen := continents[label]; !seen {
					continents[label] = values
					stats.Continents++
				}
			}
		}

		id, ok := l.resolver.ResolveRecord(name, code)
		if !ok {
			stats.Unresolved++

			continue
		}
		if _, seen := countries[id]; seen {
			stats.Duplicate++
			logger.Warn(ctx, "duplicate country row dropped",
				zap.String("indicator", indicator.String()),
				zap.String("id", string(id)),
				zap.Int("line", line))

			continue
		}
		countries[id] = values
		stats.Kept++
	}

	table, err := domain.NewIndicatorTable(indicator, layout.years, countries)
	if err != nil {
		return nil, fmt.Errorf("could not build %s table: %w", indicator, err)
	}

	res := &Result{Table: table, Stats: stats}
	if l.options.Continents {
		res.Continents, err = domain.NewContinentTable(indicator, layout.years, continents)
		if err != nil {
			return nil, fmt.Errorf("could not build %s continent table: %w", indicator, err)
		}
	}

	return res, nil
}

// layout locates the columns of interest in a header.
type layout struct {
	// width is the number of columns kept after dropping the trailing ones.
	width     int
	name      int
	code      int
	yearStart int
	years     domain.YearRange
}

func (l *Loader) parseHeader(header []string) (layout, error) {
	width := len(header) - l.options.TrailingColumns
	if width <= 0 {
		return layout{}, fmt.Errorf("%d columns, cannot drop %d trailing", len(header), l.options.TrailingColumns)
	}

	lay := layout{width: width, name: -1, code: -1, yearStart: -1}
	first := strconv.Itoa(l.options.FirstYear)
	for i, h := range header[:width] {
		switch strings.TrimSpace(h) {
		case countryNameHeader:
			lay.name = i
		case countryCodeHeader:
			lay.code = i
		case first:
			lay.yearStart = i
		}
	}

	switch {
	case lay.name < 0:
		return layout{}, fmt.Errorf("no %q column", countryNameHeader)
	case lay.code < 0:
		return layout{}, fmt.Errorf("no %q column", countryCodeHeader)
	case lay.yearStart < 0:
		return layout{}, fmt.Errorf("no %q column", first)
	}

	prev := l.options.FirstYear
	for _, h := range header[lay.yearStart+1 : width] {
		year, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return layout{}, fmt.Errorf("year column %q: %w", h, err)
		}
		if year != prev+1 {
			return layout{}, fmt.Errorf("year columns not contiguous: %d follows %d", year, prev)
		}
		prev = year
	}
	lay.years = domain.YearRange{First: l.options.FirstYear, Last: prev}

	return lay, nil
}

// values parses the year columns of a complete record.
func (lay layout) values(record []string) ([]float64, error) {
	out := make([]float64, 0, lay.years.Len())
	for i, raw := range record[lay.yearStart:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", lay.years.First+i, err)
		}
		out = append(out, v)
	}

	return out, nil
}

func incomplete(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}

	return false
}

func malformed(indicator domain.Indicator, err error, what string) error {
	return serrors.Wrap(serrors.ErrMalformed, err, "%s: %s", indicator, what)
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	return br
}
