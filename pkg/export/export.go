// Package export writes a snapshot as JSON for presentation layers.
//
// The document is written field by field with jx so that key order is fixed:
// two snapshots holding the same data encode to the same bytes.
//
//	{
//	  "runId": "...", "mode": "code", "loadedAt": "2026-01-02T15:04:05Z",
//	  "countries": [{"id": "AFG", "name": "Afghanistan"}],
//	  "indicators": [{
//	    "indicator": "fertility", "title": "...", "aggregation": "median",
//	    "years": {"first": 1960, "last": 2017},
//	    "rows": [[7.45, ...]],
//	    "mean": [5.12, ...],
//	    "continents": [{"label": "South Asia", "values": [...]}]
//	  }]
//	}
//
// rows is parallel to countries and mean holds the cross-country mean of each
// year. Non-finite values are written as null.
package export

import (
	"demography/internal/summary"
	"demography/pkg/domain"
	"io"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes s to w.
func Encode(w io.Writer, s *domain.Snapshot) error {
	if s == nil {
		return errors.New("nil snapshot")
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	if err := encodeSnapshot(e, s); err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	return nil
}

func encodeSnapshot(e *jx.Encoder, s *domain.Snapshot) error {
	if len(s.Names) != len(s.Codes) {
		return errors.Errorf("%d names for %d countries", len(s.Names), len(s.Codes))
	}

	e.ObjStart()
	e.FieldStart("runId")
	e.Str(s.RunID)
	e.FieldStart("mode")
	e.Str(string(s.Mode))
	e.FieldStart("loadedAt")
	e.Str(s.LoadedAt.UTC().Format(time.RFC3339))

	e.FieldStart("countries")
	e.ArrStart()
	for i, id := range s.Codes {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(string(id))
		e.FieldStart("name")
		e.Str(s.Names[i])
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("indicators")
	e.ArrStart()
	for _, d := range domain.Descriptors() {
		t, ok := s.Tables[d.Indicator]
		if !ok {
			continue
		}
		if err := encodeIndicator(e, d, t, s.Continents[d.Indicator], s.Codes); err != nil {
			return errors.Wrapf(err, "indicator %s", d.Indicator)
		}
	}
	e.ArrEnd()
	e.ObjEnd()

	return nil
}

func encodeIndicator(e *jx.Encoder, d domain.Descriptor, t *domain.IndicatorTable,
	continents *domain.ContinentTable, ids []domain.CountryID) error {
	e.ObjStart()
	e.FieldStart("indicator")
	e.Str(d.Indicator.String())
	e.FieldStart("title")
	e.Str(d.Title)
	e.FieldStart("aggregation")
	e.Str(string(d.Aggregation))

	years := t.Years()
	e.FieldStart("years")
	e.ObjStart()
	e.FieldStart("first")
	e.Int(years.First)
	e.FieldStart("last")
	e.Int(years.Last)
	e.ObjEnd()

	e.FieldStart("rows")
	e.ArrStart()
	for _, id := range ids {
		row, ok := t.Row(string(id))
		if !ok {
			return errors.Errorf("no row for %q", id)
		}
		encodeValues(e, row)
	}
	e.ArrEnd()

	means, err := summary.MeanByYear(t.Table)
	if err != nil {
		return errors.Wrap(err, "mean by year")
	}
	e.FieldStart("mean")
	encodeValues(e, means)

	e.FieldStart("continents")
	e.ArrStart()
	if continents != nil {
		for _, label := range continents.Keys() {
			row, _ := continents.Row(label)
			e.ObjStart()
			e.FieldStart("label")
			e.Str(label)
			e.FieldStart("values")
			encodeValues(e, row)
			e.ObjEnd()
		}
	}
	e.ArrEnd()
	e.ObjEnd()

	return nil
}

func encodeValues(e *jx.Encoder, values []float64) {
	e.ArrStart()
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e.Null()

			continue
		}
		e.Float64(v)
	}
	e.ArrEnd()
}
