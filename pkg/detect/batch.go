package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

// ErrTooManyRecords is returned when an input holds more records than allowed.
var ErrTooManyRecords = errors.New("too many records")

// Record is a response captured by a scanner, replayed through the detector.
type Record struct {
	Host string
	Port uint16
	Body []byte
}

type recordLine struct {
	Host    string  `json:"host"`
	Port    any     `json:"port"`
	Body    string  `json:"body"`
	BodyB64 *[]byte `json:"body_b64"`
}

// ReadRecords parses JSON Lines of {"host", "port", "body"}. Port may be a
// number or a decimal string in 0..65535. Binary bodies that are not valid
// UTF-8 go in "body_b64" instead of "body". Blank lines are skipped. A
// positive limit caps the number of records accepted.
func ReadRecords(r io.Reader, limit int) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rl recordLine
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&rl); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		port, err := parsePort(rl.Port)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid port %v: %w", lineNo, rl.Port, err)
		}
		body := []byte(rl.Body)
		if rl.BodyB64 != nil {
			if rl.Body != "" {
				return nil, fmt.Errorf("line %d: body and body_b64 are mutually exclusive", lineNo)
			}
			body = *rl.BodyB64
		}
		if limit > 0 && len(records) == limit {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyRecords, limit)
		}
		records = append(records, Record{Host: rl.Host, Port: port, Body: body})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// parsePort accepts integral JSON numbers and decimal strings.
func parsePort(v any) (uint16, error) {
	var text string
	switch p := v.(type) {
	case json.Number:
		text = p.String()
	case string:
		text = strings.TrimSpace(p)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	f, err := cast.ToFloat64E(text)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxUint16 {
		return 0, fmt.Errorf("not an integer in 0..%d", math.MaxUint16)
	}
	return uint16(f), nil
}

// Batch runs Detect over records with at most workers concurrent calls.
// The i-th element of the returned slice holds the results for records[i].
// Cancellation stops scheduling new records; records already running finish.
func (d *Detector) Batch(ctx context.Context, records []Record, workers int) ([][]Result, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([][]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := records[i]
			out[i] = d.Detect(rec.Host, rec.Port, rec.Body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
