package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedLine is returned when a line does not follow the record
// grammar.
var ErrMalformedLine = errors.New("malformed record line")

var fieldMarkers = []string{" tag=", " idx=", " off=", " data="}

// ParseLine parses one store line. Fields are located by their literal
// markers, not by column, since field widths vary. A trailing newline is
// ignored.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	ts, rest, ok := strings.Cut(line, " | seq=")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing seq in %q", ErrMalformedLine, line)
	}

	t, err := time.ParseInLocation(TimeLayout, ts, time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedLine, ts)
	}

	seq, rest, ok := strings.Cut(rest, " | addr=")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing addr in %q", ErrMalformedLine, line)
	}

	if seq == NoSeqName {
		seq = ""
	}

	values := make([]string, 0, len(fieldMarkers)+1)
	for _, marker := range fieldMarkers {
		var value string

		value, rest, ok = strings.Cut(rest, marker)
		if !ok {
			return Record{}, fmt.Errorf("%w: missing %q in %q",
				ErrMalformedLine, strings.TrimSpace(marker), line)
		}

		values = append(values, value)
	}

	values = append(values, rest)

	return Record{
		Time:    t,
		SeqName: seq,
		Address: values[0],
		Tag:     values[1],
		Index:   values[2],
		Offset:  values[3],
		Data:    values[4],
	}, nil
}

// ParseRecords parses the content of a store in file order. Comment lines
// starting with "#" and blank lines are skipped.
func ParseRecords(content string) ([]Record, error) {
	var records []Record

	for i, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := ParseLine(line)
		if err != nil {
			return records, fmt.Errorf("line %d: %w", i+1, err)
		}

		records = append(records, r)
	}

	return records, nil
}
