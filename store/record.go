package store

import (
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of a record line. Records have second
// precision.
const TimeLayout = "2006-01-02 15:04:05"

// NoSeqName is written in place of a missing sequence name.
const NoSeqName = "-"

// A Record is one cache access. All the access fields are free text supplied
// by the caller.
type Record struct {
	Time    time.Time
	SeqName string
	Address string
	Tag     string
	Index   string
	Offset  string
	Data    string
}

// String returns the record as a store line without the trailing newline.
func (r Record) String() string {
	return strings.TrimSuffix(FormatLine(r), "\n")
}

// FormatLine renders a record as one newline-terminated store line:
//
//	<YYYY-MM-DD HH:MM:SS> | seq=<label|-> | addr=<a> tag=<t> idx=<i> off=<o> data=<d>
func FormatLine(r Record) string {
	seq := r.SeqName
	if seq == "" {
		seq = NoSeqName
	}

	var b strings.Builder

	b.WriteString(r.Time.Format(TimeLayout))
	b.WriteString(" | seq=")
	b.WriteString(seq)
	b.WriteString(" | addr=")
	b.WriteString(r.Address)
	b.WriteString(" tag=")
	b.WriteString(r.Tag)
	b.WriteString(" idx=")
	b.WriteString(r.Index)
	b.WriteString(" off=")
	b.WriteString(r.Offset)
	b.WriteString(" data=")
	b.WriteString(r.Data)
	b.WriteString("\n")

	return b.String()
}
