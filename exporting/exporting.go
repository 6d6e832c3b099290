// Package exporting converts a store into formats that analysis tools can
// load. The store file is only read.
package exporting

import (
	"encoding/csv"
	"io"

	"github.com/sarchlab/accesslog/datarecording"
	"github.com/sarchlab/accesslog/store"
)

// CSVHeader is the first row written by ToCSV.
var CSVHeader = []string{"time", "seq", "addr", "tag", "idx", "off", "data"}

// ToDataRecorder writes every record of the store into the access table of
// the recorder and flushes it. It returns the number of records exported.
func ToDataRecorder(
	s *store.Store,
	recorder datarecording.DataRecorder,
) (int, error) {
	records, err := s.Records()
	if err != nil {
		return 0, err
	}

	err = datarecording.CreateAccessTable(recorder)
	if err != nil {
		return 0, err
	}

	for _, r := range records {
		err = recorder.InsertData(
			datarecording.AccessTable, datarecording.MakeAccessEntry(r))
		if err != nil {
			return 0, err
		}
	}

	err = recorder.Flush()
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// ToCSV writes every record of the store as a CSV row. It returns the number
// of records exported.
func ToCSV(s *store.Store, w io.Writer) (int, error) {
	records, err := s.Records()
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)

	err = cw.Write(CSVHeader)
	if err != nil {
		return 0, err
	}

	for _, r := range records {
		seq := r.SeqName
		if seq == "" {
			seq = store.NoSeqName
		}

		err = cw.Write([]string{
			r.Time.Format(store.TimeLayout),
			seq,
			r.Address,
			r.Tag,
			r.Index,
			r.Offset,
			r.Data,
		})
		if err != nil {
			return 0, err
		}
	}

	cw.Flush()

	return len(records), cw.Error()
}
