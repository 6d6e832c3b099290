package datarecording

import (
	"github.com/rs/xid"
	"github.com/sarchlab/accesslog/store"
)

// AccessTable is the table that holds access entries.
const AccessTable = "accesses"

// AccessEntry is the row form of a store record.
type AccessEntry struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	SeqName string `json:"seq"`
	Address string `json:"addr"`
	Tag     string `json:"tag"`
	Index   string `json:"idx"`
	Offset  string `json:"off"`
	Data    string `json:"data"`
}

// MakeAccessEntry converts a record into a row with a fresh unique ID.
func MakeAccessEntry(r store.Record) AccessEntry {
	return AccessEntry{
		ID:      xid.New().String(),
		Time:    r.Time.Format(store.TimeLayout),
		SeqName: r.SeqName,
		Address: r.Address,
		Tag:     r.Tag,
		Index:   r.Index,
		Offset:  r.Offset,
		Data:    r.Data,
	}
}

// CreateAccessTable creates the access table in the recorder.
func CreateAccessTable(r DataRecorder) error {
	return r.CreateTable(AccessTable, AccessEntry{})
}
