package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one exam row: who, when, what. Date is kept as text until the
// normalizer canonicalizes it to dd/mm/yyyy.
type Record struct {
	Patient string `json:"patient"`
	Date    string `json:"date"`
	Exam    string `json:"exam"`
}

// ReconciliationRun is the audit entry written for every server-side run.
// Only counts and the archived report location are stored, never records.
type ReconciliationRun struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Threshold         float64    `db:"threshold" json:"threshold"`
	PerformedCount    int        `db:"performed_count" json:"performed_count"`
	PaidCount         int        `db:"paid_count" json:"paid_count"`
	ExcludedPerformed int        `db:"excluded_performed" json:"excluded_performed"`
	ExcludedPaid      int        `db:"excluded_paid" json:"excluded_paid"`
	MatchedCount      int        `db:"matched_count" json:"matched_count"`
	UnpaidCount       int        `db:"unpaid_count" json:"unpaid_count"`
	Sources           SourceList `db:"sources" json:"sources"`
	ReportBucket      string     `db:"report_bucket" json:"-"`
	ReportKey         string     `db:"report_key" json:"report_key"`
	CreatedBy         string     `db:"created_by" json:"created_by"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// SourceRef names one input document of a run.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	Name string     `json:"name"`
	Rows int        `json:"rows"`
}

// SourceList is stored as a JSON array.
type SourceList []SourceRef

// Value implements driver.Valuer.
func (s SourceList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]SourceRef(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *SourceList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("SourceList.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]SourceRef)(s))
}

// Table is a raw table lifted from a document page: a header row and the
// data rows beneath it, cell text as printed.
type Table struct {
	Page   int        `json:"page"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}
