package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/eddic/gr-gs/internal/distribution"
)

// Run records one encoder invocation
type Run struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Name             string    `gorm:"index;size:255" json:"name"`
	FieldSize        int       `gorm:"not null" json:"field_size"`
	CodewordLength   int       `gorm:"not null" json:"codeword_length"`
	AugmentingLength int       `gorm:"not null" json:"augmenting_length"`
	Continuous       bool      `json:"continuous"`
	Method           string    `gorm:"index;size:20" json:"method"`
	Multiplier       Uint64s   `gorm:"type:text" json:"multiplier"`
	Bytes            uint64    `json:"bytes"`
	Words            uint64    `json:"words"`
	SelectionCounts  Uint64s   `gorm:"type:text" json:"selection_counts"`
	FinalRDSReal     float64   `json:"final_rds_real"`
	FinalRDSImag     float64   `json:"final_rds_imag"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Snapshots []DistributionSnapshot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Run) TableName() string {
	return "runs"
}

// IsValid checks the run describes a usable code
func (r Run) IsValid() bool {
	return r.FieldSize >= 2 && r.CodewordLength > r.AugmentingLength && r.AugmentingLength > 0
}

// String returns a formatted string representation
func (r Run) String() string {
	mode := "block"
	if r.Continuous {
		mode = "continuous"
	}
	return fmt.Sprintf("%s #%d GF(%d) n=%d a=%d %s %s: %d words",
		r.Name, r.ID, r.FieldSize, r.CodewordLength, r.AugmentingLength, mode, r.Method, r.Words)
}

// DistributionSnapshot is the RDS distribution of a run at some word count
type DistributionSnapshot struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	RunID         uint      `gorm:"index;not null" json:"run_id"`
	Words         uint64    `json:"words"`
	Bins          int       `json:"bins"`
	BinSize       float64   `json:"bin_size"`
	LeftBinCenter float64   `json:"left_bin_center"`
	Samples       uint64    `json:"samples"`
	Values        Float64s  `gorm:"type:text" json:"values"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (DistributionSnapshot) TableName() string {
	return "distribution_snapshots"
}

// Uint64s is stored as a JSON array column
type Uint64s []uint64

func (s Uint64s) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range s {
		enc.Uint64(v)
	}
}

func (s Uint64s) IsNil() bool { return s == nil }

func (s *Uint64s) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v uint64
	if err := dec.Uint64(&v); err != nil {
		return err
	}
	*s = append(*s, v)
	return nil
}

// Value implements driver.Valuer
func (s Uint64s) Value() (driver.Value, error) {
	b, err := gojay.MarshalJSONArray(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *Uint64s) Scan(value interface{}) error {
	*s = nil
	data, err := columnBytes(value)
	if err != nil || data == nil {
		return err
	}
	*s = Uint64s{}
	return gojay.UnmarshalJSONArray(data, s)
}

// Float64s is stored as a JSON array column
type Float64s []float64

func (s Float64s) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range s {
		enc.Float64(v)
	}
}

func (s Float64s) IsNil() bool { return s == nil }

func (s *Float64s) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var v float64
	if err := dec.Float64(&v); err != nil {
		return err
	}
	*s = append(*s, v)
	return nil
}

// Value implements driver.Valuer
func (s Float64s) Value() (driver.Value, error) {
	b, err := gojay.MarshalJSONArray(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *Float64s) Scan(value interface{}) error {
	*s = nil
	data, err := columnBytes(value)
	if err != nil || data == nil {
		return err
	}
	*s = Float64s{}
	return gojay.UnmarshalJSONArray(data, s)
}

func columnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}

// NewSnapshot captures the published output of d after words codewords
func NewSnapshot(words uint64, d *distribution.InfiniteDistribution) DistributionSnapshot {
	return DistributionSnapshot{
		Words:         words,
		Bins:          d.Bins(),
		BinSize:       d.BinSize(),
		LeftBinCenter: d.LeftBinCenter(),
		Samples:       d.Total(),
		Values:        Float64s(d.Snapshot()),
	}
}
