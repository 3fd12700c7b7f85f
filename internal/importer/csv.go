package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LegacyStudent is one row of the campus card system's export.
type LegacyStudent struct {
	StudentNo string
	Name      string
	Email     string
	Balance   int64
	Verified  bool
}

// ParseRecords reads a legacy export CSV with the header
// student_no,name,email,balance,verified.
func ParseRecords(r io.Reader) ([]LegacyStudent, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	expected := []string{"student_no", "name", "email", "balance", "verified"}
	for i, col := range expected {
		if i >= len(header) || strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("unexpected header: want %v, got %v", expected, header)
		}
	}

	var students []LegacyStudent
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		balance, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse balance: %w", line, err)
		}
		if balance < 0 {
			return nil, fmt.Errorf("line %d: negative balance %d", line, balance)
		}
		verified, err := strconv.ParseBool(strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse verified: %w", line, err)
		}

		students = append(students, LegacyStudent{
			StudentNo: strings.TrimSpace(record[0]),
			Name:      strings.TrimSpace(record[1]),
			Email:     strings.ToLower(strings.TrimSpace(record[2])),
			Balance:   balance,
			Verified:  verified,
		})
	}

	return students, nil
}
