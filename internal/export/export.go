// Package export converts a ledger snapshot to and from its portable forms:
// the JSON backup document, CSV and XLSX transaction sheets, and an
// AES-sealed backup.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/ledger"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/xuri/excelize/v2"
)

// Version is written into every JSON document.
const Version = "1.0.0"

// DateLayout is used for transaction dates in CSV and XLSX rows.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrInvalidFormat = errors.New("export: invalid backup file format")

// Document is the JSON backup layout.
type Document struct {
	Transactions []ledger.Transaction `json:"transactions"`
	Accounts     []ledger.Account     `json:"accounts"`
	Categories   []ledger.Category    `json:"categories"`
	Budgets      []ledger.Budget      `json:"budgets"`
	Currency     string               `json:"currency"`
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exportedAt"`
}

// JSON renders s as an indented backup document.
func JSON(s ledger.Snapshot, now time.Time) ([]byte, error) {
	doc := Document{
		Transactions: nonNil(s.Transactions),
		Accounts:     nonNil(s.Accounts),
		Categories:   nonNil(s.Categories),
		Budgets:      nonNil(s.Budgets),
		Currency:     s.Currency,
		Version:      Version,
		ExportedAt:   now.UTC(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseJSON reads a backup document. transactions, accounts and categories
// must be present; budgets and currency are optional and left nil/empty for
// Restore to fill in.
func ParseJSON(data []byte) (ledger.Snapshot, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, k := range []string{"transactions", "accounts", "categories"} {
		raw, ok := keys[k]
		if !ok || string(raw) == "null" {
			return ledger.Snapshot{}, fmt.Errorf("%w: missing %s", ErrInvalidFormat, k)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return ledger.Snapshot{
		Transactions: nonNil(doc.Transactions),
		Accounts:     nonNil(doc.Accounts),
		Categories:   nonNil(doc.Categories),
		Budgets:      doc.Budgets,
		Currency:     doc.Currency,
	}, nil
}

// Seal encrypts the JSON document of s with key.
func Seal(key string, s ledger.Snapshot, now time.Time) ([]byte, error) {
	if key == "" {
		return nil, errors.New("export: encryption key is empty")
	}
	plain, err := JSON(s, now)
	if err != nil {
		return nil, err
	}
	return util.EncryptAES(key, plain)
}

// Open decrypts a sealed backup and parses it.
func Open(key string, data []byte) (ledger.Snapshot, error) {
	plain, err := util.DecryptAES(key, data)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("open backup: %w", err)
	}
	return ParseJSON(plain)
}

// ---------- sheets ----------

var columns = []string{"Date", "Type", "Amount", "Category", "Account", "Note", "Recurring"}

// rows resolves names for every transaction of s, in snapshot order.
func rows(s ledger.Snapshot) [][]string {
	cats := make(map[string]string, len(s.Categories))
	for _, c := range s.Categories {
		cats[c.ID] = c.Name
	}
	accts := make(map[string]string, len(s.Accounts))
	for _, a := range s.Accounts {
		accts[a.ID] = a.Name
	}
	name := func(m map[string]string, id string) string {
		if n, ok := m[id]; ok && n != "" {
			return n
		}
		return "Unknown"
	}

	out := make([][]string, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		recurring := "No"
		if t.Recurring {
			recurring = "Yes"
		}
		out = append(out, []string{
			t.CreatedAt.UTC().Format(DateLayout),
			string(t.Direction),
			t.Amount.String(),
			name(cats, t.CategoryID),
			name(accts, t.AccountID),
			t.Note,
			recurring,
		})
	}
	return out
}

// WriteCSV writes one line per transaction under the fixed header. A
// non-empty note is always quoted with inner quotes doubled; other fields
// are quoted only when they contain a separator.
func WriteCSV(w io.Writer, s ledger.Snapshot) error {
	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')
	for _, r := range rows(s) {
		for i, field := range r {
			if i > 0 {
				b.WriteByte(',')
			}
			switch {
			case i == 5 && field != "":
				b.WriteString(quote(field))
			case strings.ContainsAny(field, ",\"\n\r"):
				b.WriteString(quote(field))
			default:
				b.WriteString(field)
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SheetName is the XLSX worksheet holding transactions.
const SheetName = "Transactions"

// WriteXLSX writes the same columns as WriteCSV into a workbook.
func WriteXLSX(w io.Writer, s ledger.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, h)
	}
	for r, row := range rows(s) {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if i == 2 {
				// amounts as numbers so sheets can sum them
				amount := s.Transactions[r].Amount.InexactFloat64()
				f.SetCellValue(SheetName, cell, amount)
				continue
			}
			f.SetCellValue(SheetName, cell, v)
		}
	}

	f.SetColWidth(SheetName, "A", "A", 26)
	f.SetColWidth(SheetName, "B", "C", 12)
	f.SetColWidth(SheetName, "D", "E", 16)
	f.SetColWidth(SheetName, "F", "F", 40)
	f.SetColWidth(SheetName, "G", "G", 10)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
