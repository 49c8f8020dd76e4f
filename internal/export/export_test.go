package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ==================== helpers ====================

var when = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func sampleSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Transactions: []ledger.Transaction{
			{ID: "t1", Amount: decimal.RequireFromString("500"), Direction: ledger.Expense,
				CategoryID: "1", AccountID: "main-cash", Note: `Lunch "office"`, CreatedAt: when, Recurring: true},
			{ID: "t2", Amount: decimal.RequireFromString("2000.50"), Direction: ledger.Earning,
				CategoryID: "gone", AccountID: "nowhere", CreatedAt: when},
		},
		Accounts:   ledger.DefaultAccounts(),
		Categories: ledger.DefaultCategories(),
		Currency:   "$",
	}
}

// ==================== JSON ====================

func TestJSON_RoundTrip(t *testing.T) {
	data, err := JSON(sampleSnapshot(), when)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	for _, want := range []string{`"version": "1.0.0"`, `"exportedAt": "2026-03-15T10:30:00Z"`, `"budgets": []`, `"isRecurring": true`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("document missing %s", want)
		}
	}

	snap, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(snap.Transactions) != 2 || snap.Currency != "$" || len(snap.Categories) != 8 {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.Transactions[1].Amount.Equal(decimal.RequireFromString("2000.5")) {
		t.Errorf("amount = %s", snap.Transactions[1].Amount)
	}
}

func TestParseJSON_InvalidFormat(t *testing.T) {
	cases := []string{
		`not json`,
		`[]`,
		`{"accounts":[],"categories":[]}`,
		`{"transactions":[],"categories":[]}`,
		`{"transactions":[],"accounts":[]}`,
		`{"transactions":null,"accounts":[],"categories":[]}`,
		`{"transactions":"x","accounts":[],"categories":[]}`,
	}
	for _, c := range cases {
		if _, err := ParseJSON([]byte(c)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseJSON(%s) err = %v, want ErrInvalidFormat", c, err)
		}
	}
}

func TestParseJSON_OptionalFields(t *testing.T) {
	snap, err := ParseJSON([]byte(`{"transactions":[],"accounts":[],"categories":[]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if snap.Budgets != nil || snap.Currency != "" {
		t.Errorf("absent fields should stay empty: %+v", snap)
	}
	if snap.Accounts == nil || len(snap.Accounts) != 0 {
		t.Error("present empty accounts should stay an empty slice")
	}
}

func TestSealOpen(t *testing.T) {
	sealed, err := Seal("k", sampleSnapshot(), when)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("transactions")) {
		t.Error("sealed backup contains plaintext")
	}
	snap, err := Open("k", sealed)
	if err != nil || len(snap.Transactions) != 2 {
		t.Errorf("Open = %+v, %v", snap, err)
	}
	if _, err := Open("wrong", sealed); err == nil {
		t.Error("Open with wrong key succeeded")
	}
	if _, err := Seal("", sampleSnapshot(), when); err == nil {
		t.Error("Seal with empty key succeeded")
	}
}

// ==================== sheets ====================

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Date,Type,Amount,Category,Account,Note,Recurring\n" +
		`2026-03-15T10:30:00.000Z,expense,500,Food,Cash Wallet,"Lunch ""office""",Yes` + "\n" +
		"2026-03-15T10:30:00.000Z,earning,2000.5,Unknown,Unknown,,No\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_QuotesSeparators(t *testing.T) {
	snap := sampleSnapshot()
	snap.Categories[0].Name = "Food, Drinks"
	snap.Transactions = snap.Transactions[:1]

	var buf bytes.Buffer
	WriteCSV(&buf, snap)
	if !strings.Contains(buf.String(), `,"Food, Drinks",`) {
		t.Errorf("category with comma not quoted: %s", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "Date,Type,Amount,Category,Account,Note,Recurring" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][3] != "Food" || rows[1][5] != `Lunch "office"` || rows[2][3] != "Unknown" {
		t.Errorf("data rows = %v", rows[1:])
	}
	if rows[2][2] != "2000.5" {
		t.Errorf("amount cell = %q", rows[2][2])
	}
}
