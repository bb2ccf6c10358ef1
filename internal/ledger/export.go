package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

var csvColumns = []string{"fecha", "tipo", "monto", "categoria", "nota"}

// ExportCSV writes txs with every cell quoted. Nothing is written for an
// empty list.
func ExportCSV(w io.Writer, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	for _, tx := range txs {
		b.WriteString("\n")
		cells := []string{
			tx.Date.Format(time.RFC3339),
			string(tx.Kind),
			tx.Amount.String(),
			tx.Category,
			tx.Note,
		}
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(cell))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// ExportJSON writes txs as an indented JSON array.
func ExportJSON(w io.Writer, txs []Transaction) error {
	if txs == nil {
		txs = []Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}
