package model

// BulkPasteEntry is a staging row parsed from pasted receipt text.
// Amount keeps the literal sign and decimal form from the input.
type BulkPasteEntry struct {
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Vendor     string `json:"vendor"`
	Category   string `json:"category"`
	Raw        string `json:"raw"`
	LineNumber int    `json:"line_number"`
}
