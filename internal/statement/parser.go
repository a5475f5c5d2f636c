package statement

import (
	"log/slog"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/merchant"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options controls how MM/DD dates are completed. Zero values are filled from
// the statement period when one is printed in the text.
type Options struct {
	ReferenceYear int
	ClosingMonth  int
}

// Debug carries diagnostics about a parse.
type Debug struct {
	Counts        map[model.SectionCode]int             `json:"counts"`
	FooterTotals  map[model.SectionCode]decimal.Decimal `json:"footer_totals"`
	SectionsFound []model.SectionCode                   `json:"sections_found"`
	ReferenceYear int                                   `json:"reference_year"`
	ClosingMonth  int                                   `json:"closing_month"`
}

// Result is the outcome of parsing one statement.
type Result struct {
	Period       *Period             `json:"period,omitempty"`
	Debug        Debug               `json:"debug"`
	Transactions []model.Transaction `json:"transactions"`
	Errors       []*LineError        `json:"errors"`
	Summary      Summary             `json:"summary"`
}

// Parser turns statement text into transactions. It is stateless between
// calls and safe for concurrent use.
type Parser struct {
	merchants *merchant.Normalizer
	now       func() time.Time
	opts      Options
}

// NewParser creates a parser. A nil normalizer uses the default vendor table.
func NewParser(opts Options, merchants *merchant.Normalizer) *Parser {
	if merchants == nil {
		merchants = merchant.New()
	}
	return &Parser{
		opts:      opts,
		merchants: merchants,
		now:       time.Now,
	}
}

// Parse segments text, runs the extractor for each section and normalizes
// payees. A bad line becomes a LineError and never stops the parse.
func (p *Parser) Parse(text string) *Result {
	result := &Result{
		Transactions: []model.Transaction{},
		Errors:       []*LineError{},
		Debug: Debug{
			Counts:       make(map[model.SectionCode]int),
			FooterTotals: make(map[model.SectionCode]decimal.Decimal),
		},
	}

	opts := p.opts
	if period, ok := DetectPeriod(text); ok {
		result.Period = &period
		if opts.ReferenceYear == 0 {
			opts.ReferenceYear = period.ReferenceYear()
		}
		if opts.ClosingMonth == 0 {
			opts.ClosingMonth = period.ClosingMonth()
		}
	}
	if opts.ReferenceYear == 0 {
		opts.ReferenceYear = p.now().Year()
		slog.Warn("no statement year found, assuming current year", "year", opts.ReferenceYear)
	}
	result.Debug.ReferenceYear = opts.ReferenceYear
	result.Debug.ClosingMonth = opts.ClosingMonth

	dates := dateResolver{referenceYear: opts.ReferenceYear, closingMonth: opts.ClosingMonth}
	extractors := map[model.SectionCode]Extractor{
		model.SectionDeposits:   &DepositExtractor{dates: dates},
		model.SectionChecks:     &CheckExtractor{dates: dates},
		model.SectionCard:       &CardExtractor{dates: dates},
		model.SectionElectronic: &ElectronicExtractor{dates: dates},
	}

	seen := make(map[model.SectionCode]bool)
	for _, section := range Segment(text) {
		if !seen[section.Code] {
			seen[section.Code] = true
			result.Debug.SectionsFound = append(result.Debug.SectionsFound, section.Code)
		}
		if section.FooterTotal.Valid {
			result.Debug.FooterTotals[section.Code] = section.FooterTotal.Decimal
		}

		extractor, ok := extractors[section.Code]
		if !ok {
			continue
		}
		transactions, lineErrors := extractor.Extract(section.Lines)
		for i := range transactions {
			p.finish(&transactions[i])
		}

		slog.Debug("extracted section",
			"section", section.Code,
			"start_line", section.StartLine,
			"lines", len(section.Lines),
			"transactions", len(transactions),
			"errors", len(lineErrors))

		result.Debug.Counts[section.Code] += len(transactions)
		result.Transactions = append(result.Transactions, transactions...)
		result.Errors = append(result.Errors, lineErrors...)
	}

	result.Summary = Summarize(result.Transactions)

	slog.Debug("parsed statement",
		"sections", len(result.Debug.SectionsFound),
		"transactions", len(result.Transactions),
		"errors", len(result.Errors))

	return result
}

// finish assigns payee, identity and hash to an extracted transaction.
func (p *Parser) finish(txn *model.Transaction) {
	switch txn.Section {
	case model.SectionCard:
		txn.Payee = p.merchants.Normalize(txn.Description, merchant.FallbackCard)
	case model.SectionElectronic:
		txn.Payee = p.merchants.Normalize(txn.Description, merchant.FallbackGeneric)
	case model.SectionDeposits, model.SectionChecks, model.SectionManual, model.SectionUncategorized:
	}
	txn.ID = uuid.NewString()
	txn.Hash = txn.GenerateHash()
}
