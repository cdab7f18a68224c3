package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/ghostimport"
	"github.com/shopspring/decimal"
)

// Freetrade columns, as named by columnName.
const (
	ftTitle                    = "title"
	ftType                     = "type"
	ftTimestamp                = "timestamp"
	ftAccountCurrency          = "accountcurrency"
	ftTotalAmount              = "totalamount"
	ftBuySell                  = "buysell"
	ftTicker                   = "ticker"
	ftISIN                     = "isin"
	ftStampDuty                = "stampduty"
	ftQuantity                 = "quantity"
	ftInstrumentCurrency       = "instrumentcurrency"
	ftPricePerShare            = "pricepershare"
	ftFXFeeAmount              = "fxfeeamount"
	ftDividendPayDate          = "dividendpaydate"
	ftDividendEligibleQuantity = "dividendeligiblequantity"
	ftDividendAmountPerShare   = "dividendamountpershare"
	ftDividendWithheldTax      = "dividendwithheldtaxamount"
)

// ftIgnored are record types that carry no activity.
var ftIgnored = []string{"withdrawal", "monthly_statement", "top_up"}

type freetrade struct {
	Options
}

func newFreetrade(opts Options) Converter { return &freetrade{opts} }

// Convert reads a Freetrade activity export.
//
// Lookup failures abort the conversion. Records whose security has no match,
// or that cannot be read, are reported and left out of the export.
func (c *freetrade) Convert(ctx context.Context, r io.Reader) (*ghostimport.Export, error) {
	rows, err := readRows(r, ftTitle, ftType, ftTimestamp)
	if err != nil {
		return nil, fmt.Errorf("freetrade: %w", err)
	}
	export := ghostimport.NewExport(c.Now())
	c.Reporter.Start(len(rows))
	for _, rec := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		act, err := c.convert(ctx, rec)
		switch {
		case errors.Is(err, ghostimport.ErrLookupFailure):
			return nil, fmt.Errorf("freetrade: line %d: %w", rec.line, err)
		case errors.Is(err, errNoMatch):
			c.Reporter.NoMatch(rec.line, c.query(rec))
		case err != nil:
			c.Reporter.Skipped(rec.line, err.Error())
		case act != nil:
			export.Activities = append(export.Activities, *act)
		}
		c.Reporter.Step()
	}
	c.Log.Info().Int("records", len(rows)).Int("activities", len(export.Activities)).Msg("freetrade export converted")
	return export, nil
}

// errNoMatch marks records whose security is known to have no match.
var errNoMatch = errors.New("no match")

// convert returns the activity of a record, nil for ignored records.
func (c *freetrade) convert(ctx context.Context, rec row) (*ghostimport.Activity, error) {
	kind := strings.ToLower(rec.str(ftType))
	for _, t := range ftIgnored {
		if strings.Contains(kind, t) {
			return nil, nil
		}
	}
	if strings.Contains(kind, "interest_from_cash") {
		return c.interest(rec)
	}

	var action ghostimport.ActivityType
	switch {
	case strings.Contains(kind, "dividend"):
		action = ghostimport.Dividend
	case kind == "order":
		t, err := ghostimport.ParseActivityType(rec.str(ftBuySell))
		if err != nil || (t != ghostimport.Buy && t != ghostimport.Sell) {
			return nil, fmt.Errorf("order is neither a buy nor a sell: %q", rec.str(ftBuySell))
		}
		action = t
	default:
		return nil, fmt.Errorf("unsupported record type %q", rec.str(ftType))
	}

	sym, err := c.Resolver.Resolve(ctx, c.query(rec))
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, errNoMatch
	}
	if action == ghostimport.Dividend {
		return c.dividend(rec, sym)
	}
	return c.order(rec, action, sym)
}

func (c *freetrade) query(rec row) ghostimport.SymbolQuery {
	return ghostimport.SymbolQuery{
		ISIN:     rec.str(ftISIN),
		Ticker:   rec.str(ftTicker),
		Currency: rec.str(ftInstrumentCurrency),
		Name:     rec.str(ftTitle),
	}
}

// interest has no security: the title is the symbol of a manual activity.
func (c *freetrade) interest(rec row) (*ghostimport.Activity, error) {
	amount, err := rec.dec(ftTotalAmount)
	if err != nil {
		return nil, err
	}
	date, err := rec.date(ftTimestamp)
	if err != nil {
		return nil, err
	}
	return &ghostimport.Activity{
		AccountID:  c.AccountID,
		Comment:    rec.str(ftTitle),
		Fee:        ghostimport.NewAmount(decimal.Zero),
		Quantity:   ghostimport.NewAmount(decimal.NewFromInt(1)),
		Type:       ghostimport.Interest,
		UnitPrice:  ghostimport.NewAmount(amount),
		Currency:   rec.str(ftAccountCurrency),
		DataSource: string(ghostimport.Manual),
		Date:       ghostimport.FormatDate(date),
		Symbol:     rec.str(ftTitle),
	}, nil
}

func (c *freetrade) dividend(rec row, sym *ghostimport.ResolvedSymbol) (*ghostimport.Activity, error) {
	var (
		tax, qty, perShare decimal.Decimal
		err                error
	)
	if tax, err = rec.dec(ftDividendWithheldTax); err != nil {
		return nil, err
	}
	if qty, err = rec.dec(ftDividendEligibleQuantity); err != nil {
		return nil, err
	}
	if perShare, err = rec.dec(ftDividendAmountPerShare); err != nil {
		return nil, err
	}
	date, err := rec.date(ftDividendPayDate)
	if err != nil {
		return nil, err
	}
	return &ghostimport.Activity{
		AccountID:  c.AccountID,
		Comment:    rec.str(ftTitle),
		Fee:        ghostimport.NewAmount(tax),
		Quantity:   ghostimport.NewAmount(qty),
		Type:       ghostimport.Dividend,
		UnitPrice:  ghostimport.NewAmount(perShare.Mul(ghostimport.MinorUnitFactor(sym.Currency))),
		Currency:   sym.Currency,
		DataSource: c.dataSource(sym),
		Date:       ghostimport.FormatDate(date),
		Symbol:     sym.Symbol,
	}, nil
}

func (c *freetrade) order(rec row, action ghostimport.ActivityType, sym *ghostimport.ResolvedSymbol) (*ghostimport.Activity, error) {
	var (
		stamp, fx, qty, price decimal.Decimal
		err                   error
	)
	if stamp, err = rec.dec(ftStampDuty); err != nil {
		return nil, err
	}
	if fx, err = rec.dec(ftFXFeeAmount); err != nil {
		return nil, err
	}
	if qty, err = rec.dec(ftQuantity); err != nil {
		return nil, err
	}
	if price, err = rec.dec(ftPricePerShare); err != nil {
		return nil, err
	}
	date, err := rec.date(ftTimestamp)
	if err != nil {
		return nil, err
	}
	return &ghostimport.Activity{
		AccountID: c.AccountID,
		Comment:   rec.str(ftTitle),
		Fee:       ghostimport.NewAmount(stamp.Add(fx)),
		Quantity:  ghostimport.NewAmount(qty),
		Type:      action,
		// Prices are in the instrument currency, the symbol may quote in its minor unit.
		UnitPrice:  ghostimport.NewAmount(price.Mul(ghostimport.MinorUnitFactor(sym.Currency))),
		Currency:   sym.Currency,
		DataSource: c.dataSource(sym),
		Date:       ghostimport.FormatDate(date),
		Symbol:     sym.Symbol,
	}, nil
}
