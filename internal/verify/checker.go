// Package verify checks assertion records against a scraped model of the C
// sources that produced them.
package verify

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cscrape/internal/expr"
	"cscrape/internal/record"
	"cscrape/internal/scrape"
)

// Result is the outcome of one record.
type Result struct {
	Record record.Record `json:"record"`
	Actual string        `json:"actual"`
	OK     bool          `json:"ok"`
	Report string        `json:"report"`
}

// Report collects the results of a whole results file.
type Report struct {
	Results []Result `json:"results"`
	Errors  int      `json:"errors"`
}

// Failed returns the results that did not match.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// WriteTo prints one line per result, numbering the errors, then the total.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	errs := 0
	for _, res := range r.Results {
		b.WriteString(res.Report)
		if res.OK {
			b.WriteString("    OK\n")
		} else {
			errs++
			fmt.Fprintf(&b, "    ERROR %d\n", errs)
		}
	}
	fmt.Fprintf(&b, "ERRORS=%d\n", r.Errors)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Checker evaluates records with "obj" bound to a Scraper.
type Checker struct {
	env expr.Env
}

// NewChecker returns a Checker querying s.
func NewChecker(s *scrape.Scraper) *Checker {
	return &Checker{env: expr.Env{"obj": &scraperObject{s: s}}}
}

// Eval evaluates a query expression with "obj" bound to the scraper.
func (c *Checker) Eval(src string) (expr.Value, error) {
	return expr.Eval(src, c.env)
}

// CheckAll checks records in order.
func (c *Checker) CheckAll(records []record.Record) *Report {
	rep := &Report{Results: make([]Result, 0, len(records))}
	for _, rec := range records {
		res := c.Check(rec)
		if !res.OK {
			rep.Errors++
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// Check evaluates one record and compares it with the recorded value.
func (c *Checker) Check(rec record.Record) Result {
	switch rec.Kind {
	case record.KindInt:
		return c.checkInt(rec)
	case record.KindHex:
		return c.checkHex(rec)
	case record.KindStr:
		return c.checkStr(rec)
	case record.KindExp:
		return c.checkExp(rec)
	}
	return Result{
		Record: rec,
		Report: fmt.Sprintf("Unknown test type %s at line %d", rec.Kind, rec.Line),
	}
}

// failed reports an evaluation error on a record that expected a value.
func failed(rec record.Record, err error) Result {
	repr := expr.Repr(err)
	return Result{
		Record: rec,
		Actual: repr,
		Report: fmt.Sprintf("%4d: eval(%s) (EXCEPTION:%s) = %s", rec.Line, rec.Expr, repr, rec.Value),
	}
}

func (c *Checker) checkInt(rec record.Record) Result {
	v, err := expr.Eval(rec.Expr, c.env)
	if err != nil {
		return failed(rec, err)
	}
	actual, ok := expr.BigInt(v)
	if !ok {
		return failed(rec, notAnInteger(v))
	}
	res := Result{Record: rec, Actual: actual.String()}
	expected, ok := new(big.Int).SetString(strings.TrimSpace(rec.Value), 10)
	if !ok {
		res.Report = fmt.Sprintf("%4d: eval(%s) (%d) = %s", rec.Line, rec.Expr, actual, rec.Value)
		return res
	}
	res.OK = actual.Cmp(expected) == 0
	res.Report = fmt.Sprintf("%4d: eval(%s) (%d) = %d", rec.Line, rec.Expr, actual, expected)
	return res
}

// checkHex compares as unsigned 64 bit values. Negative or wider results
// never match.
func (c *Checker) checkHex(rec record.Record) Result {
	v, err := expr.Eval(rec.Expr, c.env)
	if err != nil {
		return failed(rec, err)
	}
	n, ok := expr.BigInt(v)
	if !ok {
		return failed(rec, notAnInteger(v))
	}
	res := Result{Record: rec}
	actual, convErr := unsigned(n)
	expected, parseErr := parseHex(rec.Value)
	switch {
	case convErr != nil:
		res.Actual = n.String()
		res.Report = fmt.Sprintf("%4d: eval(%s) (%d) = %s", rec.Line, rec.Expr, n, rec.Value)
	case parseErr != nil:
		res.Actual = fmt.Sprintf("0x%08x", actual)
		res.Report = fmt.Sprintf("%4d: eval(%s) (0x%08x) = %s", rec.Line, rec.Expr, actual, rec.Value)
	default:
		res.Actual = fmt.Sprintf("0x%08x", actual)
		res.OK = actual == expected
		res.Report = fmt.Sprintf("%4d: eval(%s) (0x%08x) = 0x%08x", rec.Line, rec.Expr, actual, expected)
	}
	return res
}

func (c *Checker) checkStr(rec record.Record) Result {
	v, err := expr.Eval(rec.Expr, c.env)
	if err != nil {
		return failed(rec, err)
	}
	actual := expr.Str(v)
	return Result{
		Record: rec,
		Actual: actual,
		OK:     actual == rec.Value,
		Report: fmt.Sprintf("%4d: '%s' (%s) = '%s'", rec.Line, rec.Expr, actual, rec.Value),
	}
}

// checkExp expects the evaluation to fail. The rendered exception, cut to the
// length of the recorded text, must equal it. A recorded text that is a
// prefix of the bare message also matches.
func (c *Checker) checkExp(rec record.Record) Result {
	_, err := expr.Eval(rec.Expr, c.env)
	if err == nil {
		return Result{
			Record: rec,
			Actual: "NO EXCEPTION",
			Report: fmt.Sprintf("%4d: eval(%s) = NO EXCEPTION", rec.Line, rec.Expr),
		}
	}
	repr := expr.Repr(err)
	truncated := repr[:min(len(rec.Value), len(repr))]
	ok := truncated == rec.Value || (rec.Value != "" && strings.HasPrefix(message(err), rec.Value))
	return Result{
		Record: rec,
		Actual: truncated,
		OK:     ok,
		Report: fmt.Sprintf("%4d: eval(%s) (EXCEPTION:%s) = %s", rec.Line, rec.Expr, expr.ReprValue(truncated), rec.Value),
	}
}

// message is the error text without any class prefix.
func message(err error) string {
	var ee *expr.Error
	if errors.As(err, &ee) {
		return ee.Msg
	}
	return err.Error()
}

func unsigned(n *big.Int) (uint64, error) {
	if n.IsInt64() {
		return safecast.Conv[uint64](n.Int64())
	}
	if n.IsUint64() {
		return n.Uint64(), nil
	}
	return 0, fmt.Errorf("%s does not fit in 64 bits", n)
}

func notAnInteger(v expr.Value) error {
	return &expr.Error{Class: "TypeError", Msg: fmt.Sprintf("expected an integer, got %s", expr.TypeName(v))}
}

// parseHex accepts the value with or without a 0x prefix.
func parseHex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}
