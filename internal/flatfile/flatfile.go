// Package flatfile reads and writes the tab-separated intermediate recipe
// format that hands extracted recipes over to planning.
//
// One recipe per line:
//
//	<product>\t<amount>\t<cycle time>\t"<amount> x <name> | <amount> x <name>"
//
// Lines starting with '#' are comments. Only single-product recipes can be
// represented.
package flatfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"prodplan/internal/recipe"
)

const (
	fieldSep      = "\t"
	ingredientSep = " | "
	amountSep     = " x "
	commentPrefix = "#"
	minFields     = 4
	header        = "# product\tamount\tcycle_time\tingredients"
)

// EncodeStats counts what Encode did with its input.
type EncodeStats struct {
	Written         int
	MultiProduct    int
	Unrepresentable int
}

// Encode writes every single-product recipe as one line. Recipes with several
// products, or with names the format cannot carry, are skipped and counted.
func Encode(w io.Writer, recipes []recipe.Recipe) (EncodeStats, error) {
	var stats EncodeStats
	bw := bufio.NewWriter(w)
	for _, r := range recipes {
		product, ok := r.SingleProduct()
		if !ok {
			stats.MultiProduct++
			continue
		}
		if !representable(r) {
			stats.Unrepresentable++
			continue
		}
		if _, err := bw.WriteString(formatLine(product, r)); err != nil {
			return stats, fmt.Errorf("write %s: %w", r.Name, err)
		}
		stats.Written++
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	return stats, nil
}

func formatLine(product recipe.Component, r recipe.Recipe) string {
	var b strings.Builder
	b.WriteString(product.Name)
	b.WriteString(fieldSep)
	b.WriteString(formatFloat(product.Amount))
	b.WriteString(fieldSep)
	b.WriteString(formatFloat(r.CycleTime))
	b.WriteString(fieldSep)
	b.WriteByte('"')
	for i, c := range r.Ingredients {
		if i > 0 {
			b.WriteString(ingredientSep)
		}
		b.WriteString(formatFloat(c.Amount))
		b.WriteString(amountSep)
		b.WriteString(c.Name)
	}
	b.WriteString("\"\n")
	return b.String()
}

func representable(r recipe.Recipe) bool {
	ok := func(name string) bool {
		return name != "" &&
			strings.TrimSpace(name) == name &&
			!strings.ContainsAny(name, "\t\n\r\"|") &&
			!strings.Contains(name, amountSep) &&
			!strings.HasPrefix(name, commentPrefix)
	}
	if !ok(r.Products[0].Name) {
		return false
	}
	for _, c := range r.Ingredients {
		if !ok(c.Name) {
			return false
		}
	}
	return true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteFile encodes recipes into path behind a header comment.
func WriteFile(path string, recipes []recipe.Recipe) (EncodeStats, error) {
	var buf bytes.Buffer
	buf.WriteString(header + "\n")
	stats, err := Encode(&buf, recipes)
	if err != nil {
		return stats, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stats, fmt.Errorf("ensure data dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return stats, fmt.Errorf("write recipes: %w", err)
	}
	return stats, nil
}

// Record is one decoded line before any normalization.
type Record struct {
	Output       string
	OutputAmount float64
	CycleTime    float64
	Ingredients  []recipe.Input
}

// DecodeLine parses a single data line. Errors are *recipe.IngestError.
func DecodeLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r")
	parts := strings.Split(line, fieldSep)
	if len(parts) < minFields {
		return Record{}, &recipe.IngestError{
			Recipe: parts[0],
			Field:  "line",
			Reason: recipe.ReasonMissingField,
			Detail: fmt.Sprintf("not enough fields: %d of %d", len(parts), minFields),
			Raw:    line,
		}
	}

	rec := Record{Output: parts[0]}
	var err error
	if rec.OutputAmount, err = parseNumber(rec.Output, "amount", parts[1]); err != nil {
		return Record{}, err
	}
	if rec.CycleTime, err = parseNumber(rec.Output, "cycle_time", parts[2]); err != nil {
		return Record{}, err
	}

	list := strings.ReplaceAll(parts[3], `"`, "")
	for i, tuple := range strings.Split(list, "|") {
		field := fmt.Sprintf("ingredients[%d]", i)
		amount, name, ok := strings.Cut(tuple, amountSep)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return Record{}, &recipe.IngestError{
				Recipe: rec.Output,
				Field:  field,
				Reason: recipe.ReasonBadComponent,
				Detail: `want "<amount> x <name>"`,
				Raw:    tuple,
			}
		}
		w, err := parseNumber(rec.Output, field, strings.TrimSpace(amount))
		if err != nil {
			return Record{}, err
		}
		rec.Ingredients = append(rec.Ingredients, recipe.Input{Name: name, Amount: w})
	}
	return rec, nil
}

// parseNumber accepts only -?digits(.digits)?, the form Encode writes.
// ParseFloat alone would also take NaN, Inf, exponents and hex floats.
func parseNumber(output, field, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !plainDecimal(s) {
		return 0, &recipe.IngestError{
			Recipe: output,
			Field:  field,
			Reason: recipe.ReasonTypeMismatch,
			Detail: "expected number",
			Raw:    s,
		}
	}
	return f, nil
}

func plainDecimal(s string) bool {
	whole, frac, dot := strings.Cut(strings.TrimPrefix(s, "-"), ".")
	return allDigits(whole) && (!dot || allDigits(frac))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize turns the record into a per-unit formula: a record producing N
// units has its cycle time and weights divided by N, and the cycle time is
// then divided by the time factor for its ingredient count.
func (r Record) Normalize(factors TimeFactors) (recipe.Formula, error) {
	factor, err := factors.Factor(len(r.Ingredients))
	if err != nil {
		return recipe.Formula{}, &recipe.IngestError{
			Recipe: r.Output,
			Field:  "ingredients",
			Reason: recipe.ReasonComponentCount,
			Detail: err.Error(),
		}
	}
	if r.OutputAmount <= 0 {
		return recipe.Formula{}, &recipe.IngestError{
			Recipe: r.Output,
			Field:  "amount",
			Reason: recipe.ReasonBadComponent,
			Detail: "output amount must be positive",
			Raw:    formatFloat(r.OutputAmount),
		}
	}

	cycle := r.CycleTime
	inputs := make([]recipe.Input, len(r.Ingredients))
	copy(inputs, r.Ingredients)
	if out := r.OutputAmount; out != 1 {
		cycle /= out
		for i := range inputs {
			inputs[i].Amount /= out
		}
	}
	return recipe.Formula{
		Output:    r.Output,
		CycleTime: cycle / factor,
		Inputs:    inputs,
	}, nil
}

// Diagnostic records a skipped line.
type Diagnostic struct {
	Line int
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %v", d.Line, d.Err)
}

// Result is the outcome of Decode.
type Result struct {
	Table       recipe.Table
	Diagnostics []Diagnostic
}

// Decode reads every data line into a table keyed by output name. Lines that
// fail to decode or normalize are skipped and reported as diagnostics; only
// read errors abort. A later line for the same output replaces an earlier one.
func Decode(r io.Reader, factors TimeFactors) (*Result, error) {
	res := &Result{Table: recipe.Table{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		rec, err := DecodeLine(line)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: lineNo, Err: err})
			continue
		}
		f, err := rec.Normalize(factors)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: lineNo, Err: err})
			continue
		}
		res.Table[f.Output] = f
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	return res, nil
}

// ReadFile decodes the file at path.
func ReadFile(path string, factors TimeFactors) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipes: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f, factors)
}
