package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// codecVersion is written into every encoded cart record.
const codecVersion = 1

// ErrMalformed is returned by Decode for any record that does not match the
// expected shape.
var ErrMalformed = errors.New("malformed cart record")

// decString is a decimal that only decodes from a JSON string. set records
// whether the field was present at all.
type decString struct {
	decimal.Decimal
	set bool
}

func (d *decString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.Decimal, d.set = v, true
	return nil
}

func (d decString) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Decimal.String())
}

type productRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       decString   `json:"price"`
	Stock       decString   `json:"stock"`
	Purchases   decString   `json:"purchases"`
	ReviewCount decString   `json:"review_count"`
	Ratings     []decString `json:"ratings"`
	Images      []string    `json:"images"`
}

type lineRecord struct {
	Product  productRecord `json:"product"`
	Quantity int64         `json:"quantity"`
}

type document struct {
	Version int          `json:"version"`
	Lines   []lineRecord `json:"lines"`
}

// legacyProduct is the camelCase product shape written by earlier browser
// builds, where images were opaque blob objects.
type legacyProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       decString         `json:"price"`
	Stock       decString         `json:"stock"`
	Purchases   decString         `json:"purchases"`
	ReviewCount decString         `json:"reviewCount"`
	Ratings     []decString       `json:"ratings"`
	Images      []json.RawMessage `json:"images"`
}

type legacyLine struct {
	Product  legacyProduct `json:"product"`
	Quantity int64         `json:"quantity"`
}

// Encode serializes lines into a versioned record. Amounts are written as
// decimal strings so no precision is lost across the storage boundary.
func Encode(lines []domain.CartLine) ([]byte, error) {
	doc := document{Version: codecVersion, Lines: make([]lineRecord, 0, len(lines))}
	for _, l := range lines {
		p := l.Product
		ratings := make([]decString, len(p.Ratings))
		for i, r := range p.Ratings {
			ratings[i] = decString{Decimal: r}
		}
		images := p.Images
		if images == nil {
			images = []string{}
		}
		doc.Lines = append(doc.Lines, lineRecord{
			Product: productRecord{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Category:    p.Category,
				Price:       decString{Decimal: p.Price},
				Stock:       decString{Decimal: p.Stock},
				Purchases:   decString{Decimal: p.Purchases},
				ReviewCount: decString{Decimal: p.ReviewCount},
				Ratings:     ratings,
				Images:      images,
			},
			Quantity: l.Quantity,
		})
	}
	return json.Marshal(doc)
}

// Decode parses a record produced by Encode, or the legacy bare array of
// lines. Any deviation from the expected shape fails with ErrMalformed and
// no partial result.
func Decode(data []byte) ([]domain.CartLine, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformed)
	}

	var (
		lines []domain.CartLine
		err   error
	)
	switch trimmed[0] {
	case '{':
		lines, err = decodeDocument(trimmed)
	case '[':
		lines, err = decodeLegacy(trimmed)
	default:
		err = errors.New("unrecognized record")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := validateLines(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return lines, nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after record")
	}
	return nil
}

func decodeDocument(data []byte) ([]domain.CartLine, error) {
	var doc document
	if err := strictUnmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Version != codecVersion {
		return nil, fmt.Errorf("unsupported version %d", doc.Version)
	}
	if doc.Lines == nil {
		return nil, errors.New("missing lines")
	}

	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for i, rec := range doc.Lines {
		p := rec.Product
		if !allSet(p.Price, p.Stock, p.Purchases, p.ReviewCount) {
			return nil, fmt.Errorf("line %d: missing amount", i)
		}
		lines = append(lines, domain.CartLine{
			Product: domain.Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Category:    p.Category,
				Price:       p.Price.Decimal,
				Stock:       p.Stock.Decimal,
				Purchases:   p.Purchases.Decimal,
				ReviewCount: p.ReviewCount.Decimal,
				Ratings:     unwrap(p.Ratings),
				Images:      p.Images,
			},
			Quantity: rec.Quantity,
		})
	}
	return lines, nil
}

func decodeLegacy(data []byte) ([]domain.CartLine, error) {
	var recs []legacyLine
	if err := strictUnmarshal(data, &recs); err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(recs))
	for i, rec := range recs {
		p := rec.Product
		if !allSet(p.Price, p.Stock, p.Purchases, p.ReviewCount) {
			return nil, fmt.Errorf("line %d: missing amount", i)
		}
		lines = append(lines, domain.CartLine{
			Product: domain.Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Category:    p.Category,
				Price:       p.Price.Decimal,
				Stock:       p.Stock.Decimal,
				Purchases:   p.Purchases.Decimal,
				ReviewCount: p.ReviewCount.Decimal,
				Ratings:     unwrap(p.Ratings),
				Images:      legacyImageURLs(p.Images),
			},
			Quantity: rec.Quantity,
		})
	}
	return lines, nil
}

// legacyImageURLs keeps only images that were stored as plain URL strings.
func legacyImageURLs(raw []json.RawMessage) []string {
	urls := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if json.Unmarshal(r, &s) == nil && s != "" {
			urls = append(urls, s)
		}
	}
	return urls
}

func allSet(vals ...decString) bool {
	for _, v := range vals {
		if !v.set {
			return false
		}
	}
	return true
}

func unwrap(in []decString) []decimal.Decimal {
	out := make([]decimal.Decimal, len(in))
	for i, v := range in {
		out[i] = v.Decimal
	}
	return out
}

func validateLines(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		p := l.Product
		if p.ID == "" {
			return fmt.Errorf("line %d: empty product id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("line %d: duplicate product %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}

		if l.Quantity < 1 {
			return fmt.Errorf("line %d: quantity %d below 1", i, l.Quantity)
		}
		if err := validateProduct(p); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// validateProduct checks that every amount of a product snapshot is a whole
// non-negative number, the only form Decode accepts back.
func validateProduct(p domain.Product) error {
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"price", p.Price},
		{"stock", p.Stock},
		{"purchases", p.Purchases},
		{"review count", p.ReviewCount},
	} {
		if !domain.IsWholeNonNegative(f.v) {
			return fmt.Errorf("%s %s is not a non-negative integer", f.name, f.v)
		}
	}
	for _, r := range p.Ratings {
		if !domain.IsWholeNonNegative(r) {
			return fmt.Errorf("rating %s is not a non-negative integer", r)
		}
	}
	return nil
}
