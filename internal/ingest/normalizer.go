package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-service/internal/models"
)

// Canonical product field names accepted from a submission after alias
// resolution.
const (
	FieldName            = "name"
	FieldSKU             = "sku"
	FieldDescription     = "description"
	FieldQuantityPerUnit = "quantity_per_unit"
	FieldUnitsInStock    = "units_in_stock"
	FieldUnitsOnOrder    = "units_on_order"
	FieldDiscontinued    = "discontinued"
	FieldPrice           = "price"
	FieldAvailable       = "available"
	FieldCategoryID      = "category_id"
)

// aliasTable maps known submission field aliases to canonical field names.
// The table is fixed; ValidateAliasTable checks it at startup.
var aliasTable = map[string]string{
	"product_name":     FieldName,
	"title":            FieldName,
	"code":             FieldSKU,
	"desc":             FieldDescription,
	"qty_per_unit":     FieldQuantityPerUnit,
	"quantityperunit":  FieldQuantityPerUnit,
	"stock":            FieldUnitsInStock,
	"qty":              FieldUnitsInStock,
	"quantity":         FieldUnitsInStock,
	"unitsinstock":     FieldUnitsInStock,
	"on_order":         FieldUnitsOnOrder,
	"unitsonorder":     FieldUnitsOnOrder,
	"price_value":      FieldPrice,
	"unit_price":       FieldPrice,
	"is_available":     FieldAvailable,
	"is_discontinued":  FieldDiscontinued,
	"category":         FieldCategoryID,
	"categoryid":       FieldCategoryID,
}

// DefaultAllowedFields returns the canonical field set a submission may
// populate. Anything outside this set is dropped after alias resolution.
func DefaultAllowedFields() map[string]bool {
	return map[string]bool{
		FieldName:            true,
		FieldSKU:             true,
		FieldDescription:     true,
		FieldQuantityPerUnit: true,
		FieldUnitsInStock:    true,
		FieldUnitsOnOrder:    true,
		FieldDiscontinued:    true,
		FieldPrice:           true,
		FieldAvailable:       true,
		FieldCategoryID:      true,
	}
}

// ValidateAliasTable verifies every alias resolves to a canonical field.
// Call it once at process start; a bad table is a programming error.
func ValidateAliasTable() error {
	canonical := DefaultAllowedFields()
	for alias, target := range aliasTable {
		if !canonical[target] {
			return fmt.Errorf("alias %q maps to unknown field %q", alias, target)
		}
	}
	return nil
}

// NormalizeError is a per-record validation failure. Records failing
// normalization are dropped; they never abort the batch they arrived in.
type NormalizeError struct {
	Field  string
	Reason string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Normalize maps a loosely-typed submission to a Product. It resolves field
// aliases, drops fields outside allowed, coerces types (price to an exact
// decimal, stock counts to non-negative integers), applies defaults, and
// synthesizes a SKU from the name and submitter when none is given.
//
// SKU synthesis is deterministic (lowercased hyphenated name plus submitter
// id), so two submitters with identically named products get distinct SKUs,
// but the same submitter resubmitting the same name collides. Known
// limitation.
//
// Normalize is pure: it never mutates raw and has no side effects.
func Normalize(raw models.ProductSubmission, submitterID uint, allowed map[string]bool) (*models.Product, error) {
	fields := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		canonical := strings.ToLower(strings.TrimSpace(key))
		if target, ok := aliasTable[canonical]; ok {
			canonical = target
		}
		if !allowed[canonical] {
			continue
		}
		fields[canonical] = value
	}

	name, _ := coerceString(fields[FieldName])
	if name == "" {
		return nil, &NormalizeError{Field: FieldName, Reason: "required"}
	}

	sku, _ := coerceString(fields[FieldSKU])
	if sku == "" {
		sku = fmt.Sprintf("%s-%d", slugify(name), submitterID)
	}

	priceValue, ok := fields[FieldPrice]
	if !ok {
		return nil, &NormalizeError{Field: FieldPrice, Reason: "required"}
	}
	price, err := coerceDecimal(priceValue)
	if err != nil {
		return nil, &NormalizeError{Field: FieldPrice, Reason: err.Error()}
	}

	unitsInStock, err := coerceNonNegativeInt(fields[FieldUnitsInStock], 0)
	if err != nil {
		return nil, &NormalizeError{Field: FieldUnitsInStock, Reason: err.Error()}
	}
	unitsOnOrder, err := coerceNonNegativeInt(fields[FieldUnitsOnOrder], 0)
	if err != nil {
		return nil, &NormalizeError{Field: FieldUnitsOnOrder, Reason: err.Error()}
	}

	discontinued, err := coerceBool(fields[FieldDiscontinued], false)
	if err != nil {
		return nil, &NormalizeError{Field: FieldDiscontinued, Reason: err.Error()}
	}
	available, err := coerceBool(fields[FieldAvailable], true)
	if err != nil {
		return nil, &NormalizeError{Field: FieldAvailable, Reason: err.Error()}
	}

	categoryID, err := coerceOptionalUint(fields[FieldCategoryID])
	if err != nil {
		return nil, &NormalizeError{Field: FieldCategoryID, Reason: err.Error()}
	}

	product := &models.Product{
		Name:            name,
		SKU:             sku,
		UnitsInStock:    unitsInStock,
		UnitsOnOrder:    unitsOnOrder,
		Discontinued:    discontinued,
		Price:           price,
		Available:       available,
		CategoryID:      categoryID,
		CreatedByUserID: submitterID,
	}

	if desc, ok := coerceString(fields[FieldDescription]); ok && desc != "" {
		product.Description = &desc
	}
	if qpu, ok := coerceString(fields[FieldQuantityPerUnit]); ok && qpu != "" {
		product.QuantityPerUnit = &qpu
	}

	return product, nil
}

// slugify lowercases and hyphenates a name, keeping only [a-z0-9-]
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func coerceString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// coerceDecimal converts a numeric-ish value to an exact decimal. String and
// json.Number inputs keep their exact printed value; binary floats go through
// the shortest decimal representation.
func coerceDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("not a number: %q", v)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", value)
	}
}

func coerceNonNegativeInt(value interface{}, def int) (int, error) {
	if value == nil {
		return def, nil
	}
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		n = int(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v.String())
		}
		n = int(parsed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("not an integer: %v", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative: %d", n)
	}
	return n, nil
}

func coerceBool(value interface{}, def bool) (bool, error) {
	if value == nil {
		return def, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", v)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("not a boolean: %v", value)
	}
}

func coerceOptionalUint(value interface{}) (*uint, error) {
	if value == nil {
		return nil, nil
	}
	n, err := coerceNonNegativeInt(value, 0)
	if err != nil {
		return nil, err
	}
	id := uint(n)
	return &id, nil
}
