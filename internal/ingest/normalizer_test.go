package ingest

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
)

func TestValidateAliasTable(t *testing.T) {
	assert.NoError(t, ValidateAliasTable())
}

func TestNormalizeCanonicalFields(t *testing.T) {
	raw := models.ProductSubmission{
		"name":              "Mesa Redonda",
		"sku":               "MR-001",
		"description":       "Solid oak",
		"quantity_per_unit": "1 box",
		"units_in_stock":    json.Number("12"),
		"units_on_order":    json.Number("3"),

		"price":        json.Number("349.50"),
		"available":    "false",
		"discontinued": "true",
		"category_id":  json.Number("4"),
	}

	product, err := Normalize(raw, 9, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Equal(t, "Mesa Redonda", product.Name)
	assert.Equal(t, "MR-001", product.SKU)
	assert.Equal(t, "Solid oak", *product.Description)
	assert.Equal(t, "1 box", *product.QuantityPerUnit)
	assert.Equal(t, 12, product.UnitsInStock)
	assert.Equal(t, 3, product.UnitsOnOrder)
	assert.True(t, product.Discontinued)
	assert.False(t, product.Available)
	assert.Equal(t, uint(4), *product.CategoryID)
	assert.Equal(t, uint(9), product.CreatedByUserID)
}

func TestNormalizeResolvesAliases(t *testing.T) {
	raw := models.ProductSubmission{
		"product_name": "Lampara",
		"code":         "LP-7",
		"unit_price":   json.Number("25.00"),
		"stock":        json.Number("8"),
		"on_order":     json.Number("2"),
		"is_available": "true",
		"category":     json.Number("2"),
	}

	product, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Equal(t, "Lampara", product.Name)
	assert.Equal(t, "LP-7", product.SKU)
	assert.Equal(t, 8, product.UnitsInStock)
	assert.Equal(t, 2, product.UnitsOnOrder)
	assert.True(t, product.Available)
	assert.Equal(t, uint(2), *product.CategoryID)
}

func TestNormalizeDropsUnknownFields(t *testing.T) {
	raw := models.ProductSubmission{
		"name":       "Silla",
		"price":      json.Number("10"),
		"warehouse":  "north",
		"dimensions": "40x40",
	}

	product, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Equal(t, "Silla", product.Name)
}

// Prices arrive as json.Number and must survive exactly, not as the nearest
// binary float.
func TestNormalizePriceExactDecimal(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Escritorio",
		"price": json.Number("199.99"),
	}

	product, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("199.99")),
		"got %s", product.Price.String())
	assert.Equal(t, "199.99", product.Price.String())
}

func TestNormalizePriceFromString(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Banco",
		"price": " 15.25 ",
	}

	product, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Equal(t, "15.25", product.Price.String())
}

func TestNormalizeSKUSynthesis(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Silla Roja",
		"price": json.Number("49.90"),
	}

	product, err := Normalize(raw, 7, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Equal(t, "silla-roja-7", product.SKU)

	// Same name, different submitter, distinct SKU.
	other, err := Normalize(raw, 8, DefaultAllowedFields())
	assert.NoError(t, err)
	assert.Equal(t, "silla-roja-8", other.SKU)
}

func TestNormalizeDefaults(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Cojin",
		"price": json.Number("9.99"),
	}

	product, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.True(t, product.Available)
	assert.False(t, product.Discontinued)
	assert.Equal(t, 0, product.UnitsInStock)
	assert.Equal(t, 0, product.UnitsOnOrder)
	assert.Nil(t, product.CategoryID)
	assert.Nil(t, product.Description)
}

func TestNormalizeMissingName(t *testing.T) {
	raw := models.ProductSubmission{"price": json.Number("5.00")}

	_, err := Normalize(raw, 1, DefaultAllowedFields())

	var nerr *NormalizeError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, FieldName, nerr.Field)
}

func TestNormalizeMissingPrice(t *testing.T) {
	raw := models.ProductSubmission{"name": "Sin Precio"}

	_, err := Normalize(raw, 1, DefaultAllowedFields())

	var nerr *NormalizeError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, FieldPrice, nerr.Field)
}

func TestNormalizeBadPrice(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Roto",
		"price": "abc",
	}

	_, err := Normalize(raw, 1, DefaultAllowedFields())

	var nerr *NormalizeError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, FieldPrice, nerr.Field)
}

func TestNormalizeNegativeStock(t *testing.T) {
	raw := models.ProductSubmission{
		"name":  "Negativo",
		"price": json.Number("1.00"),
		"stock": json.Number("-5"),
	}

	_, err := Normalize(raw, 1, DefaultAllowedFields())

	var nerr *NormalizeError
	assert.ErrorAs(t, err, &nerr)
	assert.Equal(t, FieldUnitsInStock, nerr.Field)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := models.ProductSubmission{
		"product_name": "Inmutable",
		"unit_price":   json.Number("3.00"),
	}

	_, err := Normalize(raw, 1, DefaultAllowedFields())

	assert.NoError(t, err)
	assert.Len(t, raw, 2)
	assert.Equal(t, "Inmutable", raw["product_name"])
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "silla-roja", slugify("  Silla Roja "))
	assert.Equal(t, "caf-100", slugify("Café 100%"))
}
