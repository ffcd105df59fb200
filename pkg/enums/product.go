package enums

import "fmt"

// ProductStatus controls catalog visibility for a product.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
	ProductStatusOutOfStock,
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ProductUnit is the unit of measure a product is sold in.
type ProductUnit string

const (
	ProductUnitPiece  ProductUnit = "piece"
	ProductUnitKg     ProductUnit = "kg"
	ProductUnitLitre  ProductUnit = "litre"
	ProductUnitCarton ProductUnit = "carton"
	ProductUnitBale   ProductUnit = "bale"
	ProductUnitCrate  ProductUnit = "crate"
	ProductUnitDozen  ProductUnit = "dozen"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitKg,
	ProductUnitLitre,
	ProductUnitCarton,
	ProductUnitBale,
	ProductUnitCrate,
	ProductUnitDozen,
}

// String implements fmt.Stringer.
func (p ProductUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductUnit.
func (p ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
