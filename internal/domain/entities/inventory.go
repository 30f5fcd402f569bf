package entities

import (
	"strings"
	"time"
)

// StockStatus represents how close an item is to running out
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusReorder    StockStatus = "reorder"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// ExpiryWindow is how far ahead an item counts as expiring soon
const ExpiryWindow = 30 * 24 * time.Hour

// InventoryItem is a pharmacy stock line
type InventoryItem struct {
	ID                   string      `json:"_id"`
	MedicineName         string      `json:"medicineName"`
	GenericName          string      `json:"genericName,omitempty"`
	BrandName            string      `json:"brandName,omitempty"`
	Manufacturer         string      `json:"manufacturer,omitempty"`
	Category             string      `json:"category,omitempty"`
	Composition          string      `json:"composition,omitempty"`
	Strength             string      `json:"strength,omitempty"`
	Unit                 string      `json:"unit,omitempty"`
	CurrentStock         int         `json:"currentStock"`
	CostPrice            float64     `json:"costPrice"`
	SellingPrice         float64     `json:"sellingPrice"`
	MRP                  float64     `json:"mrp,omitempty"`
	GSTRate              float64     `json:"gstRate,omitempty"`
	MinStockLevel        int         `json:"minStockLevel"`
	ReorderLevel         int         `json:"reorderLevel"`
	ExpiryDate           *time.Time  `json:"expiryDate,omitempty"`
	RequiresPrescription bool        `json:"requiresPrescription"`
	StockStatus          StockStatus `json:"stockStatus,omitempty"`
}

// Status returns the backend's stock status, deriving it from the levels
// when the backend omitted it.
func (i *InventoryItem) Status() StockStatus {
	if i.StockStatus != "" {
		return i.StockStatus
	}
	switch {
	case i.CurrentStock <= 0:
		return StockStatusOutOfStock
	case i.CurrentStock <= i.MinStockLevel:
		return StockStatusLowStock
	case i.CurrentStock <= i.ReorderLevel:
		return StockStatusReorder
	default:
		return StockStatusInStock
	}
}

// ExpiringSoon reports whether the item expires within ExpiryWindow of now
func (i *InventoryItem) ExpiringSoon(now time.Time) bool {
	if i.ExpiryDate == nil {
		return false
	}
	return i.ExpiryDate.After(now) && !i.ExpiryDate.After(now.Add(ExpiryWindow))
}

// Expired reports whether the item is past its expiry date
func (i *InventoryItem) Expired(now time.Time) bool {
	return i.ExpiryDate != nil && i.ExpiryDate.Before(now)
}

// Matches reports whether term appears in the medicine or generic name
func (i *InventoryItem) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.MedicineName), term) ||
		strings.Contains(strings.ToLower(i.GenericName), term)
}

// StockValue is current stock at cost
func (i *InventoryItem) StockValue() float64 {
	return float64(i.CurrentStock) * i.CostPrice
}

// PharmacySummary is the pharmacy dashboard payload
type PharmacySummary struct {
	TotalItems   int     `json:"totalItems"`
	LowStock     int     `json:"lowStock"`
	OutOfStock   int     `json:"outOfStock"`
	ExpiringSoon int     `json:"expiringSoon"`
	Expired      int     `json:"expired"`
	TotalValue   float64 `json:"totalValue"`
}
