package emrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

const pharmacyBase = "/api/pharmacy"

// InventoryFilter narrows the inventory listing
type InventoryFilter struct {
	Search      string
	Category    string
	StockStatus string
}

// InventoryInput is the writable part of an inventory item
type InventoryInput struct {
	ClinicID             string  `json:"clinicId,omitempty"`
	MedicineName         string  `json:"medicineName"`
	GenericName          string  `json:"genericName,omitempty"`
	BrandName            string  `json:"brandName,omitempty"`
	Manufacturer         string  `json:"manufacturer,omitempty"`
	Category             string  `json:"category,omitempty"`
	Composition          string  `json:"composition,omitempty"`
	Strength             string  `json:"strength,omitempty"`
	Unit                 string  `json:"unit,omitempty"`
	CurrentStock         int     `json:"currentStock"`
	CostPrice            float64 `json:"costPrice"`
	SellingPrice         float64 `json:"sellingPrice"`
	MRP                  float64 `json:"mrp,omitempty"`
	GSTRate              float64 `json:"gstRate,omitempty"`
	MinStockLevel        int     `json:"minStockLevel"`
	ReorderLevel         int     `json:"reorderLevel"`
	ExpiryDate           string  `json:"expiryDate,omitempty"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

// InventoryResponse is returned by inventory writes
type InventoryResponse struct {
	Item    entities.InventoryItem `json:"item"`
	Message string                 `json:"message"`
}

// ListInventory returns the clinic's active inventory
func (c *HTTPClient) ListInventory(ctx context.Context, clinicID string, filter InventoryFilter) ([]entities.InventoryItem, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "search", filter.Search)
	setIf(q, "category", filter.Category)
	setIf(q, "stockStatus", filter.StockStatus)

	var out struct {
		Items []entities.InventoryItem `json:"items"`
	}
	if err := c.doJSON(ctx, "pharmacy.list", http.MethodGet, pharmacyBase+"/clinic/"+seg(clinicID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetPharmacySummary returns the pharmacy dashboard
func (c *HTTPClient) GetPharmacySummary(ctx context.Context, clinicID string) (*entities.PharmacySummary, error) {
	if err := requireID("clinic", clinicID); err != nil {
		return nil, err
	}
	var out struct {
		Summary entities.PharmacySummary `json:"summary"`
	}
	if err := c.doJSON(ctx, "pharmacy.summary", http.MethodGet, pharmacyBase+"/clinic/"+seg(clinicID)+"/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Summary, nil
}

// AddInventoryItem adds a stock line
func (c *HTTPClient) AddInventoryItem(ctx context.Context, in InventoryInput) (*InventoryResponse, error) {
	out := &InventoryResponse{}
	if err := c.doJSON(ctx, "pharmacy.add", http.MethodPost, pharmacyBase+"/add", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInventoryItem updates a stock line
func (c *HTTPClient) UpdateInventoryItem(ctx context.Context, itemID string, in InventoryInput) (*InventoryResponse, error) {
	if err := requireID("item", itemID); err != nil {
		return nil, err
	}
	out := &InventoryResponse{}
	if err := c.doJSON(ctx, "pharmacy.update", http.MethodPut, pharmacyBase+"/item/"+seg(itemID), nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteInventoryItem removes a stock line
func (c *HTTPClient) DeleteInventoryItem(ctx context.Context, itemID string) (*MessageResponse, error) {
	if err := requireID("item", itemID); err != nil {
		return nil, err
	}
	out := &MessageResponse{}
	if err := c.doJSON(ctx, "pharmacy.delete", http.MethodDelete, pharmacyBase+"/item/"+seg(itemID), nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
