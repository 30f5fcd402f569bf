package views

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
)

// PharmacyAPI is the backend surface of the pharmacy screen
type PharmacyAPI interface {
	ListInventory(ctx context.Context, clinicID string, filter emrapi.InventoryFilter) ([]entities.InventoryItem, error)
	GetPharmacySummary(ctx context.Context, clinicID string) (*entities.PharmacySummary, error)
	AddInventoryItem(ctx context.Context, in emrapi.InventoryInput) (*emrapi.InventoryResponse, error)
	UpdateInventoryItem(ctx context.Context, itemID string, in emrapi.InventoryInput) (*emrapi.InventoryResponse, error)
	DeleteInventoryItem(ctx context.Context, itemID string) (*emrapi.MessageResponse, error)
}

// InventoryRow is one stock line as displayed
type InventoryRow struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Generic      string               `json:"generic"`
	Category     string               `json:"category"`
	Stock        int                  `json:"stock"`
	Price        float64              `json:"price"`
	Expiry       string               `json:"expiry"`
	Status       entities.StockStatus `json:"status"`
	ExpiringSoon bool                 `json:"expiringSoon"`
	Expired      bool                 `json:"expired"`
}

// StockAlerts are the attention lists of the pharmacy dashboard
type StockAlerts struct {
	LowStock     []entities.InventoryItem `json:"lowStock"`
	OutOfStock   []entities.InventoryItem `json:"outOfStock"`
	ExpiringSoon []entities.InventoryItem `json:"expiringSoon"`
	Expired      []entities.InventoryItem `json:"expired"`
}

// PharmacyView is the pharmacy inventory screen
type PharmacyView struct {
	api        PharmacyAPI
	clinicID   string
	dispatcher *resources.Dispatcher
	now        func() time.Time

	Inventory *resources.Resource[[]entities.InventoryItem]
	Summary   *resources.Resource[*entities.PharmacySummary]

	mu          sync.RWMutex
	search      string
	stockStatus string
}

// NewPharmacyView registers the inventory resources and returns the screen
func NewPharmacyView(deps Deps, api PharmacyAPI) (*PharmacyView, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	v := &PharmacyView{api: api, clinicID: deps.ClinicID, dispatcher: deps.Dispatcher, now: time.Now}
	v.Inventory = resources.Register(deps.Registry, KeyInventory, func(ctx context.Context) ([]entities.InventoryItem, error) {
		return api.ListInventory(ctx, deps.ClinicID, emrapi.InventoryFilter{})
	}, resources.ResourceOptions{FailureMessage: "Failed to load inventory"})
	v.Summary = resources.Register(deps.Registry, KeyPharmacySummary, func(ctx context.Context) (*entities.PharmacySummary, error) {
		return api.GetPharmacySummary(ctx, deps.ClinicID)
	}, resources.ResourceOptions{Policy: resources.PolicySilent})
	return v, nil
}

// Keys are the resources the pharmacy screen loads
func (v *PharmacyView) Keys() []string {
	return []string{KeyInventory, KeyPharmacySummary}
}

// SetFilter narrows Rows by name and stock status
func (v *PharmacyView) SetFilter(search, stockStatus string) {
	v.mu.Lock()
	v.search, v.stockStatus = search, stockStatus
	v.mu.Unlock()
}

// Rows projects the filtered inventory
func (v *PharmacyView) Rows() []InventoryRow {
	v.mu.RLock()
	search, status := v.search, v.stockStatus
	v.mu.RUnlock()

	now := v.now()
	items := FilterInventory(v.Inventory.Get(), search, status)
	rows := make([]InventoryRow, 0, len(items))
	for i := range items {
		item := &items[i]
		expiry := entities.Placeholder
		if item.ExpiryDate != nil {
			expiry = item.ExpiryDate.Format(dateLayout)
		}
		rows = append(rows, InventoryRow{
			ID:           item.ID,
			Name:         item.MedicineName,
			Generic:      entities.OrDash(item.GenericName),
			Category:     entities.OrDash(item.Category),
			Stock:        item.CurrentStock,
			Price:        item.SellingPrice,
			Expiry:       expiry,
			Status:       item.Status(),
			ExpiringSoon: item.ExpiringSoon(now),
			Expired:      item.Expired(now),
		})
	}
	return rows
}

// Alerts derives the attention lists from the current inventory
func (v *PharmacyView) Alerts() StockAlerts {
	return BuildAlerts(v.Inventory.Get(), v.now())
}

// Find returns an item by id
func (v *PharmacyView) Find(id string) (*entities.InventoryItem, bool) {
	items := v.Inventory.Get()
	for i := range items {
		if items[i].ID == id {
			item := items[i]
			return &item, true
		}
	}
	return nil, false
}

// FilterInventory keeps items whose names contain search and whose derived
// stock status matches.
func FilterInventory(items []entities.InventoryItem, search, stockStatus string) []entities.InventoryItem {
	out := make([]entities.InventoryItem, 0, len(items))
	for i := range items {
		if stockStatus != "" && string(items[i].Status()) != stockStatus {
			continue
		}
		if !items[i].Matches(search) {
			continue
		}
		out = append(out, items[i])
	}
	return out
}

// BuildAlerts groups items needing attention; expiring lists are soonest first
func BuildAlerts(items []entities.InventoryItem, now time.Time) StockAlerts {
	a := StockAlerts{}
	for i := range items {
		item := &items[i]
		switch item.Status() {
		case entities.StockStatusOutOfStock:
			a.OutOfStock = append(a.OutOfStock, *item)
		case entities.StockStatusLowStock:
			a.LowStock = append(a.LowStock, *item)
		}
		switch {
		case item.Expired(now):
			a.Expired = append(a.Expired, *item)
		case item.ExpiringSoon(now):
			a.ExpiringSoon = append(a.ExpiringSoon, *item)
		}
	}
	byExpiry := func(list []entities.InventoryItem) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].ExpiryDate.Before(*list[j].ExpiryDate) })
	}
	byExpiry(a.ExpiringSoon)
	byExpiry(a.Expired)
	return a
}

var inventoryKeys = []string{KeyInventory, KeyPharmacySummary}

// ItemForm returns the add form, or the edit form when itemID names a
// current item.
func (v *PharmacyView) ItemForm(itemID string) *Form[InventoryDraft] {
	initial := defaultInventoryDraft
	if item, ok := v.Find(itemID); ok {
		snapshot := *item
		initial = func() InventoryDraft { return DraftFromItem(snapshot) }
	}
	return newForm("pharmacy.save", v.dispatcher, initial, v.save)
}

func (v *PharmacyView) save(ctx context.Context, d InventoryDraft, onSuccess func()) error {
	in := emrapi.InventoryInput{
		ClinicID:             v.clinicID,
		MedicineName:         d.MedicineName,
		GenericName:          d.GenericName,
		BrandName:            d.BrandName,
		Manufacturer:         d.Manufacturer,
		Category:             d.Category,
		Strength:             d.Strength,
		Unit:                 d.Unit,
		CurrentStock:         d.CurrentStock,
		CostPrice:            d.CostPrice,
		SellingPrice:         d.SellingPrice,
		MRP:                  d.MRP,
		GSTRate:              d.GSTRate,
		MinStockLevel:        d.MinStockLevel,
		ReorderLevel:         d.ReorderLevel,
		ExpiryDate:           d.ExpiryDate,
		RequiresPrescription: d.RequiresPrescription,
	}
	action := resources.Action{
		Name:        "pharmacy.add",
		Success:     "Item added",
		Failure:     "Failed",
		Invalidates: inventoryKeys,
		OnSuccess:   onSuccess,
		Do: func(ctx context.Context) error {
			_, err := v.api.AddInventoryItem(ctx, in)
			return err
		},
	}
	if d.Editing() {
		action.Name = "pharmacy.update"
		action.Success = "Item updated"
		action.EntityID = d.ItemID
		action.Do = func(ctx context.Context) error {
			_, err := v.api.UpdateInventoryItem(ctx, d.ItemID, in)
			return err
		}
	}
	return v.dispatcher.Dispatch(ctx, action)
}

// Delete removes a stock line
func (v *PharmacyView) Delete(ctx context.Context, itemID string) error {
	const name = "pharmacy.delete"
	if blank(itemID) {
		return v.dispatcher.Reject(name, invalid("Select an item"))
	}
	if _, ok := v.Find(itemID); !ok && v.Inventory.Loaded() {
		return v.dispatcher.Reject(name, invalid(fmt.Sprintf("Item %s not found", itemID)))
	}
	return v.dispatcher.Dispatch(ctx, resources.Action{
		Name: name,
		Do: func(ctx context.Context) error {
			_, err := v.api.DeleteInventoryItem(ctx, itemID)
			return err
		},
		Success:     "Item deleted",
		Failure:     "Failed to delete",
		Invalidates: inventoryKeys,
		EntityID:    itemID,
	})
}
