package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

var maxCost = decimal.RequireFromString("999999.99")

// InventoryService handles products, warehouse stock and categories
type InventoryService struct {
	productRepo   *repository.ProductRepository
	warehouseRepo *repository.WarehouseRepository
	categoryRepo  *repository.CategoryRepository
	cfg           config.InventoryConfig
	logger        *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	productRepo *repository.ProductRepository,
	warehouseRepo *repository.WarehouseRepository,
	categoryRepo *repository.CategoryRepository,
	cfg config.InventoryConfig,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		categoryRepo:  categoryRepo,
		cfg:           cfg,
		logger:        log,
	}
}

// ProductInput is the writable part of a product. When Packs and
// UnitsPerPack are both positive, Packs*UnitsPerPack is added to Quantity.
type ProductInput struct {
	Name         string
	Quantity     int
	Packs        int
	UnitsPerPack int
	Threshold    int
	Supplier     string
	Cost         decimal.Decimal
	CategoryID   *int64
	WarehouseID  *int64
}

// toProduct validates the input and folds packs into the quantity
func (s *InventoryService) toProduct(in ProductInput) (*repository.Product, error) {
	details := map[string]string{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		details["name"] = "is required"
	}

	limit := s.cfg.MaxProductQuantity
	outOfRange := fmt.Sprintf("must be between 0 and %d", limit)
	if in.Quantity < 0 || in.Quantity > limit {
		details["quantity"] = outOfRange
	}

	quantity := in.Quantity
	if in.Packs > 0 && in.UnitsPerPack > 0 {
		quantity += in.Packs * in.UnitsPerPack
		if quantity > limit {
			details["quantity"] = outOfRange
		}
	}

	if in.Cost.IsNegative() || in.Cost.GreaterThan(maxCost) {
		details["cost"] = "must be between 0 and 999999.99"
	}
	if in.Threshold < 0 {
		details["threshold"] = "must be at least 0"
	}

	if len(details) > 0 {
		return nil, errors.Validation(details)
	}

	return &repository.Product{
		Name:        name,
		Quantity:    quantity,
		Threshold:   in.Threshold,
		Supplier:    in.Supplier,
		Cost:        in.Cost.Round(2),
		CategoryID:  in.CategoryID,
		WarehouseID: in.WarehouseID,
	}, nil
}

// Product operations

// ListProducts lists all products
func (s *InventoryService) ListProducts(ctx context.Context) ([]*repository.Product, error) {
	return s.productRepo.List(ctx)
}

// SearchProducts finds products by a case-insensitive name substring
func (s *InventoryService) SearchProducts(ctx context.Context, name string) ([]*repository.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("name is required")
	}
	return s.productRepo.Search(ctx, name)
}

// GetProduct gets a product
func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*repository.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// CreateProduct creates a product
func (s *InventoryService) CreateProduct(ctx context.Context, in ProductInput) (*repository.Product, error) {
	p, err := s.toProduct(in)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return p, nil
}

// UpdateProduct overwrites a product's descriptive fields. Quantity and
// packs in the input are ignored; the returned product carries the stored
// quantity.
func (s *InventoryService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*repository.Product, error) {
	in.Quantity, in.Packs, in.UnitsPerPack = 0, 0, 0
	p, err := s.toProduct(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct deletes a product
func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	return s.productRepo.Delete(ctx, id)
}

// Warehouse operations

// ListWarehouseProducts lists the products held in a warehouse
func (s *InventoryService) ListWarehouseProducts(ctx context.Context, warehouseID int64) ([]*repository.WarehouseProduct, error) {
	return s.warehouseRepo.ListProducts(ctx, warehouseID)
}

// AddWarehouseStock accumulates quantity for a product in a warehouse
func (s *InventoryService) AddWarehouseStock(ctx context.Context, warehouseID, productID int64, quantity int) (*repository.WarehouseStock, error) {
	if quantity < 0 {
		return nil, errors.Validation(map[string]string{"quantity": "must be at least 0"})
	}
	return s.warehouseRepo.AddStock(ctx, warehouseID, productID, quantity)
}

// RemoveWarehouseStock removes a product from a warehouse
func (s *InventoryService) RemoveWarehouseStock(ctx context.Context, warehouseID, productID int64) error {
	return s.warehouseRepo.RemoveStock(ctx, warehouseID, productID)
}

// Category operations

// ListCategories lists categories
func (s *InventoryService) ListCategories(ctx context.Context) ([]*repository.Category, error) {
	return s.categoryRepo.List(ctx)
}

// GetCategory gets a category
func (s *InventoryService) GetCategory(ctx context.Context, id int64) (*repository.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// CreateCategory creates a category
func (s *InventoryService) CreateCategory(ctx context.Context, c *repository.Category) error {
	return s.categoryRepo.Create(ctx, c)
}

// UpdateCategory updates a category
func (s *InventoryService) UpdateCategory(ctx context.Context, c *repository.Category) error {
	return s.categoryRepo.Update(ctx, c)
}

// DeleteCategory deletes a category
func (s *InventoryService) DeleteCategory(ctx context.Context, id int64) error {
	return s.categoryRepo.Delete(ctx, id)
}
