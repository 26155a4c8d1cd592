package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/model"
	"github.com/flicky/cocktail-api/internal/repository"
)

var maxPrice = decimal.NewFromInt(1_000_000)

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

// NewProductService accepts a nil redisClient, in which case reads always hit
// the database.
func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client, cacheTTL time.Duration) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient, cacheTTL: cacheTTL}
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() || price.GreaterThan(maxPrice) {
		return ErrInvalidPrice
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Price == nil {
		return nil, ErrInvalidPrice
	}
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		ImageURL:    req.ImageURL,
		Available:   available,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	key := productCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, key).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, key, data, s.cacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Limit:     req.Limit,
		Offset:    (req.Page - 1) * req.Limit,
		Search:    req.Search,
		Sort:      req.Sort,
		Order:     req.Order,
		Available: req.Available,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		product.Price = req.Price.Round(2)
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Available != nil {
		product.Available = *req.Available
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return ErrProductNotFound
	}
	s.invalidateCache(ctx, id)
	return nil
}

var exportHeaders = []string{"ID", "Name", "Description", "Price", "ImageURL", "Available", "CreatedAt", "UpdatedAt"}

// Export writes the whole catalog as a single-sheet xlsx workbook.
func (s *ProductService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.ImageURL)
		row.AddCell().SetValue(strconv.FormatBool(p.Available))
		row.AddCell().SetValue(p.CreatedAt.Format(time.RFC3339))
		row.AddCell().SetValue(p.UpdatedAt.Format(time.RFC3339))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id int64) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, productCacheKey(id))
	}
}

func productCacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
