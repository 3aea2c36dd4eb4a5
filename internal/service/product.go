package service

import (
	"context"
	"errors"
	"strings"

	"github.com/DeH-M/MachTrueke/internal/domain"
	"github.com/DeH-M/MachTrueke/internal/repository"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type ProductService interface {
	Create(ctx context.Context, ownerID int64, title, description string) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	ListMine(ctx context.Context, ownerID int64) ([]*domain.Product, error)
	Deactivate(ctx context.Context, id, requesterID int64) error
	AttachImage(ctx context.Context, productID, requesterID int64, url string) (*domain.ProductImage, error)
}

type productService struct {
	productRepo repository.ProductRepository
	log         logger.Logger
}

func NewProductService(productRepo repository.ProductRepository, log logger.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		log:         log,
	}
}

func (s *productService) Create(ctx context.Context, ownerID int64, title, description string) (*domain.Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(title) > 120 {
		return nil, errors.New("title is too long (max 120 characters)")
	}

	product := &domain.Product{
		Title:       title,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		IsActive:    true,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.log.Info("Product created", "product_id", product.ID, "owner_id", ownerID)
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.List(ctx, limit, offset)
}

func (s *productService) ListMine(ctx context.Context, ownerID int64) ([]*domain.Product, error) {
	return s.productRepo.ListByOwner(ctx, ownerID)
}

func (s *productService) Deactivate(ctx context.Context, id, requesterID int64) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.OwnerID != requesterID {
		return appErrors.ErrForbidden
	}

	return s.productRepo.Deactivate(ctx, id)
}

func (s *productService) AttachImage(ctx context.Context, productID, requesterID int64, url string) (*domain.ProductImage, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.OwnerID != requesterID {
		return nil, appErrors.ErrForbidden
	}

	image := &domain.ProductImage{
		ProductID: productID,
		URL:       url,
	}

	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, err
	}

	return image, nil
}
