package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bevera/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrInvoiceMetadataMissing means generation reported success but the
	// order row still carries no invoice metadata. This is a server fault,
	// not a client error.
	ErrInvoiceMetadataMissing = errors.New("invoice metadata missing after generation")
	// ErrInvoiceFileMissing means the order has invoice metadata but the
	// file is gone from disk.
	ErrInvoiceFileMissing = errors.New("invoice file not found on disk")
)

// InvoiceGenerator renders an order into a stored PDF file and returns the
// stored file name.
type InvoiceGenerator interface {
	Generate(detail *OrderDetail) (storedFileName string, err error)
}

// InvoiceFile points a handler at a generated invoice
type InvoiceFile struct {
	Path        string
	FileName    string
	ContentType string
}

// InvoiceService defines the interface for lazy invoice generation.
// Invoices are rendered on first download and reused afterwards.
type InvoiceService interface {
	// EnsureInvoice returns the invoice file for an order, generating it
	// first if it does not exist yet. When forClient is set, the order
	// must belong to that client.
	EnsureInvoice(ctx context.Context, orderID uuid.UUID, forClient *uuid.UUID) (*InvoiceFile, error)
}

type invoiceService struct {
	orderRepo  repository.OrderRepository
	generator  InvoiceGenerator
	invoiceDir string
}

// NewInvoiceService creates a new instance of InvoiceService
func NewInvoiceService(orderRepo repository.OrderRepository, generator InvoiceGenerator, invoiceDir string) InvoiceService {
	return &invoiceService{
		orderRepo:  orderRepo,
		generator:  generator,
		invoiceDir: invoiceDir,
	}
}

func (s *invoiceService) EnsureInvoice(ctx context.Context, orderID uuid.UUID, forClient *uuid.UUID) (*InvoiceFile, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if forClient != nil && order.ClientID != *forClient {
		return nil, ErrOrderAccessDenied
	}

	if !order.HasInvoice() {
		items, err := s.orderRepo.ListItems(ctx, orderID)
		if err != nil {
			return nil, err
		}

		storedFileName, err := s.generator.Generate(&OrderDetail{Order: order, Items: items})
		if err != nil {
			return nil, fmt.Errorf("failed to generate invoice: %w", err)
		}

		fileName := fmt.Sprintf("Invoice_%s.pdf", order.ID)
		if err := s.orderRepo.SetInvoiceMetadata(ctx, orderID, storedFileName, "application/pdf", fileName); err != nil {
			return nil, err
		}

		order, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}

	if !order.HasInvoice() {
		return nil, ErrInvoiceMetadataMissing
	}

	path := filepath.Join(s.invoiceDir, order.InvoiceStoredFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrInvoiceFileMissing
		}
		return nil, fmt.Errorf("failed to stat invoice file: %w", err)
	}

	return &InvoiceFile{
		Path:        path,
		FileName:    order.InvoiceFileName,
		ContentType: order.InvoiceContentType,
	}, nil
}
