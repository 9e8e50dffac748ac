// Package notifications delivers customer-facing messages. The current
// dispatcher writes structured log records; swapping in an SMS or email
// provider only requires another Dispatcher implementation.
package notifications

import (
	"context"
	"fmt"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

// Dispatcher delivers outbound customer messages.
type Dispatcher interface {
	EstimateSent(ctx context.Context, estimate *models.Estimate, customer *models.Customer) error
	InvoiceReady(ctx context.Context, invoice *models.Invoice, customer *models.Customer) error
}

type logDispatcher struct {
	log       *logger.Logger
	shopPhone string
}

// NewLogDispatcher builds a dispatcher that records deliveries in the service
// log instead of reaching an external provider. shopPhone is the callback
// number included in the message, and may be empty.
func NewLogDispatcher(log *logger.Logger, shopPhone string) (Dispatcher, error) {
	if log == nil {
		return nil, fmt.Errorf("notifications logger required")
	}
	return &logDispatcher{log: log, shopPhone: shopPhone}, nil
}

func (d *logDispatcher) EstimateSent(ctx context.Context, estimate *models.Estimate, customer *models.Customer) error {
	fields := map[string]any{
		"estimate_number": estimate.EstimateNumber,
		"customer_name":   customer.Name,
	}
	addContactFields(fields, customer)
	d.log.Info(d.log.WithFields(ctx, fields), "estimate sent to customer")
	return nil
}

func (d *logDispatcher) InvoiceReady(ctx context.Context, invoice *models.Invoice, customer *models.Customer) error {
	fields := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"customer_name":  customer.Name,
	}
	if d.shopPhone != "" {
		fields["shop_phone"] = d.shopPhone
	}
	addContactFields(fields, customer)
	d.log.Info(d.log.WithFields(ctx, fields), "vehicle ready for pickup")
	return nil
}

func addContactFields(fields map[string]any, customer *models.Customer) {
	if customer.Phone != nil {
		fields["phone"] = *customer.Phone
	}
	if customer.Email != nil {
		fields["email"] = *customer.Email
	}
}
