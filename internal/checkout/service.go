package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/db/models"
	"github.com/perfuman/storefront-backend/pkg/enums"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
	"github.com/perfuman/storefront-backend/pkg/mercadopago"
)

type preferenceCreator interface {
	CreatePreference(ctx context.Context, params mercadopago.PreferenceCreateParams) (*mercadopago.PreferenceResult, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutItem is one requested order line. UnitPrice is the price the
// storefront displayed; it is informational only and never billed.
type CheckoutItem struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CustomerInput is the buyer contact block captured at checkout.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	ZipCode string
	Country string
	Notes   string
}

// CheckoutInput is the full checkout request.
type CheckoutInput struct {
	Items    []CheckoutItem
	Customer CustomerInput
}

// CheckoutResult is what the storefront needs to hand the buyer over
// to the hosted payment page.
type CheckoutResult struct {
	OrderID      int64
	InitPoint    string
	PreferenceID string
	TotalAmount  decimal.Decimal
}

type service struct {
	productsRepo products.Repository
	ordersRepo   orders.Repository
	gateway      preferenceCreator
	logger       *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	productsRepo products.Repository,
	ordersRepo orders.Repository,
	gateway preferenceCreator,
	logg *logger.Logger,
) (Service, error) {
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		productsRepo: productsRepo,
		ordersRepo:   ordersRepo,
		gateway:      gateway,
		logger:       logg,
	}, nil
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	items, err := normalizeItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.Customer.Name == "" || input.Customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and email are required")
	}

	catalog, err := s.loadCatalog(ctx, items)
	if err != nil {
		return nil, err
	}

	total, err := s.priceItems(ctx, items, catalog)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be greater than zero")
	}

	rollback := newSaga(s.productsRepo, s.ordersRepo, s.logger)

	if err := s.reserveStock(ctx, items, rollback); err != nil {
		rollback.unwind(ctx)
		return nil, err
	}

	order, err := s.ordersRepo.CreateOrder(ctx, &models.Order{
		Status:        enums.OrderStatusPending,
		TotalAmount:   total,
		CustomerEmail: input.Customer.Email,
		CustomerDetails: models.CustomerDetails{
			Name:    input.Customer.Name,
			Email:   input.Customer.Email,
			Phone:   input.Customer.Phone,
			Address: input.Customer.Address,
			City:    input.Customer.City,
			State:   input.Customer.State,
			ZipCode: input.Customer.ZipCode,
			Country: input.Customer.Country,
			Notes:   input.Customer.Notes,
		},
	})
	if err != nil {
		rollback.unwind(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.CodeReservation, err, "creating order")
	}
	rollback.trackOrder(order.ID)
	ctx = s.logger.WithOrderID(ctx, order.ID)

	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product := catalog[item.ProductID]
		orderItems = append(orderItems, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}
	if err := s.ordersRepo.CreateOrderItems(ctx, orderItems); err != nil {
		rollback.unwind(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.CodeReservation, err, "creating order items")
	}
	rollback.trackItems()

	preference, err := s.createPreference(ctx, order.ID, items, catalog, input.Customer)
	if err != nil {
		rollback.unwind(ctx)
		return nil, err
	}

	// best effort: the order is already payable, a missing reference
	// only degrades later reconciliation lookups
	if err := s.ordersRepo.SetPreferenceReference(ctx, order.ID, preference.ID); err != nil {
		s.logger.Error(ctx, "persisting preference reference failed", err)
	}

	s.logger.Info(ctx, "checkout completed")
	return &CheckoutResult{
		OrderID:      order.ID,
		InitPoint:    preference.InitPoint,
		PreferenceID: preference.ID,
		TotalAmount:  total,
	}, nil
}

// normalizeItems validates quantities and merges duplicate product
// lines into one.
func normalizeItems(raw []CheckoutItem) ([]CheckoutItem, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	merged := make([]CheckoutItem, 0, len(raw))
	index := make(map[int64]int, len(raw))
	for _, item := range raw {
		if item.ProductID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if pos, seen := index[item.ProductID]; seen {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func (s *service) loadCatalog(ctx context.Context, items []CheckoutItem) (map[int64]models.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	found, err := s.productsRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading products")
	}

	catalog := make(map[int64]models.Product, len(found))
	for _, product := range found {
		if !product.Active {
			continue
		}
		catalog[product.ID] = product
	}

	missing := make([]int64, 0)
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeProductsNotFound, "some products do not exist or are unavailable").
			WithMissingProducts(missing)
	}
	return catalog, nil
}

// priceItems computes the authoritative total from catalog prices and
// fails fast when the visible stock already cannot cover the request.
func (s *service) priceItems(ctx context.Context, items []CheckoutItem, catalog map[int64]models.Product) (decimal.Decimal, error) {
	total := decimal.Zero
	shortages := make([]map[string]any, 0)

	for _, item := range items {
		product := catalog[item.ProductID]
		if product.Stock < item.Quantity {
			shortages = append(shortages, map[string]any{
				"product_id": product.ID,
				"requested":  item.Quantity,
				"available":  product.Stock,
			})
			continue
		}

		if item.UnitPrice != nil && !item.UnitPrice.Equal(product.Price) {
			fctx := s.logger.WithFields(ctx, map[string]any{
				"product_id":    product.ID,
				"client_price":  item.UnitPrice.String(),
				"catalog_price": product.Price.String(),
			})
			s.logger.Warn(fctx, "client price does not match catalog, billing catalog price")
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if len(shortages) > 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested quantities").
			WithDetails(shortages)
	}
	return total, nil
}

// reserveStock claims each line atomically. A mid-stream failure means
// a concurrent checkout won the race; the caller unwinds whatever was
// already tracked.
func (s *service) reserveStock(ctx context.Context, items []CheckoutItem, rollback *saga) error {
	for _, item := range items {
		reserved, err := s.productsRepo.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeReservation, err, "reserving stock")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeStockUnavailable, "stock changed while processing checkout").
				WithDetails([]map[string]any{{
					"product_id": item.ProductID,
					"requested":  item.Quantity,
				}})
		}
		rollback.trackReservation(item.ProductID, item.Quantity)
	}
	return nil
}

func (s *service) createPreference(
	ctx context.Context,
	orderID int64,
	items []CheckoutItem,
	catalog map[int64]models.Product,
	customer CustomerInput,
) (*mercadopago.PreferenceResult, error) {
	prefItems := make([]mercadopago.PreferenceItem, 0, len(items))
	for _, item := range items {
		product := catalog[item.ProductID]
		prefItems = append(prefItems, mercadopago.PreferenceItem{
			ProductID:   product.ID,
			Title:       product.Name,
			Description: product.Description,
			PictureURL:  product.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
	}

	preference, err := s.gateway.CreatePreference(ctx, mercadopago.PreferenceCreateParams{
		OrderID: orderID,
		Items:   prefItems,
		Payer: mercadopago.PreferencePayer{
			Name:  customer.Name,
			Email: customer.Email,
		},
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "creating payment preference")
	}
	if preference == nil || preference.ID == "" || preference.InitPoint == "" {
		// without a redirect URL the buyer can never pay this order
		return nil, pkgerrors.New(pkgerrors.CodePaymentGateway, "gateway returned an incomplete preference")
	}
	return preference, nil
}
