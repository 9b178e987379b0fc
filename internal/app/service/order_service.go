package service

import (
	"errors"
	"fmt"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotPurchasable      = errors.New("listing is not available for purchase")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrPriceUnset          = errors.New("listing has no price")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrOrderNotCancellable = errors.New("only pending orders can be cancelled by the buyer")
)

type PlaceOrderInput struct {
	ListingID     uint    `json:"listing_id" binding:"required"`
	Quantity      int     `json:"quantity"`
	TransactionID *string `json:"transaction_id" binding:"omitempty,max=100"`
	Notes         *string `json:"notes" binding:"omitempty,max=1000"`
}

type OrderService interface {
	PlaceOrder(actor Actor, input PlaceOrderInput) (*model.Order, error)
	TransitionOrder(actor Actor, orderID uint, next model.OrderStatus) (*model.Order, error)
	CancelOrder(actor Actor, orderID uint) (*model.Order, error)

	GetUserOrders(actor Actor) ([]model.Order, error)
	GetOrder(actor Actor, orderID uint) (*model.Order, error)
	ListVendorOrders(actor Actor, vendorID uint, status *model.OrderStatus) ([]model.Order, error)
}

type orderService struct {
	orderRepo      repository.OrderRepository
	vendorRepo     repository.VendorRepository
	notifications  NotificationService
	publisher      events.Publisher
	db             *gorm.DB
	decrementStock bool
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	vendorRepo repository.VendorRepository,
	notifications NotificationService,
	publisher events.Publisher,
	db *gorm.DB,
	decrementStock bool,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		vendorRepo:     vendorRepo,
		notifications:  notifications,
		publisher:      publisher,
		db:             db,
		decrementStock: decrementStock,
	}
}

// PlaceOrder creates a PENDING order with total = price x quantity, frozen at creation.
// The listing row is locked for the duration so the purchasability check and the optional
// stock decrement see the same state.
func (s *orderService) PlaceOrder(actor Actor, input PlaceOrderInput) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":    actor.UserID,
		"listing_id": input.ListingID,
		"quantity":   input.Quantity,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order placement, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": actor.UserID,
			})
		}
	}()

	var listing model.Listing
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Vendor").
		First(&listing, input.ListingID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		logger.Error("Failed to load listing for order", err, map[string]interface{}{
			"listing_id": input.ListingID,
		})
		return nil, err
	}

	if !listing.IsPurchasable() {
		tx.Rollback()
		logger.Warn("Order rejected: listing not purchasable", map[string]interface{}{
			"listing_id":   listing.ID,
			"is_available": listing.IsAvailable,
		})
		return nil, ErrNotPurchasable
	}
	if input.Quantity < 1 || (listing.TracksStock() && input.Quantity > *listing.Stock) {
		tx.Rollback()
		logger.Warn("Order rejected: invalid quantity", map[string]interface{}{
			"listing_id": listing.ID,
			"quantity":   input.Quantity,
		})
		return nil, ErrInvalidQuantity
	}
	if listing.Price == nil {
		tx.Rollback()
		return nil, ErrPriceUnset
	}

	if s.decrementStock && listing.TracksStock() {
		result := tx.Model(&model.Listing{}).
			Where("id = ? AND stock >= ?", listing.ID, input.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", input.Quantity))
		if result.Error != nil {
			tx.Rollback()
			logger.Error("Failed to decrement stock", result.Error, map[string]interface{}{
				"listing_id": listing.ID,
			})
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return nil, ErrInvalidQuantity
		}
		remainingStock := *listing.Stock - input.Quantity
		listing.Stock = &remainingStock
	}

	order := &model.Order{
		ListingID:     listing.ID,
		UserID:        actor.UserID,
		Quantity:      input.Quantity,
		TotalPrice:    listing.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		Status:        model.OrderStatusPending,
		TransactionID: input.TransactionID,
		Notes:         input.Notes,
	}
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":    actor.UserID,
			"listing_id": listing.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return nil, err
	}

	order.Listing = &listing
	metrics.OrdersPlaced.WithLabelValues(string(listing.Type)).Inc()

	logger.Info("Order placed", map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     actor.UserID,
		"listing_id":  listing.ID,
		"total_price": order.TotalPrice.String(),
	})

	s.notifyVendor(listing.VendorID, model.Notification{
		Type:             model.NotificationTypeOrderPlaced,
		Title:            "New order",
		Content:          fmt.Sprintf("%d x %s", order.Quantity, listing.Title),
		Link:             fmt.Sprintf("/orders/%d", order.ID),
		RelatedOrderID:   &order.ID,
		RelatedListingID: &listing.ID,
		RelatedVendorID:  &listing.VendorID,
	})
	publishEvent(s.publisher, events.New(events.OrderPlaced, orderKey(order.ID), map[string]interface{}{
		"order_id":    order.ID,
		"listing_id":  listing.ID,
		"vendor_id":   listing.VendorID,
		"user_id":     actor.UserID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice.String(),
	}))

	return order, nil
}

// TransitionOrder moves an order along the status graph. Only members of the selling
// vendor may do this. A concurrent change of the same order surfaces as ErrInvalidTransition.
func (s *orderService) TransitionOrder(actor Actor, orderID uint, next model.OrderStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(s.vendorRepo, actor.UserID, order.Listing.VendorID)
	if err != nil {
		return nil, err
	}
	if !role.IsMember() {
		logger.Warn("Order transition rejected: not a vendor member", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": orderID,
		})
		return nil, ErrForbidden
	}

	if !order.Status.CanTransitionTo(next) {
		logger.Warn("Order transition rejected: edge not allowed", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       next,
		})
		return nil, ErrInvalidTransition
	}

	if err := s.applyTransition(order, next); err != nil {
		return nil, err
	}

	s.notifications.Notify([]uint{order.UserID}, model.Notification{
		Type:             model.NotificationTypeOrderStatusChanged,
		Title:            "Order updated",
		Content:          fmt.Sprintf("Your order for %s is now %s", order.Listing.Title, next),
		Link:             fmt.Sprintf("/orders/%d", order.ID),
		RelatedOrderID:   &order.ID,
		RelatedListingID: &order.ListingID,
	})
	return order, nil
}

// CancelOrder lets the buyer withdraw an order the vendor has not confirmed yet.
func (s *orderService) CancelOrder(actor Actor, orderID uint) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderNotCancellable
	}

	if err := s.applyTransition(order, model.OrderStatusCancelled); err != nil {
		return nil, err
	}

	s.notifyVendor(order.Listing.VendorID, model.Notification{
		Type:             model.NotificationTypeOrderStatusChanged,
		Title:            "Order cancelled",
		Content:          fmt.Sprintf("An order for %s was cancelled by the buyer", order.Listing.Title),
		Link:             fmt.Sprintf("/orders/%d", order.ID),
		RelatedOrderID:   &order.ID,
		RelatedListingID: &order.ListingID,
		RelatedVendorID:  &order.Listing.VendorID,
	})
	return order, nil
}

// applyTransition writes next only if the order still has the status that was read.
// Cancelling returns decremented stock when stock decrement is enabled.
func (s *orderService) applyTransition(order *model.Order, next model.OrderStatus) error {
	from := order.Status
	restock := next == model.OrderStatusCancelled && s.decrementStock &&
		order.Listing != nil && order.Listing.TracksStock()

	if !restock {
		ok, err := s.orderRepo.UpdateStatusIfCurrent(order.ID, from, next)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
	} else {
		tx := s.db.Begin()
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Update("status", next)
		if result.Error != nil {
			tx.Rollback()
			return result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return ErrInvalidTransition
		}
		if err := tx.Model(&model.Listing{}).
			Where("id = ? AND stock IS NOT NULL", order.ListingID).
			UpdateColumn("stock", gorm.Expr("stock + ?", order.Quantity)).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
	}

	order.Status = next
	metrics.OrderTransitions.WithLabelValues(string(from), string(next)).Inc()

	logger.Info("Order status changed", map[string]interface{}{
		"order_id": order.ID,
		"from":     from,
		"to":       next,
	})
	publishEvent(s.publisher, events.New(events.OrderStatusChanged, orderKey(order.ID), map[string]interface{}{
		"order_id": order.ID,
		"from":     from,
		"to":       next,
	}))
	return nil
}

func (s *orderService) GetUserOrders(actor Actor) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(actor.UserID)
}

// GetOrder is visible to the buyer, members of the selling vendor and admins.
func (s *orderService) GetOrder(actor Actor, orderID uint) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == actor.UserID || actor.IsAdmin() {
		return order, nil
	}

	role, err := roleOf(s.vendorRepo, actor.UserID, order.Listing.VendorID)
	if err != nil {
		return nil, err
	}
	if !role.IsMember() {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListVendorOrders(actor Actor, vendorID uint, status *model.OrderStatus) ([]model.Order, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	role, err := roleOf(s.vendorRepo, actor.UserID, vendorID)
	if err != nil {
		return nil, err
	}
	if !role.IsMember() {
		return nil, ErrForbidden
	}
	return s.orderRepo.FindByVendorID(vendorID, status)
}

func (s *orderService) findOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Listing == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) notifyVendor(vendorID uint, n model.Notification) {
	memberIDs, err := s.vendorRepo.FindMemberUserIDs(vendorID)
	if err != nil {
		logger.Error("Failed to load vendor members for notification", err, map[string]interface{}{
			"vendor_id": vendorID,
		})
		return
	}
	s.notifications.Notify(memberIDs, n)
}

func orderKey(id uint) string {
	return fmt.Sprintf("order-%d", id)
}
