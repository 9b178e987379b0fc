package repository

import (
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindByVendorID(vendorID uint, status *model.OrderStatus) ([]model.Order, error)
	// UpdateStatusIfCurrent moves an order from one status to another and reports
	// whether a row matched. A false result means the order changed concurrently.
	UpdateStatusIfCurrent(id uint, from, to model.OrderStatus) (bool, error)
	CountByStatus() (map[model.OrderStatus]int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Listing", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Vendor")
	}).Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":     order.UserID,
		"listing_id":  order.ListingID,
		"total_price": order.TotalPrice.String(),
	})

	if err := r.db.Omit("Listing", "User").Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":    order.UserID,
			"listing_id": order.ListingID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindByVendorID(vendorID uint, status *model.OrderStatus) ([]model.Order, error) {
	logger.Debug("Finding orders by vendor ID in database", map[string]interface{}{
		"vendor_id": vendorID,
		"status":    status,
	})

	query := r.preloadOrder().
		Joins("JOIN listings ON listings.id = orders.listing_id").
		Where("listings.vendor_id = ?", vendorID)
	if status != nil {
		query = query.Where("orders.status = ?", *status)
	}

	var orders []model.Order
	if err := query.Select("orders.*").
		Order("orders.created_at DESC").Order("orders.id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by vendor ID in database", err, map[string]interface{}{
			"vendor_id": vendorID,
		})
		return nil, err
	}

	logger.Debug("Orders found by vendor ID in database", map[string]interface{}{
		"vendor_id": vendorID,
		"count":     len(orders),
	})
	return orders, nil
}

func (r *orderRepository) UpdateStatusIfCurrent(id uint, from, to model.OrderStatus) (bool, error) {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"from":     from,
		"to":       to,
	})

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"to":       to,
		})
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepository) CountByStatus() (map[model.OrderStatus]int64, error) {
	type row struct {
		Status model.OrderStatus
		Count  int64
	}
	var rows []row
	if err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
