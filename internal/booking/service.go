package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xtrntr/ihome/internal/models"
)

// DefaultPageSize is used when the service is built with a non-positive page size
const DefaultPageSize = 10

// Service places booking orders and drives them through their lifecycle
type Service struct {
	store    Store
	cache    Invalidator
	notifier Notifier
	logger   *logrus.Logger
	pageSize int
}

// NewService creates a booking service. cache and notifier may be nil.
func NewService(store Store, cache Invalidator, notifier Notifier, logger *logrus.Logger, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		pageSize: pageSize,
	}
}

// PageSize is the number of houses per search page
func (s *Service) PageSize() int {
	return s.pageSize
}

// CreateOrder books houseID for guestID over [begin, end). The house row is
// locked while the existing orders are checked, so two overlapping requests
// for the same house cannot both succeed.
func (s *Service) CreateOrder(ctx context.Context, guestID, houseID int, begin, end string) (*models.Order, error) {
	if houseID <= 0 {
		return nil, fmt.Errorf("%w: house id is required", ErrValidation)
	}
	r, err := ParseDateRange(begin, end)
	if err != nil {
		return nil, err
	}

	var (
		order   *models.Order
		ownerID int
	)
	err = s.store.InTx(ctx, func(tx Tx) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return classify("load house", err)
		}
		if house.UserID == guestID {
			return fmt.Errorf("%w: landlord cannot book own house", ErrConflict)
		}

		days := r.Days()
		if days < house.MinDays {
			return fmt.Errorf("%w: house requires at least %d days", ErrValidation, house.MinDays)
		}
		if house.MaxDays > 0 && days > house.MaxDays {
			return fmt.Errorf("%w: house allows at most %d days", ErrValidation, house.MaxDays)
		}
		if house.Price > 0 && days > math.MaxInt/house.Price {
			return fmt.Errorf("%w: order amount out of range", ErrValidation)
		}

		orders, err := tx.GetOrdersForHouse(ctx, houseID)
		if err != nil {
			return classify("load house orders", err)
		}
		if !IsAvailable(orders, r) {
			return fmt.Errorf("%w: house %d is already booked within %s", ErrConflict, houseID, r)
		}

		o := &models.Order{
			HouseID:    houseID,
			UserID:     guestID,
			BeginDate:  r.Begin,
			EndDate:    r.End,
			Days:       days,
			HousePrice: house.Price,
			Amount:     days * house.Price,
			Status:     models.StatusWaitAccept,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return classify("insert order", err)
		}
		order, ownerID = o, house.UserID
		return nil
	})
	if err != nil {
		s.logFailure(err, "create order", logrus.Fields{"house_id": houseID, "user_id": guestID})
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"house_id": houseID,
		"range":    r.String(),
	}).Info("Order placed")
	s.notify(*order, ownerID)
	return order, nil
}

// AcceptOrder lets the landlord take a WAIT_ACCEPT order
func (s *Service) AcceptOrder(ctx context.Context, landlordID, orderID int) (*models.Order, error) {
	return s.transition(ctx, landlordID, orderID, EventAccept, nil)
}

// RejectOrder lets the landlord decline a WAIT_ACCEPT order. The reason is
// kept as the order comment and the dates become free again.
func (s *Service) RejectOrder(ctx context.Context, landlordID, orderID int, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reject reason is required", ErrValidation)
	}
	return s.transition(ctx, landlordID, orderID, EventReject, func(_ Tx, o *models.Order, _ *models.House) error {
		o.Comment = reason
		return nil
	})
}

// PayOrder records the payment confirmation for a WAIT_PAYMENT order
func (s *Service) PayOrder(ctx context.Context, guestID, orderID int) (*models.Order, error) {
	return s.transition(ctx, guestID, orderID, EventPay, nil)
}

// CancelOrder withdraws an order that has not been paid yet
func (s *Service) CancelOrder(ctx context.Context, guestID, orderID int) (*models.Order, error) {
	return s.transition(ctx, guestID, orderID, EventCancel, nil)
}

// CommentOrder completes a WAIT_COMMENT order with the guest's feedback and
// bumps the house order counter in the same transaction.
func (s *Service) CommentOrder(ctx context.Context, guestID, orderID int, comment string) (*models.Order, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrValidation)
	}
	order, err := s.transition(ctx, guestID, orderID, EventComment, func(tx Tx, o *models.Order, h *models.House) error {
		o.Comment = comment
		h.OrderCount++
		if err := tx.UpdateHouse(ctx, h); err != nil {
			return classify("update house", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, order.HouseID); err != nil {
			s.logger.WithError(err).WithField("house_id", order.HouseID).Warn("Failed to invalidate house cache")
		}
	}
	return order, nil
}

// ListOrders returns the orders a user placed (RoleGuest) or received on
// their houses (RoleLandlord), newest first.
func (s *Service) ListOrders(ctx context.Context, userID int, role string) ([]models.OrderView, error) {
	r := Role(role)
	if role == "" {
		r = RoleGuest
	}
	if r != RoleGuest && r != RoleLandlord {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrValidation, RoleGuest, RoleLandlord)
	}
	orders, err := s.store.ListOrders(ctx, userID, r)
	if err != nil {
		return nil, classify("list orders", err)
	}
	return orders, nil
}

type mutation func(tx Tx, o *models.Order, h *models.House) error

// transition locks the order and its house, checks that the caller is the
// party allowed to fire ev and that the order is in a state accepting ev.
// A wrong state is reported as ErrNotFound.
func (s *Service) transition(ctx context.Context, userID, orderID int, ev Event, mutate mutation) (*models.Order, error) {
	var (
		order     *models.Order
		recipient int
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return classify("load order", err)
		}
		h, err := tx.GetHouse(ctx, o.HouseID)
		if err != nil {
			return classify("load house", err)
		}

		if landlordEvent(ev) {
			if h.UserID != userID {
				return fmt.Errorf("%w: only the landlord can %s order %d", ErrPolicy, ev, orderID)
			}
			recipient = o.UserID
		} else {
			if o.UserID != userID {
				return fmt.Errorf("%w: only the guest can %s order %d", ErrPolicy, ev, orderID)
			}
			recipient = h.UserID
		}

		to, ok := Transition(o.Status, ev)
		if !ok {
			return fmt.Errorf("%w: no order %d open to %s", ErrNotFound, orderID, ev)
		}
		o.Status = to
		o.UpdatedAt = time.Now()
		if mutate != nil {
			if err := mutate(tx, o, h); err != nil {
				return err
			}
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return classify("update order", err)
		}
		order = o
		return nil
	})
	if err != nil {
		s.logFailure(err, string(ev)+" order", logrus.Fields{"order_id": orderID, "user_id": userID})
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"order_id": order.ID, "status": order.Status}).Info("Order status changed")
	s.notify(*order, recipient)
	return order, nil
}

func landlordEvent(ev Event) bool {
	return ev == EventAccept || ev == EventReject
}

func (s *Service) notify(order models.Order, recipient int) {
	if s.notifier != nil {
		s.notifier.OrderChanged(order, recipient)
	}
}

// logFailure logs storage failures as errors and rejected requests at debug
func (s *Service) logFailure(err error, op string, fields logrus.Fields) {
	entry := s.logger.WithError(err).WithFields(fields)
	if errors.Is(err, ErrPersistence) {
		entry.Errorf("Failed to %s", op)
		return
	}
	entry.Debugf("Rejected %s", op)
}

// classify keeps classified errors and wraps everything else as a storage failure
func classify(op string, err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
