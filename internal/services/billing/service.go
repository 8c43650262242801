package billing

import (
	"context"
	"strings"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"go.uber.org/zap"
)

const checkoutFailedMessage = "Failed to create checkout session"

// Service creates checkout sessions for upgrading to the paid plan
type Service struct {
	gateway PaymentGateway
	users   database.UserRepositoryInterface
	priceID string
	appURL  string
	logger  *zap.Logger
}

// NewService creates a billing service. appURL is the public frontend origin
// used for the success and cancel redirects.
func NewService(gateway PaymentGateway, users database.UserRepositoryInterface, priceID, appURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway: gateway,
		users:   users,
		priceID: priceID,
		appURL:  strings.TrimRight(appURL, "/"),
		logger:  logger,
	}
}

// Checkout returns the URL of a subscription checkout session for user,
// creating and remembering the billing customer on first use.
func (s *Service) Checkout(ctx context.Context, user *models.User) (string, error) {
	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}

	if customerID == "" {
		id, err := s.gateway.CreateCustomer(ctx, user.Email, user.ID.String())
		if err != nil {
			return "", apperr.Upstream(checkoutFailedMessage, err)
		}
		if err := s.users.SetStripeCustomerID(ctx, user.ID, id); err != nil {
			return "", apperr.Persistence(checkoutFailedMessage, err)
		}
		customerID = id
		user.StripeCustomerID = &id
		s.logger.Info("billing_customer_created", zap.String("user_id", user.ID.String()))
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    s.priceID,
		UserID:     user.ID.String(),
		SuccessURL: s.appURL + "/dashboard?success=true",
		CancelURL:  s.appURL + "/dashboard?canceled=true",
	})
	if err != nil {
		return "", apperr.Upstream(checkoutFailedMessage, err)
	}
	return url, nil
}
