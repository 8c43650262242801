package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockGateway struct {
	CreateCustomerFunc        func(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSessionFunc func(ctx context.Context, req CheckoutRequest) (string, error)

	customers int
	lastReq   CheckoutRequest
}

func (m *mockGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	m.customers++
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, email, userID)
	}
	return "cus_123", nil
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	m.lastReq = req
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return "https://checkout.stripe.test/s/abc", nil
}

type mockUserRepo struct {
	database.UserRepositoryInterface
	SetStripeCustomerIDFunc func(ctx context.Context, id uuid.UUID, customerID string) error
	saved                   string
}

func (m *mockUserRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	m.saved = customerID
	if m.SetStripeCustomerIDFunc != nil {
		return m.SetStripeCustomerIDFunc(ctx, id, customerID)
	}
	return nil
}

var (
	_ PaymentGateway                   = (*mockGateway)(nil)
	_ PaymentGateway                   = (*StripeGateway)(nil)
	_ database.UserRepositoryInterface = (*mockUserRepo)(nil)
)

func TestService_Checkout_NewCustomer(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	users := &mockUserRepo{}
	svc := NewService(gw, users, "price_pro", "https://app.example.com/", zap.NewNop())

	user := &models.User{ID: uuid.New(), Email: "ada@example.com"}
	url, err := svc.Checkout(context.Background(), user)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if url != "https://checkout.stripe.test/s/abc" {
		t.Errorf("url = %q", url)
	}
	if users.saved != "cus_123" {
		t.Errorf("saved customer = %q", users.saved)
	}
	want := CheckoutRequest{
		CustomerID: "cus_123",
		PriceID:    "price_pro",
		UserID:     user.ID.String(),
		SuccessURL: "https://app.example.com/dashboard?success=true",
		CancelURL:  "https://app.example.com/dashboard?canceled=true",
	}
	if gw.lastReq != want {
		t.Errorf("checkout request = %+v, want %+v", gw.lastReq, want)
	}
}

func TestService_Checkout_ExistingCustomer(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{}
	users := &mockUserRepo{}
	svc := NewService(gw, users, "price_pro", "https://app.example.com", nil)

	existing := "cus_existing"
	if _, err := svc.Checkout(context.Background(), &models.User{ID: uuid.New(), StripeCustomerID: &existing}); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if gw.customers != 0 || users.saved != "" {
		t.Error("Expected the existing customer to be reused")
	}
	if gw.lastReq.CustomerID != existing {
		t.Errorf("CustomerID = %q", gw.lastReq.CustomerID)
	}
}

func TestService_Checkout_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		gw       *mockGateway
		users    *mockUserRepo
		wantKind apperr.Kind
	}{
		{
			name: "customer creation fails",
			gw: &mockGateway{CreateCustomerFunc: func(ctx context.Context, email, userID string) (string, error) {
				return "", errors.New("card_declined")
			}},
			users:    &mockUserRepo{},
			wantKind: apperr.KindUpstream,
		},
		{
			name: "customer id not saved",
			gw:   &mockGateway{},
			users: &mockUserRepo{SetStripeCustomerIDFunc: func(ctx context.Context, id uuid.UUID, customerID string) error {
				return errors.New("connection reset")
			}},
			wantKind: apperr.KindPersistence,
		},
		{
			name: "session creation fails",
			gw: &mockGateway{CreateCheckoutSessionFunc: func(ctx context.Context, req CheckoutRequest) (string, error) {
				return "", errors.New("no such price")
			}},
			users:    &mockUserRepo{},
			wantKind: apperr.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(tt.gw, tt.users, "price_pro", "https://app.example.com", zap.NewNop())
			_, err := svc.Checkout(context.Background(), &models.User{ID: uuid.New(), Email: "a@b.c"})
			if !apperr.Is(err, tt.wantKind) {
				t.Errorf("Checkout() error = %v, want kind %s", err, tt.wantKind)
			}
			if apperr.PublicMessage(err) != checkoutFailedMessage {
				t.Errorf("PublicMessage() = %q", apperr.PublicMessage(err))
			}
		})
	}
}
