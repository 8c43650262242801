package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/models"
	"github.com/gorilla/mux"
)

func TestBillingHandler_Checkout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		url        string
		err        error
		wantStatus int
	}{
		{"returns checkout url", "https://checkout.stripe.com/c/pay/cs_test_1", nil, http.StatusOK},
		{"gateway failure", "", apperr.Upstream("Failed to create checkout session", errors.New("card_declined")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user := testUser()
			billing := &mockCheckout{checkoutFunc: func(_ context.Context, u *models.User) (string, error) {
				if u.ID != user.ID {
					t.Errorf("user = %s, want %s", u.ID, user.ID)
				}
				return tt.url, tt.err
			}}
			router := mux.NewRouter()
			NewBillingHandler(billing, nil).RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", nil), user))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, w)
			if tt.err != nil {
				if env.Message != "Failed to create checkout session" {
					t.Errorf("message = %q", env.Message)
				}
				return
			}
			var data CheckoutResponse
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data.URL != tt.url {
				t.Errorf("url = %q, want %q", data.URL, tt.url)
			}
		})
	}
}
