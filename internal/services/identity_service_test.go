package services

import (
	"testing"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveCustomerTokenWins(t *testing.T) {
	resolver := NewIdentityResolver(newTestLogger())
	customerID := uuid.New()
	cartID := uuid.New()

	owner := resolver.Resolve(SessionTokens{
		CustomerID:      customerID.String(),
		AnonymousCartID: cartID.String(),
	})

	assert.True(t, owner.IsAuthenticated())
	assert.Equal(t, customerID, owner.CustomerID)
}

func TestResolveAnonymousCartToken(t *testing.T) {
	resolver := NewIdentityResolver(newTestLogger())
	cartID := uuid.New()

	owner := resolver.Resolve(SessionTokens{AnonymousCartID: cartID.String()})

	assert.False(t, owner.IsAuthenticated())
	assert.True(t, owner.HasCartID())
	assert.Equal(t, cartID, owner.CartID)
}

func TestResolveMalformedTokensTreatedAsAbsent(t *testing.T) {
	resolver := NewIdentityResolver(newTestLogger())

	owner := resolver.Resolve(SessionTokens{
		CustomerID:      "not-a-uuid",
		AnonymousCartID: "also-garbage",
	})

	assert.False(t, owner.IsAuthenticated())
	assert.False(t, owner.HasCartID())
}

func TestResolveMalformedCustomerFallsBackToCart(t *testing.T) {
	resolver := NewIdentityResolver(newTestLogger())
	cartID := uuid.New()

	owner := resolver.Resolve(SessionTokens{
		CustomerID:      "garbage",
		AnonymousCartID: cartID.String(),
	})

	assert.False(t, owner.IsAuthenticated())
	assert.Equal(t, cartID, owner.CartID)
}

func TestResolveEmptyTokens(t *testing.T) {
	resolver := NewIdentityResolver(newTestLogger())

	owner := resolver.Resolve(SessionTokens{})

	assert.Equal(t, domain.NewAnonymousOwner(), owner)
}
