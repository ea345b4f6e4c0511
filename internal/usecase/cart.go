package usecase

import (
	"context"
	"fmt"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
)

// CartService owns all cart mutations for both account and guest
// owners. Stock checks here are advisory: lines are clamped to what
// looked available, and the assembler re-validates at checkout.
type CartService struct {
	carts CartRepo
	stock StockLedger
}

func NewCartService(carts CartRepo, stock StockLedger) *CartService {
	return &CartService{carts: carts, stock: stock}
}

// CartView is a cart plus the product ids whose quantity was clamped
// to available stock during the mutation (soft warning, not an error).
type CartView struct {
	Cart     *domain.Cart
	Adjusted []string
}

func (s *CartService) Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return domain.NewCart(owner), nil
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (CartView, error) {
	if qty <= 0 {
		return CartView{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	if err := cart.Add(productID, qty); err != nil {
		return CartView{}, err
	}
	view, err := s.clampLine(ctx, cart, productID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return CartView{}, err
	}
	return view, nil
}

func (s *CartService) UpdateItem(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (CartView, error) {
	if qty < 0 {
		return CartView{}, fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
	}
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	if err := cart.SetQuantity(productID, qty); err != nil {
		return CartView{}, err
	}
	view := CartView{Cart: cart}
	if qty > 0 {
		view, err = s.clampLine(ctx, cart, productID)
		if err != nil {
			return CartView{}, err
		}
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return CartView{}, err
	}
	return view, nil
}

// Increment adds one unit to an existing line (or starts one).
func (s *CartService) Increment(ctx context.Context, owner domain.OwnerKey, productID string) (CartView, error) {
	return s.AddItem(ctx, owner, productID, 1)
}

// Decrement removes one unit; going below one removes the line.
func (s *CartService) Decrement(ctx context.Context, owner domain.OwnerKey, productID string) (CartView, error) {
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	return s.UpdateItem(ctx, owner, productID, cart.Quantity(productID)-1)
}

func (s *CartService) RemoveItem(ctx context.Context, owner domain.OwnerKey, productID string) (*domain.Cart, error) {
	cart, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Remove(productID)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, owner domain.OwnerKey) error {
	return s.carts.Delete(ctx, owner)
}

// Merge folds a guest cart into the account cart at login. The repo
// executes it as one atomic unit so an in-flight guest mutation lands
// either fully before or fully after the merge.
func (s *CartService) Merge(ctx context.Context, guestToken, accountID string) (*domain.Cart, error) {
	return s.carts.MergeGuestIntoAccount(ctx, domain.GuestKey(guestToken), domain.AccountKey(accountID))
}

// Restore rebuilds a guest cart from the lines of an abandoned or
// failed gateway payment. This is the designed recovery path; there is
// no payment retry.
func (s *CartService) Restore(ctx context.Context, guestToken string, lines []domain.CartLine) (CartView, error) {
	cart := domain.NewCart(domain.GuestKey(guestToken))
	var adjusted []string
	for _, l := range lines {
		if l.Quantity <= 0 {
			return CartView{}, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}
		if err := cart.Add(l.ProductID, l.Quantity); err != nil {
			return CartView{}, err
		}
		view, err := s.clampLine(ctx, cart, l.ProductID)
		if err != nil {
			return CartView{}, err
		}
		adjusted = append(adjusted, view.Adjusted...)
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return CartView{}, err
	}
	return CartView{Cart: cart, Adjusted: adjusted}, nil
}

func (s *CartService) clampLine(ctx context.Context, cart *domain.Cart, productID string) (CartView, error) {
	avail, err := s.stock.CheckAvailable(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Cart: cart}
	if cart.Quantity(productID) > avail {
		if err := cart.SetQuantity(productID, avail); err != nil {
			return CartView{}, err
		}
		view.Adjusted = append(view.Adjusted, productID)
	}
	return view, nil
}
