package domain

import "time"

type CartLine struct {
	ProductID string
	Quantity  int // always >= 1; quantity 0 removes the line
}

type Cart struct {
	Owner     OwnerKey
	Lines     []CartLine
	UpdatedAt time.Time
}

func NewCart(owner OwnerKey) *Cart {
	return &Cart{Owner: owner, UpdatedAt: time.Now().UTC()}
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c *Cart) Quantity(productID string) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Add merges qty into an existing line for the product, or appends a new line.
func (c *Cart) Add(productID string, qty int) error {
	if productID == "" || qty <= 0 {
		return ErrValidation
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			c.touch()
			return nil
		}
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: qty})
	c.touch()
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty < 0 {
		return ErrValidation
	}
	if qty == 0 {
		c.Remove(productID)
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			c.touch()
			return nil
		}
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: qty})
	c.touch()
	return nil
}

func (c *Cart) Remove(productID string) {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.touch()
			return
		}
	}
}

func (c *Cart) touch() { c.UpdatedAt = time.Now().UTC() }
