package wishlist

// Wishlist is a per-user set of saved product ids. Unlike the cart it
// carries no quantities or prices.
type Wishlist struct {
	ID         string   `json:"wishlistId"`
	UserID     string   `json:"userId"`
	ProductIDs []string `json:"productIds"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
