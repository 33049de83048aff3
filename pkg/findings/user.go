package findings

// User is the requester a report is built for.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	// Staff users see every product.
	Staff bool `json:"staff"`
	// ProductIDs are the products a non-staff user is authorized on.
	ProductIDs []int `json:"product_ids"`
}

// Scope returns the ProductIDs restriction for queries issued on behalf of u.
// A nil user or a staff user is unrestricted.
func (u *User) Scope() []int {
	if u == nil || u.Staff {
		return nil
	}
	if u.ProductIDs == nil {
		return []int{}
	}
	return u.ProductIDs
}
