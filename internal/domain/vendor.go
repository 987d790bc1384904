package domain

// Vendor is a storefront that sells movies. The set is static reference data.
type Vendor struct {
	ID   int
	Name string
}
