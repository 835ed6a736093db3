package domain

// Product carries only the slice of the catalog document this service touches:
// the stock counter. Catalog management lives elsewhere.
type Product struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Inventory Inventory `bson:"inventory" json:"inventory"`
}

type Inventory struct {
	Stock int32 `bson:"stock" json:"stock"`
}
