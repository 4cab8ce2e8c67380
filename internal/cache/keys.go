package cache

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	AllProductsKey   = "products:all"
	AllCategoriesKey = "categories:all"

	// ProductKeyPrefix matches every single-product entry.
	ProductKeyPrefix = "product:"
	// OwnerKeyPrefix matches every owner-scoped collection.
	OwnerKeyPrefix = "user:"
)

func ProductKey(id uuid.UUID) string {
	return ProductKeyPrefix + id.String()
}

func OwnerProductsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("%s%s:products", OwnerKeyPrefix, ownerID)
}

func CategoryKey(id uuid.UUID) string {
	return "category:" + id.String()
}

func OwnerCategoriesKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("%s%s:categories", OwnerKeyPrefix, ownerID)
}
