package utils

import (
	"fmt"
	"strconv"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AdSlug derives a listing slug from its headline attributes. The random
// suffix keeps slugs unique even when two ads share every attribute, which is
// why the slug carries no uniqueness burden beyond the database index.
func AdSlug(propertyType, action, address string, price float64) string {
	return slug.Make(fmt.Sprintf("%s-for-%s-address-%s-price-%s-%s",
		propertyType, action, address, FormatPrice(price), gonanoid.Must(6)))
}

func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// RandomCode returns a short lowercase id used for generated usernames and
// temporary passwords.
func RandomCode() string {
	return gonanoid.MustGenerate("0123456789abcdefghijklmnopqrstuvwxyz", 6)
}
