package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleBuyer  = "Buyer"
	RoleSeller = "Seller"
	RoleAuthor = "Author"
	RoleAdmin  = "Admin"
)

type User struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username           string               `bson:"username" json:"username"`
	Name               string               `bson:"name" json:"name"`
	Email              string               `bson:"email" json:"email"`
	Password           string               `bson:"password" json:"-"`
	Address            string               `bson:"address" json:"address"`
	Phone              string               `bson:"phone" json:"phone"`
	Company            string               `bson:"company" json:"company"`
	About              string               `bson:"about" json:"about"`
	Photo              *Photo               `bson:"photo,omitempty" json:"photo,omitempty"`
	Logo               *Photo               `bson:"logo,omitempty" json:"logo,omitempty"`
	Role               []string             `bson:"role" json:"role"`
	Wishlist           []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	EnquiredProperties []primitive.ObjectID `bson:"enquiredProperties" json:"enquiredProperties"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// InWishlist reports whether adID is already saved on the user's wishlist.
func (u *User) InWishlist(adID primitive.ObjectID) bool {
	for _, id := range u.Wishlist {
		if id == adID {
			return true
		}
	}
	return false
}

// PublicProfile is the subset of User joined onto ads in list responses.
type PublicProfile struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Phone    string             `bson:"phone" json:"phone"`
	Company  string             `bson:"company" json:"company"`
	Photo    *Photo             `bson:"photo,omitempty" json:"photo,omitempty"`
	Logo     *Photo             `bson:"logo,omitempty" json:"logo,omitempty"`
}
