package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Photo is a reference to an image held in object storage.
type Photo struct {
	Key        string             `bson:"key" json:"Key"`
	Location   string             `bson:"location" json:"Location"`
	UploadedBy primitive.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
}

// MapRef is the geocoder's resolved place. It is stored with the ad but
// stripped from every API response.
type MapRef struct {
	PlaceID          string   `bson:"placeId" json:"placeId"`
	FormattedAddress string   `bson:"formattedAddress" json:"formattedAddress"`
	Location         GeoPoint `bson:"location" json:"location"`
}

type Ad struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Slug         string             `bson:"slug" json:"slug"`
	Photos       []Photo            `bson:"photos" json:"photos"`
	Description  string             `bson:"description" json:"description"`
	Address      string             `bson:"address" json:"address"`
	PropertyType string             `bson:"propertyType" json:"propertyType"`
	Price        float64            `bson:"price" json:"price"`
	Action       string             `bson:"action" json:"action"`
	Bedrooms     int                `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    int                `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	Landsize     float64            `bson:"landsize,omitempty" json:"landsize,omitempty"`
	LandsizeType string             `bson:"landsizetype,omitempty" json:"landsizetype,omitempty"`
	Location     GeoPoint           `bson:"location" json:"location"`
	GoogleMap    *MapRef            `bson:"googleMap,omitempty" json:"-"`
	PostedBy     primitive.ObjectID `bson:"postedBy" json:"postedBy"`
	Published    bool               `bson:"published" json:"published"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`
	Views        int64              `bson:"views" json:"views"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AdWithOwner is an Ad with the poster's public profile joined in ($lookup).
// Distance is populated only by the related-ads $geoNear pipeline.
type AdWithOwner struct {
	Ad       `bson:",inline"`
	Owner    PublicProfile `bson:"owner" json:"owner"`
	Distance float64       `bson:"distance,omitempty" json:"distance,omitempty"`
}
