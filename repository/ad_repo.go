package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openhaus-dev/openhaus/backend/models"
)

const (
	searchRadiusKm      = 10
	earthRadiusKm       = 6371
	relatedRadiusMeters = 50000
)

// SearchQuery is the normalized form of a search request: a resolved center
// point plus optional exact-match filters. Nil pointer fields mean "do not
// filter on this".
type SearchQuery struct {
	Lng, Lat     float64
	Action       string
	PropertyType string
	Bedrooms     *int
	Bathrooms    *int
	Price        *float64
	Page         int
	PageSize     int
}

// searchFilter builds the Mongo filter for a search: ads within the radius of
// the center point, narrowed by whichever optional predicates are set. A
// supplied price restricts to the inclusive [80%, 120%] band around it.
func searchFilter(q SearchQuery) bson.M {
	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{q.Lng, q.Lat},
					float64(searchRadiusKm) / earthRadiusKm,
				},
			},
		},
	}
	if q.Action != "" && q.Action != "All" {
		filter["action"] = q.Action
	}
	if q.PropertyType != "" && q.PropertyType != "All" {
		filter["propertyType"] = q.PropertyType
	}
	if q.Bedrooms != nil {
		filter["bedrooms"] = *q.Bedrooms
	}
	if q.Bathrooms != nil {
		filter["bathrooms"] = *q.Bathrooms
	}
	if q.Price != nil {
		filter["price"] = bson.M{
			"$gte": *q.Price * 0.8,
			"$lte": *q.Price * 1.2,
		}
	}
	return filter
}

type AdRepo struct {
	col *mongo.Collection
}

func NewAdRepo(db *mongo.Database) *AdRepo {
	return &AdRepo{col: db.Collection("ads")}
}

func (r *AdRepo) Insert(ctx context.Context, ad *models.Ad) error {
	if ad.ID.IsZero() {
		ad.ID = primitive.NewObjectID()
	}
	now := time.Now()
	ad.CreatedAt = now
	ad.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, ad)
	return err
}

func (r *AdRepo) FindBySlug(ctx context.Context, slug string) (*models.Ad, error) {
	var ad models.Ad
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ad, error) {
	var ad models.Ad
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// FindBySlugWithOwner returns the ad with its poster's public profile joined
// and the map reference stripped.
func (r *AdRepo) FindBySlugWithOwner(ctx context.Context, slug string) (*models.AdWithOwner, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"slug": slug}}},
		bson.D{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, ownerLookupStages()...)

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ads []models.AdWithOwner
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, err
	}
	if len(ads) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &ads[0], nil
}

// UpdateBySlug applies the given field set to the ad. It reports false when
// no ad carries the slug.
func (r *AdRepo) UpdateBySlug(ctx context.Context, slug string, set bson.M) (bool, error) {
	set["updatedAt"] = time.Now()
	res, err := r.col.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *AdRepo) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *AdRepo) SetStatus(ctx context.Context, slug, status string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"slug": slug},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	return err
}

func (r *AdRepo) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (*models.Ad, error) {
	after := options.After
	var ad models.Ad
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"published": published, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&ad)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

// Related returns up to limit ads within 50 km of the given ad that share its
// action and property type, nearest first. $geoNear sorts by distance, which
// is the defining semantic here.
func (r *AdRepo) Related(ctx context.Context, ad *models.Ad, limit int) ([]models.AdWithOwner, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": ad.Location.Coordinates,
			},
			"distanceField": "distance",
			"maxDistance":   relatedRadiusMeters,
			"spherical":     true,
			"query": bson.M{
				"_id":          bson.M{"$ne": ad.ID},
				"action":       ad.Action,
				"propertyType": ad.PropertyType,
			},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, ownerLookupStages()...)

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var related []models.AdWithOwner
	if err := cursor.All(ctx, &related); err != nil {
		return nil, err
	}
	return related, nil
}

// Search returns one page of ads matching the query, newest first, along with
// the total match count for pagination.
func (r *AdRepo) Search(ctx context.Context, q SearchQuery) ([]models.Ad, int64, error) {
	filter := searchFilter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((q.Page - 1) * q.PageSize)).
		SetLimit(int64(q.PageSize)).
		SetProjection(bson.M{"googleMap": 0})

	cursor, err := r.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var ads []models.Ad
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

// Page returns one page of ads matching the filter, newest first, owner
// joined, along with the total match count.
func (r *AdRepo) Page(ctx context.Context, filter bson.M, page, pageSize int) ([]models.AdWithOwner, int64, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		bson.D{{Key: "$skip", Value: (page - 1) * pageSize}},
		bson.D{{Key: "$limit", Value: pageSize}},
	}
	pipeline = append(pipeline, ownerLookupStages()...)

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var ads []models.AdWithOwner
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

// ownerLookupStages joins the poster's public profile as "owner" and strips
// the map reference plus the owner's private fields.
func ownerLookupStages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "postedBy",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"googleMap":                0,
			"owner.password":           0,
			"owner.role":               0,
			"owner.wishlist":           0,
			"owner.enquiredProperties": 0,
			"owner.address":            0,
			"owner.about":              0,
			"owner.createdAt":          0,
			"owner.updatedAt":          0,
		}}},
	}
}
