package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/openhaus-dev/openhaus/backend/mailer"
	"github.com/openhaus-dev/openhaus/backend/models"
	"github.com/openhaus-dev/openhaus/backend/repository"
	"github.com/openhaus-dev/openhaus/backend/storage"
)

type ContextKey string

const UserIDKey = ContextKey("userID")

// pageSize is the fixed page length shared by every list endpoint.
const pageSize = 2

// AdStore is the listing repository as the workflow layer sees it.
// repository.AdRepo implements it; tests substitute fakes.
type AdStore interface {
	Insert(ctx context.Context, ad *models.Ad) error
	FindBySlug(ctx context.Context, slug string) (*models.Ad, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ad, error)
	FindBySlugWithOwner(ctx context.Context, slug string) (*models.AdWithOwner, error)
	UpdateBySlug(ctx context.Context, slug string, set bson.M) (bool, error)
	DeleteBySlug(ctx context.Context, slug string) (bool, error)
	SetStatus(ctx context.Context, slug, status string) error
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (*models.Ad, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Related(ctx context.Context, ad *models.Ad, limit int) ([]models.AdWithOwner, error)
	Search(ctx context.Context, q repository.SearchQuery) ([]models.Ad, int64, error)
	Page(ctx context.Context, filter bson.M, page, pageSize int) ([]models.AdWithOwner, int64, error)
}

// UserStore is the account repository as the workflow layer sees it.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
	AddRole(ctx context.Context, id primitive.ObjectID, role string) error
	AddEnquired(ctx context.Context, id, adID primitive.ObjectID) error
	AddToWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error)
	RemoveFromWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error)
}

// Geocoder resolves free-text addresses. geocode.GoogleGeocoder implements it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.MapRef, error)
}

// ImageStore holds resized listing photos. storage.Uploader implements it.
type ImageStore interface {
	UploadAll(ctx context.Context, files []storage.Image, uploadedBy primitive.ObjectID) ([]models.Photo, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers transactional email. mailer.SESMailer implements it.
type Mailer interface {
	SendWelcome(ctx context.Context, to string) error
	SendPasswordReset(ctx context.Context, to, tempPassword string) error
	SendEnquiry(ctx context.Context, e mailer.Enquiry) error
}

func callerID(r *http.Request) (primitive.ObjectID, bool) {
	hex, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		log.Printf("Invalid user ID in context: %q", hex)
		return primitive.NilObjectID, false
	}
	return id, true
}

func pageFromRequest(r *http.Request) int {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func totalPages(total int64) int {
	return int((total + pageSize - 1) / pageSize)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
