package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openhaus-dev/openhaus/backend/mailer"
	"github.com/openhaus-dev/openhaus/backend/models"
	"github.com/openhaus-dev/openhaus/backend/repository"
	"github.com/openhaus-dev/openhaus/backend/storage"
	"github.com/openhaus-dev/openhaus/backend/utils"
)

const relatedLimit = 3

// AdController orchestrates the listing workflow: geocode-then-persist
// creation, owner-gated mutation, geo search, and the paginated browses.
type AdController struct {
	Ads    AdStore
	Users  UserStore
	Geo    Geocoder
	Images ImageStore
	Mail   Mailer
	Cache  *redis.Client
}

type adPayload struct {
	Photos       []models.Photo `json:"photos"`
	Description  string         `json:"description"`
	Address      string         `json:"address"`
	PropertyType string         `json:"propertyType"`
	Price        float64        `json:"price"`
	Landsize     float64        `json:"landsize"`
	LandsizeType string         `json:"landsizetype"`
	Action       string         `json:"action"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
}

// missingField returns the first required field absent from the payload, in
// the fixed validation order. Land listings additionally require a land size
// and its unit.
func missingField(p *adPayload) string {
	switch {
	case len(p.Photos) == 0:
		return "Photo"
	case p.Price == 0:
		return "Price"
	case p.Address == "":
		return "Address"
	case p.PropertyType == "":
		return "Property type"
	case p.Action == "":
		return "Action"
	case p.Description == "":
		return "Description"
	}
	if p.PropertyType == "Land" {
		if p.Landsize == 0 {
			return "Land size"
		}
		if p.LandsizeType == "" {
			return "Land size type"
		}
	}
	return ""
}

func (c *AdController) CreateAd(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p adPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if field := missingField(&p); field != "" {
		writeError(w, http.StatusBadRequest, field+" is required")
		return
	}

	place, err := c.Geo.Geocode(r.Context(), p.Address)
	if err != nil {
		log.Printf("Geocoding error for %q: %v", p.Address, err)
		writeError(w, http.StatusBadRequest, "Please enter a valid address")
		return
	}

	ad := models.Ad{
		Slug:         utils.AdSlug(p.PropertyType, p.Action, p.Address, p.Price),
		Photos:       p.Photos,
		Description:  p.Description,
		Address:      p.Address,
		PropertyType: p.PropertyType,
		Price:        p.Price,
		Action:       p.Action,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Landsize:     p.Landsize,
		LandsizeType: p.LandsizeType,
		Location:     place.Location,
		GoogleMap:    place,
		PostedBy:     uid,
	}

	if err := c.Ads.Insert(r.Context(), &ad); err != nil {
		log.Printf("Ad insert failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create ad. Please try again later!")
		return
	}

	// Best-effort role grant; the ad stays even if this fails.
	if err := c.Users.AddRole(r.Context(), uid, models.RoleSeller); err != nil {
		log.Printf("Granting Seller role to %s failed: %v", uid.Hex(), err)
	}

	go invalidateSearchCache(c.Cache)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "ad": ad})
}

func (c *AdController) Read(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ad, err := c.Ads.FindBySlugWithOwner(r.Context(), slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch. Try again.")
		return
	}

	related, err := c.Ads.Related(r.Context(), &ad.Ad, relatedLimit)
	if err != nil {
		log.Printf("Error fetching related ads for %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch. Try again.")
		return
	}
	if related == nil {
		related = []models.AdWithOwner{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ad": ad, "related": related})

	// Detached from the request lifecycle: the response above is already
	// written and must not wait on or fail with this write.
	adID := ad.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ads.IncrementViews(ctx, adID); err != nil {
			log.Printf("Error incrementing view count for %s: %v", slug, err)
		}
	}()
}

func (c *AdController) UpdateAd(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}
	slug := mux.Vars(r)["slug"]

	var p adPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if field := missingField(&p); field != "" {
		writeError(w, http.StatusBadRequest, field+" is required")
		return
	}

	ad, err := c.Ads.FindBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to update ad. Please try again later!")
		return
	}

	if ad.PostedBy != uid {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	place, err := c.Geo.Geocode(r.Context(), p.Address)
	if err != nil {
		log.Printf("Geocoding error for %q: %v", p.Address, err)
		writeError(w, http.StatusBadRequest, "Please enter a valid address")
		return
	}

	// The slug is re-derived on every update, address changed or not. Links
	// to the old slug go stale; accepted behavior.
	set := bson.M{
		"slug":         utils.AdSlug(p.PropertyType, p.Action, p.Address, p.Price),
		"photos":       p.Photos,
		"description":  p.Description,
		"address":      p.Address,
		"propertyType": p.PropertyType,
		"price":        p.Price,
		"action":       p.Action,
		"bedrooms":     p.Bedrooms,
		"bathrooms":    p.Bathrooms,
		"landsize":     p.Landsize,
		"landsizetype": p.LandsizeType,
		"location":     place.Location,
		"googleMap":    place,
	}

	if _, err := c.Ads.UpdateBySlug(r.Context(), slug, set); err != nil {
		log.Printf("Ad update failed for %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to update ad. Please try again later!")
		return
	}

	go invalidateSearchCache(c.Cache)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (c *AdController) DeleteAd(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}
	slug := mux.Vars(r)["slug"]

	ad, err := c.Ads.FindBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete ad. Please try again later!")
		return
	}

	if ad.PostedBy != uid {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Wishlists and enquiry lists are not cascaded; stale references drop
	// out of $in queries on read.
	if _, err := c.Ads.DeleteBySlug(r.Context(), slug); err != nil {
		log.Printf("Ad delete failed for %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete ad. Please try again later!")
		return
	}

	go invalidateSearchCache(c.Cache)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (c *AdController) AdsForSell(w http.ResponseWriter, r *http.Request) {
	c.listPage(w, r, bson.M{"action": "Sell"})
}

func (c *AdController) AdsForRent(w http.ResponseWriter, r *http.Request) {
	c.listPage(w, r, bson.M{"action": "Rent"})
}

func (c *AdController) UserAds(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}
	c.listPage(w, r, bson.M{"postedBy": uid})
}

func (c *AdController) UserWishlist(w http.ResponseWriter, r *http.Request) {
	c.listFromUserSet(w, r, func(u *models.User) []primitive.ObjectID { return u.Wishlist })
}

func (c *AdController) EnquiredAds(w http.ResponseWriter, r *http.Request) {
	c.listFromUserSet(w, r, func(u *models.User) []primitive.ObjectID { return u.EnquiredProperties })
}

func (c *AdController) listFromUserSet(w http.ResponseWriter, r *http.Request, pick func(*models.User) []primitive.ObjectID) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	user, err := c.Users.FindByID(r.Context(), uid)
	if err != nil {
		log.Printf("Error fetching user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch. Try again.")
		return
	}

	ids := pick(user)
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	c.listPage(w, r, bson.M{"_id": bson.M{"$in": ids}})
}

func (c *AdController) listPage(w http.ResponseWriter, r *http.Request, filter bson.M) {
	page := pageFromRequest(r)

	ads, total, err := c.Ads.Page(r.Context(), filter, page, pageSize)
	if err != nil {
		log.Printf("Error fetching ads with filter %+v: %v", filter, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch. Try again.")
		return
	}
	if ads == nil {
		ads = []models.AdWithOwner{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ads":        ads,
		"page":       page,
		"totalPages": totalPages(total),
	})
}

type searchPayload struct {
	Address      string `json:"address"`
	Action       string `json:"action"`
	PropertyType string `json:"propertyType"`
	Bedrooms     string `json:"bedrooms"`
	Bathrooms    string `json:"bathrooms"`
	Price        string `json:"price"`
	Page         int    `json:"page"`
}

func (c *AdController) SearchAds(w http.ResponseWriter, r *http.Request) {
	var p searchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(p.Address) == "" {
		writeError(w, http.StatusBadRequest, "Address is required")
		return
	}
	if p.Page < 1 {
		p.Page = 1
	}

	cacheKey := searchCacheKey(p)
	if body, ok := cacheGet(r.Context(), c.Cache, cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	}

	place, err := c.Geo.Geocode(r.Context(), p.Address)
	if err != nil {
		log.Printf("Geocoding error for %q: %v", p.Address, err)
		writeError(w, http.StatusBadRequest, "Please enter a valid address")
		return
	}

	q := repository.SearchQuery{
		Lng:          place.Location.Coordinates[0],
		Lat:          place.Location.Coordinates[1],
		Action:       p.Action,
		PropertyType: p.PropertyType,
		Page:         p.Page,
		PageSize:     pageSize,
	}
	if p.Bedrooms != "" && p.Bedrooms != "All" {
		if n, err := strconv.Atoi(p.Bedrooms); err == nil {
			q.Bedrooms = &n
		}
	}
	if p.Bathrooms != "" && p.Bathrooms != "All" {
		if n, err := strconv.Atoi(p.Bathrooms); err == nil {
			q.Bathrooms = &n
		}
	}
	// Non-numeric price values ("All", empty) mean no price filter.
	if price, err := strconv.ParseFloat(p.Price, 64); err == nil {
		q.Price = &price
	}

	ads, total, err := c.Ads.Search(r.Context(), q)
	if err != nil {
		log.Printf("Search failed for %q: %v", p.Address, err)
		writeError(w, http.StatusInternalServerError, "Failed to search ads. Try again.")
		return
	}
	if ads == nil {
		ads = []models.Ad{}
	}

	body, err := json.Marshal(map[string]interface{}{
		"ads":        ads,
		"total":      total,
		"page":       p.Page,
		"totalPages": totalPages(total),
	})
	if err != nil {
		log.Printf("Failed to serialize search response: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to search ads. Try again.")
		return
	}

	cacheSet(r.Context(), c.Cache, cacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (c *AdController) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	adID, err := primitive.ObjectIDFromHex(mux.Vars(r)["adId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ad ID")
		return
	}

	user, err := c.Users.FindByID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error fetching user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Failed to update wishlist. Try again.")
		return
	}

	var updated *models.User
	var message string
	if user.InWishlist(adID) {
		updated, err = c.Users.RemoveFromWishlist(r.Context(), uid, adID)
		message = "Ad removed from wishlist"
	} else {
		updated, err = c.Users.AddToWishlist(r.Context(), uid, adID)
		message = "Ad added to wishlist"
	}
	if err != nil {
		log.Printf("Wishlist toggle failed for user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Failed to update wishlist. Try again.")
		return
	}

	wishlist := updated.Wishlist
	if wishlist == nil {
		wishlist = []primitive.ObjectID{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  message,
		"wishlist": wishlist,
	})
}

func (c *AdController) UpdateAdStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}
	slug := mux.Vars(r)["slug"]

	var p struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ad, err := c.Ads.FindBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to update ad status. Please try again later")
		return
	}

	if ad.PostedBy != uid {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := c.Ads.SetStatus(r.Context(), slug, p.Status); err != nil {
		log.Printf("Status update failed for %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Failed to update ad status. Please try again later")
		return
	}

	go invalidateSearchCache(c.Cache)

	ad.Status = p.Status
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "ad": ad})
}

// TogglePublished flips the published flag. Ownership is required here just
// like every other listing mutation.
func (c *AdController) TogglePublished(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	adID, err := primitive.ObjectIDFromHex(mux.Vars(r)["adId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ad ID")
		return
	}

	ad, err := c.Ads.FindByID(r.Context(), adID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", adID.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Failed to update published status. Try again.")
		return
	}

	if ad.PostedBy != uid {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	updated, err := c.Ads.SetPublished(r.Context(), adID, !ad.Published)
	if err != nil {
		log.Printf("Publish toggle failed for %s: %v", adID.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Failed to update published status. Try again.")
		return
	}

	go invalidateSearchCache(c.Cache)

	message := "Ad published"
	if !updated.Published {
		message = "Ad unpublished"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"ad":      updated,
	})
}

type contactPayload struct {
	AdID    string `json:"adId"`
	Message string `json:"message"`
}

func (c *AdController) ContactAgent(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p contactPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	adID, err := primitive.ObjectIDFromHex(p.AdID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ad ID")
		return
	}

	ad, err := c.Ads.FindByID(r.Context(), adID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, "Ad not found")
			return
		}
		log.Printf("Error fetching ad %s: %v", p.AdID, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	owner, err := c.Users.FindByID(r.Context(), ad.PostedBy)
	if err != nil {
		log.Printf("Error fetching owner %s of ad %s: %v", ad.PostedBy.Hex(), ad.Slug, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	caller, err := c.Users.FindByID(r.Context(), uid)
	if err != nil {
		log.Printf("Error fetching user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if err := c.Users.AddEnquired(r.Context(), uid, ad.ID); err != nil {
		log.Printf("Recording enquiry for user %s failed: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	// The enquiry record above stays committed even when delivery fails.
	err = c.Mail.SendEnquiry(r.Context(), mailer.Enquiry{
		AgentName:    owner.Name,
		AgentEmail:   owner.Email,
		FromName:     caller.Name,
		FromEmail:    caller.Email,
		FromPhone:    caller.Phone,
		AdSlug:       ad.Slug,
		PropertyType: ad.PropertyType,
		Action:       ad.Action,
		Address:      ad.Address,
		Price:        utils.FormatPrice(ad.Price),
		Message:      p.Message,
	})
	if err != nil {
		log.Printf("Enquiry email to %s failed: %v", owner.Email, err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (c *AdController) UploadImage(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "No image files provided")
		return
	}

	var files []storage.Image
	if r.MultipartForm != nil {
		for _, headers := range r.MultipartForm.File {
			for _, hdr := range headers {
				f, err := hdr.Open()
				if err != nil {
					log.Printf("Error opening uploaded file %s: %v", hdr.Filename, err)
					writeError(w, http.StatusInternalServerError, "Error processing image uploads")
					return
				}
				data, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					log.Printf("Error reading uploaded file %s: %v", hdr.Filename, err)
					writeError(w, http.StatusInternalServerError, "Error processing image uploads")
					return
				}
				files = append(files, storage.Image{
					Data:        data,
					ContentType: hdr.Header.Get("Content-Type"),
				})
			}
		}
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No image files provided")
		return
	}

	photos, err := c.Images.UploadAll(r.Context(), files, uid)
	if err != nil {
		log.Printf("Image upload failed for user %s: %v", uid.Hex(), err)
		writeError(w, http.StatusInternalServerError, "Error processing image uploads")
		return
	}

	writeJSON(w, http.StatusOK, photos)
}

func (c *AdController) RemoveImage(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User ID missing in context")
		return
	}

	var p struct {
		Key        string `json:"Key"`
		UploadedBy string `json:"uploadedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if p.UploadedBy != uid.Hex() {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := c.Images.Delete(r.Context(), p.Key); err != nil {
		log.Printf("Error removing image %s: %v", p.Key, err)
		writeError(w, http.StatusInternalServerError, "Error removing image, Try Again!")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
