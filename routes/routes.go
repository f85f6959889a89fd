package routes

import (
	"github.com/gorilla/mux"

	"github.com/openhaus-dev/openhaus/backend/controllers"
	"github.com/openhaus-dev/openhaus/backend/middleware"
)

func Routes(router *mux.Router, ad *controllers.AdController, auth *controllers.AuthController, jwtSecret []byte) {
	// Auth routes
	router.HandleFunc("/register", auth.Register).Methods("POST")
	router.HandleFunc("/login", auth.Login).Methods("POST")
	router.HandleFunc("/forgot-password", auth.ForgotPassword).Methods("POST")

	// Public listing routes
	router.HandleFunc("/ad/{slug}", ad.Read).Methods("GET")
	router.HandleFunc("/ads-for-sell/{page}", ad.AdsForSell).Methods("GET")
	router.HandleFunc("/ads-for-rent/{page}", ad.AdsForRent).Methods("GET")
	router.HandleFunc("/search-ads", ad.SearchAds).Methods("POST")

	// Routes that require authentication
	authenticated := router.PathPrefix("/api").Subrouter()
	authenticated.Use(middleware.Auth(jwtSecret))

	// Account routes
	authenticated.HandleFunc("/current-user", auth.CurrentUser).Methods("GET")
	authenticated.HandleFunc("/update-password", auth.UpdatePassword).Methods("PUT")
	authenticated.HandleFunc("/update-username", auth.UpdateUsername).Methods("PUT")
	authenticated.HandleFunc("/update-profile", auth.UpdateProfile).Methods("PUT")

	// Image routes
	authenticated.HandleFunc("/upload-image", ad.UploadImage).Methods("POST")
	authenticated.HandleFunc("/remove-image", ad.RemoveImage).Methods("POST")

	// Listing routes
	authenticated.HandleFunc("/create-ad", ad.CreateAd).Methods("POST")
	authenticated.HandleFunc("/update-ad/{slug}", ad.UpdateAd).Methods("PUT")
	authenticated.HandleFunc("/delete-ad/{slug}", ad.DeleteAd).Methods("DELETE")
	authenticated.HandleFunc("/update-ad-status/{slug}", ad.UpdateAdStatus).Methods("PUT")
	authenticated.HandleFunc("/toggle-published/{adId}", ad.TogglePublished).Methods("PUT")
	authenticated.HandleFunc("/user-ads/{page}", ad.UserAds).Methods("GET")

	// Wishlist and enquiry routes
	authenticated.HandleFunc("/toggle-wishlist/{adId}", ad.ToggleWishlist).Methods("PUT")
	authenticated.HandleFunc("/wishlist/{page}", ad.UserWishlist).Methods("GET")
	authenticated.HandleFunc("/contact-agent", ad.ContactAgent).Methods("POST")
	authenticated.HandleFunc("/enquired-ads/{page}", ad.EnquiredAds).Methods("GET")
}
