package controllers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openhaus-dev/openhaus/backend/mailer"
	"github.com/openhaus-dev/openhaus/backend/models"
	"github.com/openhaus-dev/openhaus/backend/repository"
	"github.com/openhaus-dev/openhaus/backend/storage"
)

type fakeAdStore struct {
	ads map[string]*models.Ad

	inserted  []*models.Ad
	insertErr error

	updatedSets   []bson.M
	deletedSlugs  []string
	statusSet     map[string]string
	publishedSet  map[primitive.ObjectID]bool
	relatedCalled *models.Ad
	related       []models.AdWithOwner

	searchQuery *repository.SearchQuery
	searchAds   []models.Ad
	searchTotal int64

	pageFilter bson.M
	pagePage   int
	pageAds    []models.AdWithOwner
	pageTotal  int64

	views chan primitive.ObjectID
}

func newFakeAdStore() *fakeAdStore {
	return &fakeAdStore{
		ads:          map[string]*models.Ad{},
		statusSet:    map[string]string{},
		publishedSet: map[primitive.ObjectID]bool{},
		views:        make(chan primitive.ObjectID, 8),
	}
}

func (s *fakeAdStore) add(ad *models.Ad) *models.Ad {
	if ad.ID.IsZero() {
		ad.ID = primitive.NewObjectID()
	}
	s.ads[ad.Slug] = ad
	return ad
}

func (s *fakeAdStore) Insert(ctx context.Context, ad *models.Ad) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.add(ad)
	s.inserted = append(s.inserted, ad)
	return nil
}

func (s *fakeAdStore) FindBySlug(ctx context.Context, slug string) (*models.Ad, error) {
	ad, ok := s.ads[slug]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return ad, nil
}

func (s *fakeAdStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ad, error) {
	for _, ad := range s.ads {
		if ad.ID == id {
			return ad, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeAdStore) FindBySlugWithOwner(ctx context.Context, slug string) (*models.AdWithOwner, error) {
	ad, ok := s.ads[slug]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &models.AdWithOwner{Ad: *ad}, nil
}

func (s *fakeAdStore) UpdateBySlug(ctx context.Context, slug string, set bson.M) (bool, error) {
	_, ok := s.ads[slug]
	if ok {
		s.updatedSets = append(s.updatedSets, set)
	}
	return ok, nil
}

func (s *fakeAdStore) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	_, ok := s.ads[slug]
	if ok {
		delete(s.ads, slug)
		s.deletedSlugs = append(s.deletedSlugs, slug)
	}
	return ok, nil
}

func (s *fakeAdStore) SetStatus(ctx context.Context, slug, status string) error {
	s.statusSet[slug] = status
	return nil
}

func (s *fakeAdStore) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (*models.Ad, error) {
	s.publishedSet[id] = published
	for _, ad := range s.ads {
		if ad.ID == id {
			ad.Published = published
			return ad, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeAdStore) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	s.views <- id
	return nil
}

func (s *fakeAdStore) Related(ctx context.Context, ad *models.Ad, limit int) ([]models.AdWithOwner, error) {
	s.relatedCalled = ad
	return s.related, nil
}

func (s *fakeAdStore) Search(ctx context.Context, q repository.SearchQuery) ([]models.Ad, int64, error) {
	s.searchQuery = &q
	return s.searchAds, s.searchTotal, nil
}

func (s *fakeAdStore) Page(ctx context.Context, filter bson.M, page, pageSize int) ([]models.AdWithOwner, int64, error) {
	s.pageFilter = filter
	s.pagePage = page
	return s.pageAds, s.pageTotal, nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User

	roleGrants []string
	enquired   []primitive.ObjectID
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[primitive.ObjectID]*models.User{}}
}

func (s *fakeUserStore) add(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeUserStore) Insert(ctx context.Context, user *models.User) error {
	if len(user.Role) == 0 {
		user.Role = []string{models.RoleBuyer}
	}
	s.add(user)
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Password = hash
	return nil
}

func (s *fakeUserStore) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u.Username = username
	return u, nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if v, ok := fields["name"].(string); ok {
		u.Name = v
	}
	if v, ok := fields["phone"].(string); ok {
		u.Phone = v
	}
	return u, nil
}

func (s *fakeUserStore) AddRole(ctx context.Context, id primitive.ObjectID, role string) error {
	s.roleGrants = append(s.roleGrants, role)
	u, ok := s.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for _, have := range u.Role {
		if have == role {
			return nil
		}
	}
	u.Role = append(u.Role, role)
	return nil
}

func (s *fakeUserStore) AddEnquired(ctx context.Context, id, adID primitive.ObjectID) error {
	s.enquired = append(s.enquired, adID)
	u, ok := s.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for _, have := range u.EnquiredProperties {
		if have == adID {
			return nil
		}
	}
	u.EnquiredProperties = append(u.EnquiredProperties, adID)
	return nil
}

func (s *fakeUserStore) AddToWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if !u.InWishlist(adID) {
		u.Wishlist = append(u.Wishlist, adID)
	}
	return u, nil
}

func (s *fakeUserStore) RemoveFromWishlist(ctx context.Context, id, adID primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	kept := u.Wishlist[:0]
	for _, have := range u.Wishlist {
		if have != adID {
			kept = append(kept, have)
		}
	}
	u.Wishlist = kept
	return u, nil
}

type fakeGeocoder struct {
	calls  int
	result *models.MapRef
	err    error
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*models.MapRef, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		return g.result, nil
	}
	place := models.MapRef{
		PlaceID:          "test-place",
		FormattedAddress: address,
		Location:         models.NewGeoPoint(151.2093, -33.8688),
	}
	return &place, nil
}

type fakeMailer struct {
	welcomes  []string
	resets    map[string]string
	enquiries []mailer.Enquiry

	enquiryErr error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{resets: map[string]string{}}
}

func (m *fakeMailer) SendWelcome(ctx context.Context, to string) error {
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, tempPassword string) error {
	m.resets[to] = tempPassword
	return nil
}

func (m *fakeMailer) SendEnquiry(ctx context.Context, e mailer.Enquiry) error {
	if m.enquiryErr != nil {
		return m.enquiryErr
	}
	m.enquiries = append(m.enquiries, e)
	return nil
}

type fakeImageStore struct {
	uploads   [][]storage.Image
	deleted   []string
	photos    []models.Photo
	uploadErr error
}

func (s *fakeImageStore) UploadAll(ctx context.Context, files []storage.Image, uploadedBy primitive.ObjectID) ([]models.Photo, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads = append(s.uploads, files)
	return s.photos, nil
}

func (s *fakeImageStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}
