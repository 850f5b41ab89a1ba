package services

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campusride/go-ride-backend/internal/domain"
	"github.com/campusride/go-ride-backend/internal/repo"
)

// ----- Fake ride repo -----

type fakeRideRepo struct {
	inserted *domain.Ride

	getRide *domain.Ride
	getErr  error

	listFrom, listTo string
	listItems        []domain.Ride

	searchFrom, searchTo string
	searchNow            time.Time

	creatorID    string
	creatorItems []domain.Ride

	byIDs      []string
	byIDsItems []domain.Ride

	deleteID  string
	deleteErr error
}

func (r *fakeRideRepo) InsertRide(ctx context.Context, db *mongo.Database, ride *domain.Ride) (*domain.Ride, error) {
	cp := *ride
	cp.ID = primitive.NewObjectID()
	r.inserted = &cp
	return &cp, nil
}

func (r *fakeRideRepo) GetRide(ctx context.Context, db *mongo.Database, id string) (*domain.Ride, error) {
	return r.getRide, r.getErr
}

func (r *fakeRideRepo) ListRides(ctx context.Context, db *mongo.Database, from, to string) ([]domain.Ride, error) {
	r.listFrom, r.listTo = from, to
	return r.listItems, nil
}

func (r *fakeRideRepo) SearchRides(ctx context.Context, db *mongo.Database, fromSub, toSub string, now time.Time) ([]domain.Ride, error) {
	r.searchFrom, r.searchTo, r.searchNow = fromSub, toSub, now
	return nil, nil
}

func (r *fakeRideRepo) ListRidesByCreator(ctx context.Context, db *mongo.Database, userID string) ([]domain.Ride, error) {
	r.creatorID = userID
	return r.creatorItems, nil
}

func (r *fakeRideRepo) RidesByIDs(ctx context.Context, db *mongo.Database, ids []string) ([]domain.Ride, error) {
	r.byIDs = ids
	return r.byIDsItems, nil
}

func (r *fakeRideRepo) DeleteRide(ctx context.Context, db *mongo.Database, id string) error {
	r.deleteID = id
	return r.deleteErr
}

// ----- Fake cascade -----

type fakeCascade struct {
	approvedUserID string
	approvedItems  []domain.JoinRequest

	cascadeRideID string
	cascadeCalls  int
}

func (c *fakeCascade) ListApprovedByRequester(ctx context.Context, db *mongo.Database, userID string) ([]domain.JoinRequest, error) {
	c.approvedUserID = userID
	return c.approvedItems, nil
}

func (c *fakeCascade) DeleteRequestsForRide(ctx context.Context, db *mongo.Database, rideID string) (int64, error) {
	c.cascadeRideID = rideID
	c.cascadeCalls++
	return int64(2), nil
}

// ----- Tests -----

func TestNewRideService_Defaults(t *testing.T) {
	r := &fakeRideRepo{}
	s := NewRideService(nil, r, &fakeCascade{})

	if s.ExpiryGrace != 2*time.Hour {
		t.Fatalf("ExpiryGrace default = %v, want 2h", s.ExpiryGrace)
	}
	if s.Rides == nil || s.Requests == nil {
		t.Fatalf("repos not wired")
	}
}

func TestCreate_DerivesExpiryOnce(t *testing.T) {
	r := &fakeRideRepo{}
	s := NewRideService(nil, r, &fakeCascade{})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	ist := time.FixedZone("IST", 5*3600+1800)
	departure := time.Date(2026, 3, 2, 18, 30, 0, 0, ist)

	got, err := s.Create(context.Background(), CreateRideInput{
		FromLocation:  "  North Campus ",
		ToLocation:    " Airport T2",
		DepartureTime: departure,
		Seats:         3,
		PricePerSeat:  250,
		CreatedBy:     "owner1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	wantDep := departure.UTC()
	if !got.DepartureTime.Equal(wantDep) {
		t.Fatalf("departure = %v, want %v (UTC)", got.DepartureTime, wantDep)
	}
	if !got.ExpiresAt.Equal(wantDep.Add(2 * time.Hour)) {
		t.Fatalf("expires_at = %v, want departure+2h", got.ExpiresAt)
	}
	if got.FromLocation != "North Campus" || got.ToLocation != "Airport T2" {
		t.Fatalf("locations not trimmed: %q → %q", got.FromLocation, got.ToLocation)
	}
	if !got.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}
}

func TestCreate_CustomGrace(t *testing.T) {
	r := &fakeRideRepo{}
	s := NewRideService(nil, r, &fakeCascade{})
	s.ExpiryGrace = 30 * time.Minute

	departure := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	got, err := s.Create(context.Background(), CreateRideInput{
		FromLocation:  "A",
		ToLocation:    "B",
		DepartureTime: departure,
		Seats:         1,
		CreatedBy:     "owner1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !got.ExpiresAt.Equal(departure.Add(30 * time.Minute)) {
		t.Fatalf("expires_at = %v, want departure+30m", got.ExpiresAt)
	}
}

func TestGet_NotFoundMapping(t *testing.T) {
	s := NewRideService(nil, &fakeRideRepo{getErr: repo.ErrNotFound}, &fakeCascade{})

	if _, err := s.Get(context.Background(), "not-a-hex-id"); err != ErrRideNotFound {
		t.Fatalf("err = %v, want ErrRideNotFound", err)
	}
}

func TestList_TrimsFilters(t *testing.T) {
	r := &fakeRideRepo{}
	s := NewRideService(nil, r, &fakeCascade{})

	if _, err := s.List(context.Background(), "  Library ", " Main Gate "); err != nil {
		t.Fatalf("List: %v", err)
	}
	if r.listFrom != "Library" || r.listTo != "Main Gate" {
		t.Fatalf("filters = %q/%q", r.listFrom, r.listTo)
	}
}

func TestSearch_PassesCutoff(t *testing.T) {
	r := &fakeRideRepo{}
	s := NewRideService(nil, r, &fakeCascade{})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if _, err := s.Search(context.Background(), "lib", "gate"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !r.searchNow.Equal(fixed) {
		t.Fatalf("cutoff = %v, want %v", r.searchNow, fixed)
	}
	if r.searchFrom != "lib" || r.searchTo != "gate" {
		t.Fatalf("substrings = %q/%q", r.searchFrom, r.searchTo)
	}
}

func TestDashboard_BatchesJoinedRides(t *testing.T) {
	created := []domain.Ride{{ID: primitive.NewObjectID(), CreatedBy: "u1"}}
	joinedID1 := primitive.NewObjectID().Hex()
	joinedID2 := primitive.NewObjectID().Hex()

	r := &fakeRideRepo{
		creatorItems: created,
		byIDsItems:   []domain.Ride{{FromLocation: "X"}},
	}
	c := &fakeCascade{approvedItems: []domain.JoinRequest{
		{RideID: joinedID1, RequesterID: "u1", Status: domain.RequestApproved},
		{RideID: joinedID2, RequesterID: "u1", Status: domain.RequestApproved},
	}}
	s := NewRideService(nil, r, c)

	gotCreated, gotJoined, err := s.Dashboard(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(gotCreated) != 1 || len(gotJoined) != 1 {
		t.Fatalf("created/joined = %d/%d", len(gotCreated), len(gotJoined))
	}
	if c.approvedUserID != "u1" || r.creatorID != "u1" {
		t.Fatalf("wrong identity threaded through")
	}
	if len(r.byIDs) != 2 || r.byIDs[0] != joinedID1 || r.byIDs[1] != joinedID2 {
		t.Fatalf("batch ids = %v", r.byIDs)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	ride := &domain.Ride{ID: primitive.NewObjectID(), CreatedBy: "owner1"}
	r := &fakeRideRepo{getRide: ride}
	c := &fakeCascade{}
	s := NewRideService(nil, r, c)

	if err := s.Delete(context.Background(), ride.ID.Hex(), "intruder"); err != ErrNotRideOwner {
		t.Fatalf("err = %v, want ErrNotRideOwner", err)
	}
	if r.deleteID != "" || c.cascadeCalls != 0 {
		t.Fatalf("no writes expected for non-owner")
	}
}

func TestDelete_CascadesRequests(t *testing.T) {
	ride := &domain.Ride{ID: primitive.NewObjectID(), CreatedBy: "owner1"}
	r := &fakeRideRepo{getRide: ride}
	c := &fakeCascade{}
	s := NewRideService(nil, r, c)

	if err := s.Delete(context.Background(), ride.ID.Hex(), "owner1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.deleteID != ride.ID.Hex() {
		t.Fatalf("deleted %q", r.deleteID)
	}
	if c.cascadeCalls != 1 || c.cascadeRideID != ride.ID.Hex() {
		t.Fatalf("cascade calls = %d for %q", c.cascadeCalls, c.cascadeRideID)
	}
}

func TestDelete_RideMissing(t *testing.T) {
	s := NewRideService(nil, &fakeRideRepo{getErr: repo.ErrNotFound}, &fakeCascade{})

	if err := s.Delete(context.Background(), "deadbeefdeadbeefdeadbeef", "owner1"); err != ErrRideNotFound {
		t.Fatalf("err = %v, want ErrRideNotFound", err)
	}
}
