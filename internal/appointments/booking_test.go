package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-booking/backend/internal/models"
)

type fakeOrgSource struct {
	org *models.Organization
}

func (f *fakeOrgSource) GetBySlug(_ context.Context, slug string) (*models.Organization, error) {
	if f.org == nil || f.org.Slug != slug {
		return nil, pgx.ErrNoRows
	}
	return f.org, nil
}

type fakeCustomerStore struct {
	byPhone    *models.Customer
	byPhoneErr error
	created    []*models.Customer
}

func (f *fakeCustomerStore) GetByPhone(_ context.Context, _ uuid.UUID, _ string) (*models.Customer, error) {
	if f.byPhoneErr != nil {
		return nil, f.byPhoneErr
	}
	if f.byPhone == nil {
		return nil, pgx.ErrNoRows
	}
	return f.byPhone, nil
}

func (f *fakeCustomerStore) Create(_ context.Context, cu *models.Customer) error {
	cu.ID = uuid.New()
	f.created = append(f.created, cu)
	return nil
}

type fakeServiceLister struct {
	svc *models.Service
}

func (f *fakeServiceLister) GetByID(_ context.Context, _, id uuid.UUID) (*models.Service, error) {
	if f.svc == nil || f.svc.ID != id {
		return nil, pgx.ErrNoRows
	}
	return f.svc, nil
}

func (f *fakeServiceLister) List(_ context.Context, _ uuid.UUID, _ bool) ([]models.Service, error) {
	if f.svc == nil {
		return nil, nil
	}
	return []models.Service{*f.svc}, nil
}

type fakeStaffLister struct {
	member *models.StaffMember
}

func (f *fakeStaffLister) GetByID(_ context.Context, _, id uuid.UUID) (*models.StaffMember, error) {
	if f.member == nil || f.member.ID != id {
		return nil, pgx.ErrNoRows
	}
	return f.member, nil
}

func (f *fakeStaffLister) List(_ context.Context, _ uuid.UUID, _ bool) ([]models.StaffMember, error) {
	if f.member == nil {
		return nil, nil
	}
	return []models.StaffMember{*f.member}, nil
}

func bookingFixture() (*fakeOrgSource, *fakeServiceLister, *fakeStaffLister, BookRequest) {
	org := &models.Organization{ID: uuid.New(), Name: "Aura Salon", Slug: "aura-salon", Timezone: "UTC"}
	svc := &models.Service{ID: uuid.New(), OrganizationID: org.ID, Name: "Haircut", DurationMinutes: 30, Active: true}
	member := &models.StaffMember{ID: uuid.New(), OrganizationID: org.ID, DisplayName: "Dana", Active: true}
	req := BookRequest{
		CustomerName: "Sam Walker",
		Phone:        "+15551230001",
		ServiceID:    svc.ID,
		StaffID:      member.ID,
		StartsAt:     time.Now().Add(48 * time.Hour).UTC(),
	}
	return &fakeOrgSource{org: org}, &fakeServiceLister{svc: svc}, &fakeStaffLister{member: member}, req
}

func postBooking(t *testing.T, h *PublicHandler, slug string, body BookRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/book/:slug", h.Book)

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/book/"+slug, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestBookCustomerLookupFailureIsServerError(t *testing.T) {
	orgs, services, staff, body := bookingFixture()
	customers := &fakeCustomerStore{byPhoneErr: errors.New("connection refused")}
	h := NewPublicHandler(nil, orgs, customers, services, staff, nil, nil, nil)

	w := postBooking(t, h, "aura-salon", body)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if len(customers.created) != 0 {
		t.Errorf("customer must not be created when the lookup fails, got %d", len(customers.created))
	}
}

func TestBookUnknownSlugIsNotFound(t *testing.T) {
	orgs, services, staff, body := bookingFixture()
	customers := &fakeCustomerStore{}
	h := NewPublicHandler(nil, orgs, customers, services, staff, nil, nil, nil)

	w := postBooking(t, h, "no-such-salon", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestBookInvalidPhoneIsRejected(t *testing.T) {
	orgs, services, staff, body := bookingFixture()
	body.Phone = "not a number"
	customers := &fakeCustomerStore{}
	h := NewPublicHandler(nil, orgs, customers, services, staff, nil, nil, nil)

	w := postBooking(t, h, "aura-salon", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(customers.created) != 0 {
		t.Errorf("customer must not be created for an invalid phone")
	}
}
