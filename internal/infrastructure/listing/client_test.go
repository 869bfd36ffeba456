package listing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-service/internal/domain"
)

func TestFetchAllListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/listings/" {
			t.Errorf("path = %s, want /api/listings/", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"L1","name":"silver spoon","assessed_price":40,"category":"Silver","seller_id":"S1"},
			{"id":"L2","name":"oil painting","assessed_price":900,"category":"Painting","seller_id":"S2"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	listings, err := client.FetchAllListings(context.Background())
	if err != nil {
		t.Fatalf("FetchAllListings: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].ID != "L1" || listings[0].AssessedPrice != 40 {
		t.Fatalf("first listing = %+v", listings[0])
	}
}

func TestFetchAllListingsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchAllListings(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchAllListingsUnreachable(t *testing.T) {
	// Nothing listens here.
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.FetchAllListings(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchAllListingsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchAllListings(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
