package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const androidFeed = `[
	{"app_id": "com.example.runner", "publisher_id": "pub-a", "name": "Runner", "os": "android",
	 "bundle_id": "com.example.runner", "version": "2.1", "release_date": "2019-01-02", "updated_date": "2021-05-06"},
	{"app_id": "com.example.puzzle", "publisher_id": "pub-b", "name": "Puzzle", "os": "android",
	 "bundle_id": "com.example.puzzle", "version": "1.0", "release_date": "2020-02-03", "updated_date": "2020-02-03"}
]`

const iosFeed = `[
	{"app_id": 1234567, "publisher_id": 998, "name": "Racer", "os": "ios",
	 "bundle_id": "com.example.racer", "version": "3.0.1", "release_date": "2018-07-08T00:00:00.000Z", "updated_date": "2022-01-01T10:00:00Z"}
]`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/android.json", func(w http.ResponseWriter, r *http.Request) {
		// S3 serves the feeds without a JSON content type
		w.Header().Set("Content-Type", "binary/octet-stream")
		w.Write([]byte(androidFeed))
	})
	mux.HandleFunc("/ios.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(iosFeed))
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": `))
	})
	mux.HandleFunc("/slow.json", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.Write([]byte(`[]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Success(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(5 * time.Second)

	records, err := client.Fetch(context.Background(), srv.URL+"/android.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if *records[0].Name != "Runner" || *records[1].Name != "Puzzle" {
		t.Errorf("unexpected records: %s, %s", *records[0].Name, *records[1].Name)
	}
}

func TestFetch_NumericIdentifiers(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(5 * time.Second)

	records, err := client.Fetch(context.Background(), srv.URL+"/ios.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if records[0].AppID.String() != "1234567" {
		t.Errorf("expected app_id 1234567, got %s", records[0].AppID)
	}
	if records[0].PublisherID.String() != "998" || !records[0].PublisherID.Numeric {
		t.Errorf("expected numeric publisher_id 998, got %+v", records[0].PublisherID)
	}
}

func TestFetch_Errors(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(5 * time.Second)

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "not found", url: srv.URL + "/missing.json", wantErr: "status=404"},
		{name: "invalid json", url: srv.URL + "/broken.json", wantErr: "decoding"},
		{name: "transport error", url: "http://127.0.0.1:1/feed.json", wantErr: "fetching"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Fetch(context.Background(), tt.url)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFetchAll_ConcatenatesInURLOrder(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(5 * time.Second)

	records, err := client.FetchAll(context.Background(), srv.URL+"/android.json", srv.URL+"/ios.json")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	want := []string{"Runner", "Puzzle", "Racer"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, name := range want {
		if *records[i].Name != name {
			t.Errorf("record %d: expected %s, got %s", i, name, *records[i].Name)
		}
	}
}

func TestFetchAll_FailsFast(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(10 * time.Second)

	start := time.Now()
	_, err := client.FetchAll(context.Background(), srv.URL+"/slow.json", srv.URL+"/broken.json")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("expected the failing fetch to cancel the slow one, took %v", elapsed)
	}
}
