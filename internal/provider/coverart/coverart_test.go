package coverart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jazzvault/JazzVault/internal/cache"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(cache.NewMemStore())
	c.SetBaseURL(srv.URL)
	c.doer.BaseBackoff = 0
	return c
}

func TestReleaseImages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release/rel1/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"images":[
			{"id":123,"image":"http://archive.example/img/123.jpg","types":["Front"],
			 "thumbnails":{"small":"http://archive.example/img/123-250.jpg","500":"http://archive.example/img/123-500.jpg","large":"http://archive.example/img/123-1200.jpg"}},
			{"id":124,"image":"https://archive.example/img/124.jpg","types":["Back"],
			 "thumbnails":{"small":"https://archive.example/img/124-250.jpg","large":"https://archive.example/img/124-1200.jpg"}},
			{"id":125,"image":"https://archive.example/img/125.jpg","types":["Booklet"],"thumbnails":{}}
		]}`))
	}))

	res, err := c.ReleaseImages(context.Background(), "rel1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Checked {
		t.Error("result not marked checked")
	}
	// The booklet image is dropped; only front/back survive.
	if len(res.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(res.Images))
	}

	front := res.Images[0]
	if !front.Front || front.Back {
		t.Errorf("first image types = front:%v back:%v", front.Front, front.Back)
	}
	if front.SourceID != "123" {
		t.Errorf("source id = %q", front.SourceID)
	}
	// http links are upgraded to https.
	if front.SourceURL != "https://archive.example/img/123.jpg" {
		t.Errorf("source url = %q", front.SourceURL)
	}
	if front.MediumURL != "https://archive.example/img/123-500.jpg" {
		t.Errorf("medium url = %q", front.MediumURL)
	}

	back := res.Images[1]
	if !back.Back {
		t.Error("second image should be a back cover")
	}
	// With no 500px thumbnail, medium falls back to large.
	if back.MediumURL != "https://archive.example/img/124-1200.jpg" {
		t.Errorf("back medium url = %q", back.MediumURL)
	}
}

func TestReleaseImagesNoneIsCheckedNotError(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 2; i++ {
		res, err := c.ReleaseImages(context.Background(), "bare")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Checked || len(res.Images) != 0 {
			t.Errorf("result = %+v, want checked and empty", res)
		}
	}
	// The 404 is cached negatively; the repeat poll stays off the network.
	if calls != 1 {
		t.Errorf("network calls = %d, want 1", calls)
	}
}

func TestReleaseImagesFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/release/rel2/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/index/rel2.json", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/index/rel2.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images":[{"id":1,"image":"https://a/i.jpg","types":["Front"],"thumbnails":{"small":"https://a/i-s.jpg"}}]}`))
	})
	c := newTestClient(t, mux)

	res, err := c.ReleaseImages(context.Background(), "rel2")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(res.Images))
	}
}
