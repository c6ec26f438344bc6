package summary

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReadRemoteFirstCandidateServed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pkg_summary.txt" {
			w.Write([]byte("PKGNAME=foo-1.0\nPKGPATH=category/foo\n"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sum, err := ReadRemote(srv.URL)
	if err != nil {
		t.Fatalf("ReadRemote: %v", err)
	}
	if len(sum) != 1 {
		t.Fatalf("got %d records, want 1", len(sum))
	}
}

func TestReadRemoteAllCandidatesUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := ReadRemote(srv.URL)
	if err == nil {
		t.Fatal("expected error when no candidate is available")
	}
}
