package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRun(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ok.Close()
	if code := run(ok.URL + "/healthz"); code != 0 {
		t.Errorf("healthy server exit = %d", code)
	}
	if code := run(ok.URL + "/other"); code != 1 {
		t.Errorf("404 exit = %d", code)
	}
	ok.Close()
	if code := run(ok.URL + "/healthz"); code != 1 {
		t.Errorf("closed server exit = %d", code)
	}
}

func TestTarget(t *testing.T) {
	t.Setenv("HEALTHCHECK_URL", "")
	t.Setenv("HTTP_ADDR", ":9090")
	if got := target(); got != "http://localhost:9090/healthz" {
		t.Errorf("target = %q", got)
	}
	t.Setenv("HEALTHCHECK_URL", "http://bot:8080/healthz")
	if got := target(); got != "http://bot:8080/healthz" {
		t.Errorf("override = %q", got)
	}
}
