package crawler

import (
	"sync"
	"testing"
)

func TestURLQueue_Add_NewURL(t *testing.T) {
	q := NewURLQueue()

	if !q.Add("https://example.com/page1", 0) {
		t.Error("Add() should return true for new URL")
	}
	if u, _, ok := q.Pop(); !ok || u != "https://example.com/page1" {
		t.Errorf("Pop() = %q, %v", u, ok)
	}
}

func TestURLQueue_Add_Equivalent(t *testing.T) {
	tests := []struct {
		first, second string
	}{
		{"https://example.com/page1", "https://example.com/page1"},
		{"https://example.com/page1", "https://example.com/page1#reviews"},
		{"https://example.com/shop/", "https://example.com/shop"},
		{"https://Example.com/shop", "https://example.com/shop"},
		{"https://example.com", "https://example.com/"},
	}
	for _, tt := range tests {
		q := NewURLQueue()
		q.Add(tt.first, 0)
		if q.Add(tt.second, 1) {
			t.Errorf("Add(%q) after %q should return false", tt.second, tt.first)
		}
	}
}

func TestURLQueue_Add_DistinctQueries(t *testing.T) {
	q := NewURLQueue()
	q.Add("https://example.com/shop?page=1", 0)
	if !q.Add("https://example.com/shop?page=2", 1) {
		t.Error("different query strings are different pages")
	}
}

func TestURLQueue_Add_InvalidURL(t *testing.T) {
	q := NewURLQueue()
	for _, raw := range []string{"", "/relative/only", "://bad"} {
		if q.Add(raw, 0) {
			t.Errorf("Add(%q) should return false", raw)
		}
	}
}

func TestURLQueue_PopOrder(t *testing.T) {
	q := NewURLQueue()
	q.Add("https://example.com/a", 1)
	q.Add("https://example.com/b", 2)

	u, d, ok := q.Pop()
	if !ok || u != "https://example.com/a" || d != 1 {
		t.Errorf("Pop() = %q, %d, %v", u, d, ok)
	}
	u, d, ok = q.Pop()
	if !ok || u != "https://example.com/b" || d != 2 {
		t.Errorf("Pop() = %q, %d, %v", u, d, ok)
	}
	if _, _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue should return false")
	}
	if q.Add("https://example.com/a/", 3) {
		t.Error("popped URLs stay visited")
	}
}

func TestURLQueue_MarkVisited(t *testing.T) {
	q := NewURLQueue()
	if !q.MarkVisited("https://example.com/p/1") {
		t.Error("MarkVisited() should report a new URL")
	}
	if q.MarkVisited("https://example.com/p/1#top") {
		t.Error("MarkVisited() should report a repeat")
	}
	if u, _, ok := q.Pop(); ok {
		t.Errorf("MarkVisited() must not queue, popped %q", u)
	}
}

func TestURLQueue_Concurrent(t *testing.T) {
	q := NewURLQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Add("https://example.com/same", 0)
		}()
	}
	wg.Wait()
	if _, _, ok := q.Pop(); !ok {
		t.Fatal("expected 1 queued URL, got none")
	}
	if u, _, ok := q.Pop(); ok {
		t.Errorf("expected 1 queued URL, also popped %q", u)
	}
}

func TestIsSameDomain(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"https://shop.test/a", "https://shop.test/b", true},
		{"https://www.shop.test/a", "https://shop.test/b", true},
		{"https://shop.test/a", "https://cdn.test/b", false},
		{"https://shop.test:8080/a", "https://shop.test/b", true},
	}
	for _, tt := range tests {
		if got := IsSameDomain(tt.a, tt.b); got != tt.want {
			t.Errorf("IsSameDomain(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
