package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListCategories(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/categories")
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	defer resp.Body.Close()

	var categories []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(categories) != 1 || categories[0]["id"] != "arrays" {
		t.Fatalf("unexpected categories %v", categories)
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/categories/unknown")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListQuestionsSanitized(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/categories/arrays/questions")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	defer resp.Body.Close()

	var questions []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if _, leaked := q["correctAnswer"]; leaked {
			t.Fatalf("correct answer leaked: %v", q)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/history/u1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()

	var attempts []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attempts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected empty history, got %v", attempts)
	}
}
