package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reloop/models"
)

// fakeImage is valid base64 that is not a decodable image, so it reaches the classifier unchanged.
const fakeImage = "data:image/jpeg;base64,aGVsbG8gd29ybGQ="

func newClassifierServer(t *testing.T, status int, body interface{}) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var requests []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch b := body.(type) {
		case string:
			w.Write([]byte(b))
		default:
			json.NewEncoder(w).Encode(b)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newScanner(e *testEnv, url string) *ScannerService {
	client := NewClassifierClient(url, 2*time.Second, 0, nil)
	return NewScannerService(e.db, client, e.progression, e.missions, e.badges, nil)
}

func TestAnalyzeUsesClassifier(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.createUser(t, "u1")

	srv, requests := newClassifierServer(t, http.StatusOK, map[string]interface{}{
		"success": true,
		"item": map[string]interface{}{
			"objectName":     "Desk Lamp",
			"category":       "ELECTRONICS",
			"condition":      "Fair",
			"estimatedCoins": 60,
		},
	})
	scanner := newScanner(e, srv.URL)

	res, err := scanner.Analyze(ctx, "u1", fakeImage)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Source != models.ScanSourceAI || res.ObjectName != "Desk Lamp" || res.Category != "Electronics" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.EstimatedCoins != 60 || res.CO2Savings != 3 || res.Material != "Plastic & Electronics" || !res.Recyclable {
		t.Fatalf("unexpected derived fields: %+v", res)
	}
	if len(*requests) != 1 || (*requests)[0]["image"] != fakeImage {
		t.Fatalf("classifier got %v", *requests)
	}

	if n := e.profile(t, "u1").ItemsScanned; n != 1 {
		t.Fatalf("items_scanned = %d, want 1", n)
	}
	history, err := scanner.ScanHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ScanHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != res.ScanID || history[0].ObjectName != "Desk Lamp" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestAnalyzeFallsBackToMock(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   interface{}
	}{
		{"server error", http.StatusInternalServerError, map[string]string{"error": "boom"}},
		{"malformed json", http.StatusOK, "{not json"},
		{"unsuccessful", http.StatusOK, map[string]interface{}{"success": false, "error": "no model"}},
		{"no object name", http.StatusOK, map[string]interface{}{"success": true, "item": map[string]string{"category": "books"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.createUser(t, "u1")
			srv, _ := newClassifierServer(t, tc.status, tc.body)

			res, err := newScanner(e, srv.URL).Analyze(context.Background(), "u1", fakeImage)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			mock := MockScanResult()
			if res.Source != models.ScanSourceFallback || res.ObjectName != mock.ObjectName ||
				res.Category != "Home Decor" || res.EstimatedCoins != 45 || res.CO2Savings != 2.5 {
				t.Fatalf("expected the mock result, got %+v", res)
			}
		})
	}
}

func TestAnalyzeUnreachableClassifier(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "u1")
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := newScanner(e, url).Analyze(context.Background(), "u1", fakeImage)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Source != models.ScanSourceFallback {
		t.Fatalf("expected fallback, got %+v", res)
	}

	missions, _ := e.missions.GetDailyMissions(context.Background(), "u1")
	for _, m := range missions {
		if m.ID == models.MissionScanItems && m.Progress != 1 {
			t.Fatalf("scan_items progress = %d, want 1", m.Progress)
		}
	}
}

func TestAnalyzeRejectsEmptyImage(t *testing.T) {
	e := newTestEnv(t)
	scanner := newScanner(e, "")
	for _, img := range []string{"", "   "} {
		if _, err := scanner.Analyze(context.Background(), "u1", img); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("Analyze(%q): expected ErrInvalidImage, got %v", img, err)
		}
	}
}

func TestAnalyzeUndecodableImageFallsBack(t *testing.T) {
	e := newTestEnv(t)
	e.createUser(t, "u1")
	srv, requests := newClassifierServer(t, http.StatusBadRequest, map[string]string{"error": "bad image"})

	const garbage = "data:image/png;base64,%%%"
	res, err := newScanner(e, srv.URL).Analyze(context.Background(), "u1", garbage)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Source != models.ScanSourceFallback {
		t.Fatalf("expected fallback, got %+v", res)
	}
	if len(*requests) != 1 || (*requests)[0]["image"] != garbage {
		t.Fatalf("classifier got %v, want the input as sent", *requests)
	}
}

func TestAnalyzeShrinksLargeImages(t *testing.T) {
	e := newTestEnv(t)
	srv, requests := newClassifierServer(t, http.StatusOK, map[string]interface{}{
		"success": true,
		"item":    map[string]interface{}{"objectName": "Poster", "category": "other"},
	})

	img := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	for x := 0; x < 1600; x++ {
		img.Set(x, x%400, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	if _, err := newScanner(e, srv.URL).Analyze(context.Background(), "", dataURL); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sent := (*requests)[0]["image"]
	raw, err := base64.StdEncoding.DecodeString(sent[len("data:image/jpeg;base64,"):])
	if err != nil {
		t.Fatalf("classifier did not receive a JPEG data URL: %.40s", sent)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode sent image: %v", err)
	}
	if format != "jpeg" || cfg.Width != 800 || cfg.Height != 200 {
		t.Fatalf("sent %s %dx%d, want jpeg 800x200", format, cfg.Width, cfg.Height)
	}
}

func TestNormalizeItem(t *testing.T) {
	no := false
	res := NormalizeItem(&ClassifiedItem{ObjectName: "Old Novel", Category: "Books", Recyclable: &no})
	if res.Category != "Books" || res.EstimatedCoins != 37 || res.CO2Savings != 1.9 || res.Recyclable {
		t.Fatalf("unexpected normalization: %+v", res)
	}
	if len(res.UpcycleIdeas) == 0 || res.Condition != "Good" {
		t.Fatalf("defaults not filled: %+v", res)
	}

	res = NormalizeItem(&ClassifiedItem{ObjectName: "Thing", Category: "Gadgets & Gizmos", EstimatedCoins: 12.6})
	if res.Category != "Other" || res.EstimatedCoins != 13 || res.CO2Savings != 0.7 {
		t.Fatalf("unexpected normalization: %+v", res)
	}
}
