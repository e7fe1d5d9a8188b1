package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pharmapos/backend/internal/domain"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]domain.ImageAnalysis
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.ImageAnalysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.ImageAnalysis, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = *value
	return nil
}

const sampleResponse = `{
  "medicineName": {"value": "Cetirizine", "source": "image"},
  "brandName": {"value": "Cetzine", "source": "image"},
  "isScheduleH1": {"value": false, "source": "generated"},
  "reorderLevel": {"value": 25, "source": "generated"},
  "batchNumber": {"value": "CTZ-88", "source": "image"},
  "initialQuantity": {"value": "100", "source": "image"},
  "mrp": {"value": 32.5, "source": "image"},
  "gstRate": {"value": null, "source": "generated"}
}`

func TestAnalyzeSendsMultipartAndCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/analyze-images/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, _, err := r.FormFile("front_image")
		if err != nil {
			t.Errorf("expected front_image part: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "front-bytes" {
			t.Errorf("unexpected front image payload %q", data)
		}
		if _, _, err := r.FormFile("back_image"); err == nil {
			t.Errorf("expected back_image to be omitted")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second, &mapCache{data: map[string]domain.ImageAnalysis{}}, time.Minute)
	front := Image{Filename: "front.jpg", Data: []byte("front-bytes")}

	result, cached, err := client.Analyze(context.Background(), front, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if cached {
		t.Fatalf("expected first call to hit the service")
	}

	form := result.Prefill()
	if form.Medicine.BrandName != "Cetzine" || form.Medicine.ReorderLevel != 25 || form.Medicine.IsScheduleH1 {
		t.Fatalf("unexpected medicine prefill %+v", form.Medicine)
	}
	if len(form.Batches) != 1 || form.Batches[0].BatchNumber != "CTZ-88" || form.Batches[0].MRP != "32.5" || form.Batches[0].GSTRate != "" {
		t.Fatalf("unexpected batch prefill %+v", form.Batches)
	}
	generated := result.Generated()
	if len(generated) != 3 || generated[0] != "gstRate" {
		t.Fatalf("unexpected generated fields %v", generated)
	}

	_, cached, err = client.Analyze(context.Background(), front, nil)
	if err != nil || !cached {
		t.Fatalf("expected cached second call, got cached=%v err=%v", cached, err)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestAnalyzeErrorKeyIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error": "model unavailable", "trace": "..."}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, 0)
	_, _, err := client.Analyze(context.Background(), Image{Data: []byte("x")}, nil)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected analysis failure, got %v", err)
	}
}

func TestAnalyzeRejectsUpstreamStatusAndTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, 0)
	if _, _, err := client.Analyze(context.Background(), Image{Data: []byte("x")}, nil); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected failure on 500, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := client.Analyze(ctx, Image{Data: []byte("y")}, nil); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected failure on cancelled context, got %v", err)
	}
}

func TestAnalyzeRequiresFrontImage(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, nil, 0)
	if _, _, err := client.Analyze(context.Background(), Image{}, &Image{Data: []byte("back")}); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected missing front image rejected, got %v", err)
	}
}

func TestCacheKeyDependsOnBothImages(t *testing.T) {
	front := Image{Data: []byte("a")}
	if cacheKey(front, nil) == cacheKey(front, &Image{Data: []byte("b")}) {
		t.Fatalf("expected back image to change the cache key")
	}
}
