// Command search-gateway is a demo HTTP server showing how the quota-and-
// cache layer is meant to be wired: every request passes an admission check,
// then a cache lookup, and only on a miss does the expensive lookup run.
//
// The "expensive lookup" here is simulated; in the real application it is a
// scraping/summarization pipeline that lives outside this layer.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skanderkaroui/person-search-agent/internal/config"
	"github.com/skanderkaroui/person-search-agent/pkg/cache"
	"github.com/skanderkaroui/person-search-agent/pkg/ratelimit"
)

type searchResult struct {
	Person  string    `json:"person"`
	Source  string    `json:"source"`
	Summary string    `json:"summary"`
	FoundAt time.Time `json:"found_at"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	var client *redis.Client
	if cfg.RedisDisabled {
		log.Print("redis disabled, running fallback-only")
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	store := cache.New(client,
		cache.WithTTL(cfg.CacheTTL()),
		cache.WithTimeout(2*time.Second),
	)
	limiter := ratelimit.New(client, cfg.RateLimitMax, cfg.RateLimitWindow(),
		ratelimit.WithTimeout(2*time.Second),
	)

	http.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		person := r.URL.Query().Get("person")
		if person == "" {
			http.Error(w, "missing 'person' parameter", http.StatusBadRequest)
			return
		}
		source := r.URL.Query().Get("source")
		if source == "" {
			source = "Wikipedia"
		}

		ip := clientIP(r)
		if !limiter.Allow(ctx, ip) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprint(limiter.Remaining(ctx, ip)))

		var result searchResult
		err := store.Fetch(ctx, source, person, &result, func(ctx context.Context) (any, error) {
			return lookup(ctx, source, person)
		})
		if err != nil {
			http.Error(w, "lookup failed", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})

	http.HandleFunc("POST /cache/clear", func(w http.ResponseWriter, r *http.Request) {
		if ns := r.URL.Query().Get("namespace"); ns != "" {
			store.ClearNamespace(r.Context(), ns)
		} else {
			store.Clear(r.Context())
		}
		w.WriteHeader(http.StatusNoContent)
	})

	log.Printf("search-gateway listening on %s (redis: %s, disabled=%v)",
		cfg.APIAddr(), cfg.RedisAddr(), cfg.RedisDisabled)
	log.Fatal(http.ListenAndServe(cfg.APIAddr(), nil))
}

// lookup stands in for the real data-retrieval routine.
func lookup(ctx context.Context, source, person string) (searchResult, error) {
	select {
	case <-time.After(250 * time.Millisecond):
	case <-ctx.Done():
		return searchResult{}, ctx.Err()
	}
	return searchResult{
		Person:  person,
		Source:  source,
		Summary: fmt.Sprintf("simulated %s summary for %s", source, person),
		FoundAt: time.Now().UTC(),
	}, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
