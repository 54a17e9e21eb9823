package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/session"
)

type entityView struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Rev  uint64 `json:"rev"`
}

type bucketView struct {
	Name     string       `json:"name"`
	Limit    int          `json:"limit"`
	Entities []entityView `json:"entities"`
}

func newRouter(s *session.Session, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/buckets", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []bucketView{view(s.Cache()), view(s.RecentlyViewed())})
	})
	r.Get("/buckets/recent", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, view(s.RecentlyViewed()))
	})
	return r
}

func view(b *entitycache.Bucket) bucketView {
	reg := b.Registry()
	members := b.Entities()
	out := bucketView{Name: b.Name(), Limit: b.Limit(), Entities: make([]entityView, 0, len(members))}
	for _, e := range members {
		id := entitycache.IdentityOf(e)
		out.Entities = append(out.Entities, entityView{Kind: entitycache.KindName(e), ID: id.ID, Rev: reg.Revision(id)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
