package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the games API on r.
// feed may be nil, in which case the live feed endpoints are not served.
func Routes(r chi.Router, games *GamesHandler, feed *FeedHandler) {
	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", games.ListGames)
		r.Post("/", games.CreateGame)
		r.Post("/search", games.SearchGames)
		r.Post("/populate", games.PopulateGames)

		if feed != nil {
			r.Get("/feed", feed.HandleWebSocket)
			r.Get("/feed/metrics", feed.HandleMetrics)
		}

		r.Delete("/{id}", games.DeleteGame)
		r.Put("/{id}", games.UpdateGame)
	})
}
