package handlers

import "net/http"

// StatsResponse summarises the catalog.
type StatsResponse struct {
	Folders         int `json:"folders"`
	Images          int `json:"images"`
	FavoriteFolders int `json:"favoriteFolders"`
	FavoriteImages  int `json:"favoriteImages"`
	Processing      int `json:"processing"`
	Processed       int `json:"processed"`
	Errored         int `json:"errored"`
}

// GetStats returns catalog counts for the dashboard header.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	s := h.svc.GetStats()
	writeJSONStatusCode(w, http.StatusOK, StatsResponse{
		Folders:         s.Folders,
		Images:          s.Images,
		FavoriteFolders: s.FavoriteFolders,
		FavoriteImages:  s.FavoriteImages,
		Processing:      s.Processing,
		Processed:       s.Processed,
		Errored:         s.Errored,
	})
}
