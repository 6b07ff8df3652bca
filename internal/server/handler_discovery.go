package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "Prodigy API",
		Version:     "v1",
		Description: "Prodigy fault scheduler: create, advance and query scheduled fault entries",
		Endpoints: []endpointInfo{
			{"/status", []string{"GET"}, "All entries, or one entry with ?id= (plain JSON, 400 when the id is unknown)"},
			{"/api/v1/entries", []string{"GET", "POST"}, "List entries (?status=, ?limit=, ?offset=) or create one"},
			{"/api/v1/entries/{id}", []string{"GET"}, "Single entry"},
			{"/api/v1/entries/{id}/advance", []string{"POST"}, "Move an entry to its next status, recording result or error on completion"},
			{"/api/v1/entries/{id}/cancel", []string{"PUT"}, "Cancel a pending or running entry"},
			{"/api/v1/health", []string{"GET"}, "Server health, version and store reachability"},
		},
	})
}
