package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/healthz", s.healthCheck).Methods("GET")
	router.HandleFunc("/jwks", s.jwks).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.initialContextMiddleware, protectedRouteMiddleware)

	user := api.PathPrefix("/users/{uid}").Subrouter()
	user.HandleFunc("/contacts", s.listContacts).Methods("GET")
	user.HandleFunc("/contacts", s.addContact).Methods("POST")
	user.HandleFunc("/contacts/{cid}", s.removeContact).Methods("DELETE")
	user.HandleFunc("/contacts/{cid}/roles", s.updateRoles).Methods("PUT")
	user.HandleFunc("/contacts/{cid}/preferences", s.updatePreferences).Methods("PUT")
	user.HandleFunc("/contacts/{cid}/ping", s.pingDependent).Methods("POST")
	user.HandleFunc("/contacts/{cid}/ping", s.clearPing).Methods("DELETE")
	user.HandleFunc("/contacts/{cid}/ping/response", s.respondToPing).Methods("POST")
	user.HandleFunc("/pings/response", s.respondToAllPings).Methods("POST")
	user.HandleFunc("/check-in", s.checkIn).Methods("POST")
	user.HandleFunc("/push-token", s.registerPushToken).Methods("PUT")
	user.HandleFunc("/discovery-token", s.issueDiscoveryToken).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		writeResponse(rw, ResponsePayload{Errors: []string{"route not found"}}, http.StatusNotFound)
	})

	return router
}
