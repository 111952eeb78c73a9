package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/relations"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type addContactRequest struct {
	DiscoveryToken string `json:"discovery_token" validate:"required"`
	IsResponder    *bool  `json:"is_responder" validate:"required"`
	IsDependent    *bool  `json:"is_dependent" validate:"required"`
}

type updateRolesRequest struct {
	IsResponder *bool `json:"is_responder" validate:"required"`
	IsDependent *bool `json:"is_dependent" validate:"required"`
}

type updatePreferencesRequest struct {
	relations.PreferenceUpdate
	// Defaults to true when omitted
	UpdateReciprocal *bool `json:"update_reciprocal"`
}

type pushTokenRequest struct {
	PushToken string `json:"push_token"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func (s *Server) healthCheck(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func (s *Server) jwks(rw http.ResponseWriter, r *http.Request) {
	jwk, err := s.keyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(jwk))
}

func (s *Server) listContacts(rw http.ResponseWriter, r *http.Request) {
	contacts, err := s.manager.ListContacts(r.Context(), userRef(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	if contacts == nil {
		contacts = []*models.ContactEntry{}
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contacts})
}

func (s *Server) addContact(rw http.ResponseWriter, r *http.Request) {
	data := addContactRequest{}
	if !decodeAndValidate(rw, r, &data) {
		return
	}

	contactID, err := s.manager.AddRelation(r.Context(), requestClaims(r).Subject, data.DiscoveryToken, *data.IsResponder, *data.IsDependent)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    map[string]string{"contact_id": contactID},
	}, http.StatusCreated)
}

func (s *Server) removeContact(rw http.ResponseWriter, r *http.Request) {
	err := s.manager.RemoveRelation(r.Context(), userRef(r), contactRef(r))
	writeResult(rw, err)
}

func (s *Server) updateRoles(rw http.ResponseWriter, r *http.Request) {
	data := updateRolesRequest{}
	if !decodeAndValidate(rw, r, &data) {
		return
	}

	err := s.manager.UpdateRoles(r.Context(), userRef(r), contactRef(r), data.IsResponder, data.IsDependent)
	writeResult(rw, err)
}

func (s *Server) updatePreferences(rw http.ResponseWriter, r *http.Request) {
	data := updatePreferencesRequest{}
	if !decodeAndValidate(rw, r, &data) {
		return
	}

	updateReciprocal := data.UpdateReciprocal == nil || *data.UpdateReciprocal
	err := s.manager.UpdatePreferences(r.Context(), userRef(r), contactRef(r), data.PreferenceUpdate, updateReciprocal)
	writeResult(rw, err)
}

func (s *Server) pingDependent(rw http.ResponseWriter, r *http.Request) {
	writeResult(rw, s.manager.PingDependent(r.Context(), userRef(r), contactRef(r)))
}

func (s *Server) clearPing(rw http.ResponseWriter, r *http.Request) {
	writeResult(rw, s.manager.ClearPing(r.Context(), userRef(r), contactRef(r)))
}

func (s *Server) respondToPing(rw http.ResponseWriter, r *http.Request) {
	writeResult(rw, s.manager.RespondToPing(r.Context(), userRef(r), contactRef(r)))
}

func (s *Server) respondToAllPings(rw http.ResponseWriter, r *http.Request) {
	cleared, err := s.manager.RespondToAllPings(r.Context(), userRef(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]int{"cleared": cleared}})
}

func (s *Server) checkIn(rw http.ResponseWriter, r *http.Request) {
	writeResult(rw, s.manager.CheckIn(r.Context(), userRef(r)))
}

func (s *Server) registerPushToken(rw http.ResponseWriter, r *http.Request) {
	data := pushTokenRequest{}
	if !decodeAndValidate(rw, r, &data) {
		return
	}

	writeResult(rw, s.manager.RegisterPushToken(r.Context(), userRef(r), strings.TrimSpace(data.PushToken)))
}

func (s *Server) issueDiscoveryToken(rw http.ResponseWriter, r *http.Request) {
	token, err := s.manager.IssueDiscoveryToken(r.Context(), userRef(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    map[string]string{"discovery_token": token},
	}, http.StatusCreated)
}

// userRef & contactRef build document paths from the route's {uid} & {cid}
func userRef(r *http.Request) string {
	return pathFor(mux.Vars(r)["uid"])
}

func contactRef(r *http.Request) string {
	return pathFor(mux.Vars(r)["cid"])
}

func pathFor(id string) string {
	if id == "" {
		return ""
	}
	return models.RefForUser(id).Path()
}
