package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Daskott/lifeline/server/auth"
	"github.com/Daskott/lifeline/server/cron"
	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

var httpStatusByCode = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.FailedPrecondition: http.StatusPreconditionFailed,
	codes.Internal:           http.StatusInternalServerError,
}

func httpStatus(err error) int {
	if statusCode, ok := httpStatusByCode[status.Code(err)]; ok {
		return statusCode
	}
	return http.StatusInternalServerError
}

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func writeError(rw http.ResponseWriter, err error) {
	message := err.Error()
	if st, ok := status.FromError(err); ok {
		message = st.Message()
	}

	writeResponse(rw, ResponsePayload{Errors: []string{message}}, httpStatus(err))
}

// writeResult writes {success: true} or the error
func writeResult(rw http.ResponseWriter, err error) {
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// decodeAndValidate reads the JSON body into 'data' & runs struct validation.
// Writes a 400 & returns false on failure.
func decodeAndValidate(rw http.ResponseWriter, r *http.Request, data interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{fmt.Sprintf("invalid request body: %v", err)}}, http.StatusBadRequest)
		return false
	}

	if errs := validate.Struct(data); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return false
	}

	return true
}

// ---------------------------------------------------------------------------------//
// Middleware Helper functions
// --------------------------------------------------------------------------------//

func (s *Server) decodeAndVerifyAuthHeader(authHeaderValue string) DecodedJWT {
	authHeaderList := strings.Split(authHeaderValue, "Bearer ")
	if len(authHeaderList) < 2 {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}

	tokenClaims, err := auth.DecodeJWT(authHeaderList[1], s.keyPair)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	return DecodedJWT{Claims: tokenClaims}
}

// client is only able to act on their own documents, admins can also view others'
func canAccessUserResource(r *http.Request, userClaims *auth.LifelineTokenClaims) bool {
	if mux.Vars(r)["uid"] == userClaims.Subject {
		return true
	}

	return userClaims.IsAdmin && r.Method == http.MethodGet
}

func requestClaims(r *http.Request) *auth.LifelineTokenClaims {
	decodedJWT, _ := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)
	return decodedJWT.Claims
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Lifeline server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(scheduler *cron.Scheduler, server *http.Server) {
	// Stop scheduled jobs i.e. reminder scans & backups
	scheduler.Stop()

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Lifeline server shutdown failed:%+s", err)
	}

	logg.Infof("Lifeline server stopped properly")
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
