// FilePath: api/resources/api.resource.respond.go
package resources

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dosense/dohub/internal/errors"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxBodyBytes = 1 << 20
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeQuery fills dst from the URL query using its schema tags
func decodeQuery(r *http.Request, dst interface{}) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

// decodeBody reads a JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) *errors.APIError {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && err != io.EOF {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack)
}

// respond writes payload as MessagePack when the client asks for it, JSON otherwise
func respond(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	if !wantsMsgpack(r) {
		respondWithJSON(w, code, payload)
		return
	}
	body, err := msgpack.Marshal(payload)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to encode response", err))
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(code)
	w.Write(body)
}

// fail translates a service error and tags it with the request id
func fail(w http.ResponseWriter, err error, requestID string) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		apiErr = errors.NewInternalError("internal server error", err)
	}
	respondWithError(w, apiErr.WithRequestID(requestID))
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
		return
	}
	nuts.L.Warnf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
