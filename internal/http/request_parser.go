package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("Invalid request body")

// decodeJSON reads one JSON object from the request body into dst.
// An empty body leaves dst untouched. Errors are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return core.Invalid("", fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
		}
		return core.Invalid("", errInvalidBody)
	}
	return nil
}

// ParsePageRequest reads page and limit from the query. Missing or
// non-numeric values fall back to the defaults.
func ParsePageRequest(query url.Values) core.PageRequest {
	req := core.PageRequest{
		Page: queryInt(query, "page"),
		Size: queryInt(query, "limit"),
	}
	return req.Normalize()
}

func queryInt(query url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(query.Get(key)))
	if err != nil {
		return 0
	}
	return v
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
