package chi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"

	"github.com/mpezzi/json-server/internal/domain"
	"github.com/mpezzi/json-server/internal/domain/value"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 10 << 20

// decodeBody reads a write body as a field mapping. JSON and urlencoded
// forms are understood; any other content type, an empty body, or a JSON
// body that is not an object yields an empty mapping.
func decodeBody(w http.ResponseWriter, r *http.Request) (*value.Object, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyErr(err)
		}
		return formObject(r), nil
	case "application/json":
		v, err := readJSON(r.Body)
		if err != nil {
			return nil, err
		}
		return asObject(v), nil
	case "":
		// No declared type: take the body as JSON when it parses, else ignore it.
		v, err := readJSON(r.Body)
		if errors.Is(err, domain.ErrBodyTooLarge) {
			return nil, err
		}
		return asObject(v), nil
	default:
		return value.NewObject(), nil
	}
}

func readJSON(body io.Reader) (value.Value, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return value.Value{}, bodyErr(err)
	}
	if len(data) == 0 {
		return value.Value{}, nil
	}
	v, err := value.Parse(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", domain.ErrInvalidBody, err)
	}
	return v, nil
}

func asObject(v value.Value) *value.Object {
	if obj, ok := v.AsObject(); ok {
		return obj
	}
	return value.NewObject()
}

// formObject maps form fields to strings, or to arrays of strings for
// repeated keys. Keys are sorted since forms carry no stable order.
func formObject(r *http.Request) *value.Object {
	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := value.NewObject()
	for _, k := range keys {
		vs := r.PostForm[k]
		if len(vs) == 1 {
			obj.Set(k, value.String(vs[0]))
			continue
		}
		items := make([]value.Value, len(vs))
		for i, s := range vs {
			items[i] = value.String(s)
		}
		obj.Set(k, value.Array(items...))
	}
	return obj
}

func bodyErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", domain.ErrBodyTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidBody, err)
}
