package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	profileImageField  = "profileImage"
	multipartMemoryMax = 1 << 20
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errInvalidBody  = errors.New("invalid request body")
)

// requestForm holds body fields from JSON, urlencoded, or multipart requests.
type requestForm struct {
	values map[string]string
	file   *multipart.FileHeader
}

// lookup returns the field value and whether the client sent it at all.
func (f requestForm) lookup(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f requestForm) value(key string) string {
	return f.values[key]
}

// trim replaces a submitted value with its trimmed form.
func (f requestForm) trim(key string) {
	if v, ok := f.values[key]; ok {
		f.values[key] = strings.TrimSpace(v)
	}
}

// optional returns a pointer to a non-empty field value.
func (f requestForm) optional(key string) *string {
	v, ok := f.values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

// parseForm reads the request body into a requestForm, capping it at maxBytes.
func parseForm(w http.ResponseWriter, req *http.Request, maxBytes int64) (requestForm, error) {
	form := requestForm{values: map[string]string{}}
	if req.Body == nil {
		return form, nil
	}
	if maxBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
	}

	mediaType := ""
	if ct := req.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return form, errInvalidBody
		}
		mediaType = parsed
	}

	switch mediaType {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(multipartMemoryMax); err != nil {
			return form, classifyBodyError(err)
		}
		for key, vals := range req.MultipartForm.Value {
			if len(vals) > 0 {
				form.values[key] = vals[0]
			}
		}
		if files := req.MultipartForm.File[profileImageField]; len(files) > 0 {
			form.file = files[0]
		}
	case "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			return form, classifyBodyError(err)
		}
		for key, vals := range req.PostForm {
			if len(vals) > 0 {
				form.values[key] = vals[0]
			}
		}
	default:
		if err := decodeJSONFields(req.Body, form.values); err != nil {
			return form, err
		}
	}
	return form, nil
}

func decodeJSONFields(body io.Reader, into map[string]string) error {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return classifyBodyError(err)
	}
	for key, v := range raw {
		switch value := v.(type) {
		case nil:
		case string:
			into[key] = value
		case float64, bool:
			into[key] = fmt.Sprint(value)
		default:
			// Objects and arrays never satisfy a field rule.
			into[key] = ""
		}
	}
	return nil
}

func classifyBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return fmt.Errorf("%w: %v", errInvalidBody, err)
}

// writeBodyError maps a parseForm failure to a response.
func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
		return
	}
	writeError(w, http.StatusBadRequest, errInvalidBody.Error())
}
