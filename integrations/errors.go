package integrations

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RequestError is returned for any non-2xx Trello response. Its message is the
// best-effort text extracted from the response.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

var errInvalidText = errors.New("response body is not valid text")

// bufferedBody lets several readers consume the same response body.
type bufferedBody struct {
	resp *http.Response
	data []byte
	err  error
	read bool
}

// clone returns an independent reader over the response body.
func (b *bufferedBody) clone() (io.Reader, error) {
	if !b.read {
		b.read = true
		if b.resp.Body == nil {
			b.data = nil
		} else {
			b.data, b.err = io.ReadAll(b.resp.Body)
			b.resp.Body.Close()
			b.resp.Body = io.NopCloser(bytes.NewReader(b.data))
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return bytes.NewReader(b.data), nil
}

type messageSource func(*bufferedBody) (string, error)

// Trello answers with plain text or {"error": "..."} depending on the endpoint.
var messageSources = []messageSource{textMessage, jsonMessage}

// ExtractErrorMessage never fails: it tries the text body, then a JSON error
// field, then the status phrase.
func ExtractErrorMessage(resp *http.Response) string {
	body := &bufferedBody{resp: resp}
	for _, source := range messageSources {
		msg, err := source(body)
		if err == nil && msg != "" {
			return msg
		}
	}
	return statusPhrase(resp)
}

func textMessage(body *bufferedBody) (string, error) {
	r, err := body.clone()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errInvalidText
	}
	return string(data), nil
}

func jsonMessage(body *bufferedBody) (string, error) {
	r, err := body.clone()
	if err != nil {
		return "", err
	}
	var payload struct {
		Error *string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Error == nil || *payload.Error == "" {
		return "", errors.New("response has no error field")
	}
	return *payload.Error, nil
}

func statusPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); phrase != "" {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}
