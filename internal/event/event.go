// Package event parses and validates invocation payloads.
//
// Two shapes are accepted: a direct object carrying pdf_key and output_prefix,
// and an HTTP proxy envelope whose string body (optionally base64 encoded)
// holds the same object.
package event

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/local/pdf2webp/internal/apperr"
)

// Request is a validated conversion request.
type Request struct {
	PDFKey       string `json:"pdf_key" validate:"required"`
	OutputPrefix string `json:"output_prefix" validate:"required,endswith=/"`
}

// PageKey returns the object key of the 1-based page index.
func (r Request) PageKey(index int) string {
	return r.OutputPrefix + "page-" + strconv.Itoa(index) + ".webp"
}

// ManifestKey returns the object key of the manifest.
func (r Request) ManifestKey() string {
	return r.OutputPrefix + "manifest.json"
}

// httpEnvelope is the subset of an API Gateway proxy request we read.
type httpEnvelope struct {
	Body            *string `json:"body"`
	IsBase64Encoded bool    `json:"isBase64Encoded"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes a raw invocation event into a validated Request.
// Every failure is an *apperr.ValidationError.
func Parse(raw []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Request{}, apperr.Validation("Invalid event type; expected JSON object.")
	}

	payload := fields
	_, hasKey := fields["pdf_key"]
	_, hasPrefix := fields["output_prefix"]

	switch {
	case hasKey && hasPrefix:
		// direct invocation
	case fields["body"] != nil:
		body, err := decodeBody(raw)
		if err != nil {
			return Request{}, err
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(body, &inner); err != nil || inner == nil {
			return Request{}, apperr.Validation("Request body is not valid JSON.")
		}
		payload = inner
	default:
		return Request{}, apperr.Validation("Missing required fields. Provide 'pdf_key' and 'output_prefix'.")
	}

	req := Request{
		PDFKey:       stringField(payload, "pdf_key"),
		OutputPrefix: stringField(payload, "output_prefix"),
	}
	if err := validate.Struct(req); err != nil {
		return Request{}, validationMessage(err)
	}
	return req, nil
}

func decodeBody(raw []byte) ([]byte, error) {
	var env struct {
		Body            json.RawMessage `json:"body"`
		IsBase64Encoded json.RawMessage `json:"isBase64Encoded"`
	}
	_ = json.Unmarshal(raw, &env)

	if len(env.Body) == 0 || string(env.Body) == "null" {
		return nil, apperr.Validation("Empty body in event.")
	}
	var body string
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, apperr.Validation("Request body must be a string containing JSON.")
	}

	// only a literal true enables decoding
	var isB64 bool
	_ = json.Unmarshal(env.IsBase64Encoded, &isB64)

	data := []byte(body)
	if isB64 {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
		if err != nil {
			return nil, apperr.Validation("Failed to decode base64-encoded body.")
		}
		if !utf8.Valid(decoded) {
			return nil, apperr.Validation("Request body must be UTF-8 text.")
		}
		data = decoded
	}
	return data, nil
}

// stringField returns the field as a string, or "" when it is absent or not
// a JSON string, so that the required rule rejects it.
func stringField(m map[string]json.RawMessage, name string) string {
	raw, ok := m[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("%s", err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "endswith":
		return apperr.Validation("Field '%s' must end with '%s'.", fe.Field(), fe.Param())
	default:
		return apperr.Validation("Field '%s' must be a non-empty string.", fe.Field())
	}
}

// BuildDirect encodes req as a direct invocation event.
func BuildDirect(req Request) ([]byte, error) {
	return json.Marshal(req)
}

// BuildHTTP wraps req in an HTTP proxy envelope, base64 encoding the body
// when asked to.
func BuildHTTP(req Request, useBase64 bool) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	s := string(body)
	if useBase64 {
		s = base64.StdEncoding.EncodeToString(body)
	}
	return json.Marshal(httpEnvelope{Body: &s, IsBase64Encoded: useBase64})
}
