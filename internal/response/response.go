// Package response maps a conversion outcome to an API Gateway proxy response.
package response

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/pipeline"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the JSON body of every response.
type Result struct {
	Status    string `json:"status"`
	PageCount *int   `json:"page_count,omitempty"`
	Format    string `json:"format,omitempty"`
	Message   string `json:"message,omitempty"`
}

// StatusCode maps an error to its HTTP status. nil maps to 200.
func StatusCode(err error) int { return apperr.StatusCode(err) }

// Success builds the 200 response for a completed conversion.
func Success(m pipeline.Manifest) events.APIGatewayProxyResponse {
	n := m.PageCount
	return build(200, Result{Status: StatusSuccess, PageCount: &n, Format: m.Format})
}

// Failure builds the error response for err.
func Failure(err error) events.APIGatewayProxyResponse {
	return build(StatusCode(err), Result{Status: StatusError, Message: Message(err)})
}

// Message is the client-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apperr.IsStorage(err) {
		return "S3 error: " + err.Error()
	}
	return err.Error()
}

func build(status int, r Result) events.APIGatewayProxyResponse {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	body := `{"status":"error","message":"failed to encode response"}`
	if err := enc.Encode(r); err == nil {
		body = strings.TrimSuffix(buf.String(), "\n")
	} else {
		status = 500
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
