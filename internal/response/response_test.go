package response

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/pipeline"
)

func TestSuccess(t *testing.T) {
	resp := Success(pipeline.Manifest{PageCount: 3, Format: "webp"})

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"status":"success","page_count":3,"format":"webp"}`, resp.Body)
}

func TestSuccessZeroPagesKeepsCount(t *testing.T) {
	resp := Success(pipeline.Manifest{PageCount: 0, Format: "webp"})
	assert.JSONEq(t, `{"status":"success","page_count":0,"format":"webp"}`, resp.Body)
}

func TestFailure(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "validation",
			err:    apperr.Validation("Field '%s' must end with '%s'.", "output_prefix", "/"),
			status: 400,
			msg:    "Field 'output_prefix' must end with '/'.",
		},
		{
			name:   "not found",
			err:    &apperr.NotFoundError{Bucket: "media", Key: "doc.pdf"},
			status: 404,
			msg:    "Object not found: s3://media/doc.pdf",
		},
		{
			name:   "storage",
			err:    &apperr.StorageError{Op: "upload", Key: "out/page-1.webp", Err: errors.New("AccessDenied")},
			status: 500,
			msg:    "S3 error: upload out/page-1.webp: AccessDenied",
		},
		{
			name:   "processing",
			err:    &apperr.ProcessingError{Page: 2, Message: "failed to render page", Err: errors.New("boom")},
			status: 500,
			msg:    "page 2: failed to render page: boom",
		},
		{
			name:   "unclassified",
			err:    errors.New("something <odd> & unexpected"),
			status: 500,
			msg:    "something <odd> & unexpected",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := Failure(tc.err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			want, err := json.Marshal(map[string]string{"status": "error", "message": tc.msg})
			require.NoError(t, err)
			assert.JSONEq(t, string(want), resp.Body)
		})
	}
}

func TestFailureDoesNotEscapeHTML(t *testing.T) {
	resp := Failure(errors.New("a<b"))
	assert.Contains(t, resp.Body, `"a<b"`)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 200, StatusCode(nil))
	assert.Equal(t, 400, StatusCode(apperr.Validation("bad")))
	assert.Equal(t, 500, StatusCode(errors.New("x")))
}
