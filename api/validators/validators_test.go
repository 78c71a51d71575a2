package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type proofBody struct {
	Method      string `json:"method" validate:"required,oneof=baridimob ccp_cheque bank_transfer"`
	EvidenceRef string `json:"evidence_ref" validate:"required"`
	Amount      int64  `json:"amount" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"method":"ccp_cheque","evidence_ref":"uploads/a.png","amount":10}`))
	var body proofBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "ccp_cheque", body.Method)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"method":"ccp_cheque","evidence_ref":"x","amount":1,"extra":true}`))
	var body proofBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"method":"cash","amount":0}`))
	var body proofBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details["method"], "must be one of")
	assert.Equal(t, "is required", details["evidence_ref"])
	assert.Equal(t, "must be greater than 0", details["amount"])
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, params)

	params, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=500", nil))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?unreadOnly=1&archived=false&bad=maybe", nil)

	unread, err := ParseQueryBool(req, "unreadOnly")
	require.NoError(t, err)
	assert.True(t, unread)

	archived, err := ParseQueryBool(req, "archived")
	require.NoError(t, err)
	assert.False(t, archived)

	_, err = ParseQueryBool(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-31T12:00:00Z&bad=yesterday", nil)

	from, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)

	to, err := ParseQueryTime(req, "to")
	require.NoError(t, err)
	assert.Equal(t, 12, to.Hour())

	missing, err := ParseQueryTime(req, "missing")
	require.NoError(t, err)
	assert.True(t, missing.IsZero())

	_, err = ParseQueryTime(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyTrimsBeforeValidating(t *testing.T) {
	type noteBody struct {
		Body        string   `json:"body" validate:"required"`
		Title       *string  `json:"title"`
		Attachments []string `json:"attachments" validate:"dive,required"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"  ready  ","title":" t ","attachments":[" a "]}`))
	var ok noteBody
	require.NoError(t, DecodeJSONBody(req, &ok))
	assert.Equal(t, "ready", ok.Body)
	assert.Equal(t, "t", *ok.Title)
	assert.Equal(t, []string{"a"}, ok.Attachments)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"   ","attachments":["x","  "]}`))
	var blank noteBody
	err := DecodeJSONBody(req, &blank)
	require.Error(t, err)
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["body"])
	assert.Equal(t, "is required", details["attachments[1]"])
}

func TestDecodeJSONBodyRejectsMalformedEnvelopes(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"trailing data":  `{"method":"ccp_cheque","evidence_ref":"x","amount":1} {}`,
		"not an object":  `[1,2]`,
		"oversized body": `{"method":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var body proofBody
			err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw)), &body)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestDescribeLengthBounds(t *testing.T) {
	type bounded struct {
		Name  string `json:"name" validate:"max=3"`
		Count int    `json:"count" validate:"min=2"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abcdef","count":1}`))
	var body bounded
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "length must be at most 3", details["name"])
	assert.Equal(t, "must be at least 2", details["count"])
}
