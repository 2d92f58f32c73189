package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/repository"
)

func TestContactForm(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{
		"name":    "Akol",
		"email":   "akol@example.com",
		"message": "We need a clinic system for two branches.",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, ts.mailer.sent, 1)
	assert.Equal(t, []string{"admin@studio.example"}, ts.mailer.sent[0].To)
	assert.Equal(t, "akol@example.com", ts.mailer.sent[0].ReplyTo)
}

func TestContactFormRequiresReachableSender(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{
		"name":    "Akol",
		"message": "We need a clinic system for two branches.",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Please provide an email address or phone number"}`, w.Body.String())

	w = ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{"name": "A"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Empty(t, ts.mailer.sent)
}

func TestContactFormTreatsBlankEmailAsAbsent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{
		"name":    "Akol",
		"email":   "",
		"phone":   "+211912345678",
		"subject": "",
		"message": "We need a clinic system for two branches.",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.Len(t, ts.mailer.sent, 1)
	assert.Empty(t, ts.mailer.sent[0].ReplyTo)

	w = ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{
		"name":    "Akol",
		"email":   "   ",
		"phone":   "",
		"message": "We need a clinic system for two branches.",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Please provide an email address or phone number"}`, w.Body.String())

	w = ts.doJSON(http.MethodPost, "/api/forms/contact", gin.H{
		"name":    "Akol",
		"email":   "not-an-email",
		"message": "We need a clinic system for two branches.",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"email: email"}`, w.Body.String())
	assert.Len(t, ts.mailer.sent, 1)
}

func TestHoneypotLooksSuccessful(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(http.MethodPost, "/api/forms/request-system", gin.H{
		"name":        "Bot",
		"email":       "bot@spam.example",
		"projectType": "website",
		"description": "Buy cheap followers now, limited offer today.",
		"website":     "http://spam.example",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Empty(t, ts.mailer.sent)

	requests, total, err := ts.store.SystemRequests.List(context.Background(), repository.SystemRequestFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, requests)
}

func TestFormsAreRateLimitedPerIP(t *testing.T) {
	ts := newTestServer(t)
	body := gin.H{"name": "Akol", "phone": "+211912345678", "message": "Please call me about a school system."}

	for i := 0; i < testFormLimit; i++ {
		w := ts.doJSON(http.MethodPost, "/api/forms/contact", body, "")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := ts.doJSON(http.MethodPost, "/api/forms/contact", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"Too many requests, please try again later"}`, w.Body.String())

	// The limit is tracked per route.
	w = ts.doJSON(http.MethodPost, "/api/forms/request-system", gin.H{
		"name":        "Akol",
		"phone":       "+211912345678",
		"projectType": "school",
		"description": "Fee tracking and report cards for 600 pupils.",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
