package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFields(t *testing.T) {
	reply := "Sure! Here is the extracted data:\n" +
		`{"title":"Cotton Kurti","body_html":"<p>Soft cotton kurti.</p>","price":"1200","cost_price":800,` +
		`"size":"Free Size","tags":"cotton, kurti","product_type":"kurti","category":"casual",` +
		`"fabric":"Cotton","style":"","pattern":"solid","work_details":"","colour":"blue",` +
		`"collections":"new, trending","size_guide":"","care_instructions":""}` +
		"\nLet me know if you need anything else."

	fields, err := ParseFields(reply)
	require.NoError(t, err)

	assert.Equal(t, "Cotton Kurti", fields.Title)
	assert.Equal(t, "1200", fields.Price)
	// Numeric JSON values are stringified.
	assert.Equal(t, "800", fields.CostPrice)
	assert.Equal(t, "casual", fields.Category)
	assert.Equal(t, "new, trending", fields.Collections)
}

func TestParseFields_NoJSON(t *testing.T) {
	_, err := ParseFields("I could not find any product details in that message.")

	var extErr *Error
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Error(), "no JSON object")
	// The offending reply is carried for diagnosis.
	assert.Contains(t, extErr.Raw, "could not find")
}

func TestParseFields_MalformedJSON(t *testing.T) {
	_, err := ParseFields(`{"title": "broken`)

	var extErr *Error
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Error(), "no JSON object")
}

func TestParseFields_UnbalancedButMatchable(t *testing.T) {
	_, err := ParseFields(`prefix {"title": } suffix`)

	var extErr *Error
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Reason, "did not parse")
}

func TestExtract_AgainstMockBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "FABRIC - Pure Silk")

		content := `The JSON you asked for: {"title":"Banarasi Saree","price":"8000","cost_price":"5000","fabric":"Pure Silk"}`
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	e := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"}, zap.NewNop())

	fields, err := e.Extract(context.Background(), "FABRIC - Pure Silk\nPRICE - 5000/8000")
	require.NoError(t, err)
	assert.Equal(t, "Banarasi Saree", fields.Title)
	assert.Equal(t, "8000", fields.Price)
	assert.Equal(t, "5000", fields.CostPrice)
}

func TestExtract_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"}, zap.NewNop())

	_, err := e.Extract(context.Background(), "anything")
	var extErr *Error
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "backend call failed", extErr.Reason)
}
