package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func BenchmarkHandleCreateBooking(b *testing.B) {
	srv := buildTestServer(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(fmt.Sprintf(`{"_id":"bench-%d","movie_id":"m-1","status":"PENDING","price_total":12.5}`, i))
		req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(payload))
		rec := httptest.NewRecorder()

		srv.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
	}
}
