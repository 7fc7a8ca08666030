package services

import (
	"net/http/httptest"
	"testing"

	"snapfeed_client/fakegateway"
)

// newTestGateway hosts a fresh fakegateway and returns it with an
// APIService authenticated as userID (the fake treats the bearer token as
// the user id).
func newTestGateway(t *testing.T, userID string) (*fakegateway.Server, *APIService) {
	t.Helper()

	gw := fakegateway.New()
	ts := httptest.NewServer(gw.Handler())
	t.Cleanup(ts.Close)

	return gw, NewAPIService(ts.URL+"/api/v1", userID)
}
