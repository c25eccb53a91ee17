package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeGeoClient struct {
	requests  []string
	responses map[string]*http.Response
	err       error
}

func (c *fakeGeoClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req.URL.String())
	if c.err != nil {
		return nil, c.err
	}
	for key, resp := range c.responses {
		if strings.Contains(req.URL.Host, key) {
			return resp, nil
		}
	}
	return jsonResponse(http.StatusNotFound, `{}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestGeoService_LookupSkipsLocalIPs(t *testing.T) {
	svc := NewGeoService()
	client := &fakeGeoClient{}
	svc.SetHTTPClient(client)

	for _, ip := range []string{"", "127.0.0.1", "10.1.2.3", "172.20.0.5", "192.168.1.1", "::1", "localhost"} {
		location, err := svc.Lookup(context.Background(), ip)
		if err != nil {
			t.Fatalf("lookup %q: %v", ip, err)
		}
		if location.Country != "" {
			t.Fatalf("local ip %q resolved to %q", ip, location.Country)
		}
	}
	if len(client.requests) != 0 {
		t.Fatalf("local ips reached a provider: %v", client.requests)
	}
}

func TestGeoService_LookupFirstProvider(t *testing.T) {
	svc := NewGeoService()
	client := &fakeGeoClient{responses: map[string]*http.Response{
		"ipapi.co": jsonResponse(http.StatusOK, `{"country_name":"España","country_code":"ES","city":"Madrid","region":"Madrid","latitude":40.4,"longitude":-3.7}`),
	}}
	svc.SetHTTPClient(client)

	location, err := svc.Lookup(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if location.Country != "España" || location.City != "Madrid" || location.CountryCode != "ES" {
		t.Fatalf("unexpected location: %+v", location)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected a single provider call, got %v", client.requests)
	}
}

func TestGeoService_LookupFallsBackToSecondProvider(t *testing.T) {
	svc := NewGeoService()
	client := &fakeGeoClient{responses: map[string]*http.Response{
		"ipapi.co":   jsonResponse(http.StatusTooManyRequests, `{}`),
		"ip-api.com": jsonResponse(http.StatusOK, `{"country":"México","countryCode":"MX","city":"CDMX","regionName":"Ciudad de México","lat":19.4,"lon":-99.1}`),
	}}
	svc.SetHTTPClient(client)

	location, err := svc.Lookup(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if location.Country != "México" || location.City != "CDMX" {
		t.Fatalf("unexpected location: %+v", location)
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected both providers tried, got %v", client.requests)
	}
}

func TestGeoService_LookupAllProvidersFail(t *testing.T) {
	svc := NewGeoService()
	client := &fakeGeoClient{err: errors.New("network down")}
	svc.SetHTTPClient(client)

	if _, err := svc.Lookup(context.Background(), "203.0.113.9"); err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected both providers tried, got %v", client.requests)
	}
}
