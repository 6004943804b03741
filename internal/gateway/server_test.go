package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supplyChainTracking/internal/cache"
	"supplyChainTracking/internal/geo"
	"supplyChainTracking/internal/qr"
	"supplyChainTracking/internal/testutil"
	"supplyChainTracking/internal/tracker"
	"supplyChainTracking/models"
)

const testSecret = "gateway-test-secret"

type fakeBackend struct {
	segments  []models.RawSegment
	shipments []models.Shipment
	accepted  []string
	unread    int
}

func (f *fakeBackend) ListSegments(ctx context.Context, status string) ([]models.RawSegment, error) {
	return f.segments, nil
}

func (f *fakeBackend) ListIncomingSegments(ctx context.Context) ([]models.RawSegment, error) {
	return f.segments, nil
}

func (f *fakeBackend) AcceptSegment(ctx context.Context, id string) error {
	f.accepted = append(f.accepted, id)
	for i := range f.segments {
		if f.segments[i].SegmentID == id {
			f.segments[i].Status = "ACCEPTED"
		}
	}
	return nil
}

func (f *fakeBackend) TakeOverSegment(ctx context.Context, id string, pos geo.Coordinate) error {
	return nil
}

func (f *fakeBackend) HandOverSegment(ctx context.Context, id string, pos geo.Coordinate) error {
	return nil
}

func (f *fakeBackend) CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error) {
	s := models.Shipment{ShipmentID: "shp-1", DestinationID: req.DestinationID, PackageIDs: req.PackageIDs}
	f.shipments = append(f.shipments, s)
	return &s, nil
}

func (f *fakeBackend) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	return f.shipments, nil
}

func (f *fakeBackend) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return []models.Notification{{ID: "n1", Type: "SEGMENT_ACCEPTED", Severity: models.SeverityInfo}}, nil
}

func (f *fakeBackend) UnreadCount(ctx context.Context) (int, error) { return f.unread, nil }

func (f *fakeBackend) MarkNotificationRead(ctx context.Context, id string) error { return nil }

func (f *fakeBackend) DismissNotification(ctx context.Context, id string) error { return nil }

type fakeCatalog struct {
	packages []models.Package
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	return []models.Product{{ID: "p1", Name: "Vaccine"}}, nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = "p-new"
	return &p, nil
}

func (f *fakeCatalog) ListBatches(ctx context.Context) ([]models.Batch, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateBatch(ctx context.Context, b models.Batch) (*models.Batch, error) {
	b.ID = "b-new"
	return &b, nil
}

func (f *fakeCatalog) ListPackages(ctx context.Context) ([]models.Package, error) {
	return f.packages, nil
}

func (f *fakeCatalog) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	for i := range f.packages {
		if f.packages[i].ID == id {
			return &f.packages[i], nil
		}
	}
	return &models.Package{}, nil
}

func (f *fakeCatalog) ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	return []models.Checkpoint{{ID: "c1", Name: "Depot 4"}}, nil
}

func (f *fakeCatalog) ListSensorTypes(ctx context.Context) ([]models.SensorType, error) {
	return []models.SensorType{{ID: "st1", Name: "temperature"}}, nil
}

func newTestServer(t *testing.T, fb *fakeBackend, fc *fakeCatalog) *httptest.Server {
	t.Helper()
	tr := tracker.New(fb, cache.New(cache.SystemClock), nil, time.Minute, nil)
	srv := New(tr, fc, []byte("qr-test-key"), nil)
	ts := httptest.NewServer(srv.Routes(testSecret))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		testutil.SetBearer(req, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthzBypassesAuth(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, &fakeCatalog{})
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, &fakeCatalog{})
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/segments", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestListSegmentsBucketed(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{
		{SegmentID: "s1", Status: "pending"},
		{SegmentID: "s2", Status: "IN_TRANSIT"},
	}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/segments", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var stages []stageBucket
	if err := json.Unmarshal(body["stages"], &stages); err != nil {
		t.Fatalf("decode stages: %v", err)
	}
	if len(stages) != 6 {
		t.Fatalf("stage count = %d, want 6", len(stages))
	}
	if stages[0].Stage != "PENDING" || len(stages[0].Segments) != 1 {
		t.Fatalf("pending bucket wrong: %+v", stages[0])
	}
	if stages[2].Stage != "IN_TRANSIT" || len(stages[2].Segments) != 1 {
		t.Fatalf("in-transit bucket wrong: %+v", stages[2])
	}
}

func TestListSegmentsStageFilter(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "PENDING"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/segments?stage=pending", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var segs []models.SegmentView
	if err := json.Unmarshal(body["segments"], &segs); err != nil {
		t.Fatalf("decode segments: %v", err)
	}
	if len(segs) != 1 || segs[0].DisplayID != "s1" {
		t.Fatalf("segments = %+v", segs)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/segments?stage=bogus", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus stage status = %d, want 400", resp.StatusCode)
	}
}

func TestIncomingSegmentsEndpoint(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "PENDING"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/segments/incoming", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var segs []models.SegmentView
	if err := json.Unmarshal(body["segments"], &segs); err != nil {
		t.Fatalf("decode segments: %v", err)
	}
	if len(segs) != 1 || segs[0].DisplayID != "s1" {
		t.Fatalf("segments = %+v", segs)
	}
}

func TestAcceptSegmentEndpoint(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "PENDING"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/segments/s1/accept", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(fb.accepted) != 1 || fb.accepted[0] != "s1" {
		t.Fatalf("accepted = %v", fb.accepted)
	}
}

func TestTakeOverRequiresCoordinates(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "ACCEPTED"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/segments/s1/takeover", token,
		map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var msg string
	_ = json.Unmarshal(body["error"], &msg)
	if msg != "provide valid latitude and longitude" {
		t.Fatalf("error = %q", msg)
	}
}

func TestTakeOverRejectsMalformedBody(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "ACCEPTED"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/segments/s1/takeover",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	testutil.SetBearer(req, token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "invalid request body" {
		t.Fatalf("error = %q, want invalid request body", body["error"])
	}
}

func TestTakeOverAcceptsNumericCoordinates(t *testing.T) {
	fb := &fakeBackend{segments: []models.RawSegment{{SegmentID: "s1", Status: "ACCEPTED"}}}
	ts := newTestServer(t, fb, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "supplier")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/segments/s1/takeover", token,
		map[string]float64{"latitude": 40.7, "longitude": -74.0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateShipmentManufacturerOnly(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, &fakeCatalog{})

	req := models.CreateShipmentRequest{
		DestinationID: "c9",
		PackageIDs:    []string{"pkg1"},
		Legs:          []models.RouteLeg{{StartCheckpointID: "c1", EndCheckpointID: "c9"}},
	}

	supplier := testutil.GenerateJWTHS256(t, testSecret, "bob", "supplier")
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/shipments", supplier, req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("supplier status = %d, want 403", resp.StatusCode)
	}

	manufacturer := testutil.GenerateJWTHS256(t, testSecret, "alice", "manufacturer")
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/shipments", manufacturer, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("manufacturer status = %d, want 201", resp.StatusCode)
	}
	var id string
	_ = json.Unmarshal(body["shipmentId"], &id)
	if id != "shp-1" {
		t.Fatalf("shipmentId = %q", id)
	}
}

func TestCreateShipmentValidationMessage(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, &fakeCatalog{})
	manufacturer := testutil.GenerateJWTHS256(t, testSecret, "alice", "manufacturer")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/shipments", manufacturer,
		models.CreateShipmentRequest{DestinationID: "c9"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var msg string
	_ = json.Unmarshal(body["error"], &msg)
	if msg != "Select at least one package" {
		t.Fatalf("error = %q", msg)
	}
}

func TestPackageQREndpoint(t *testing.T) {
	fc := &fakeCatalog{packages: []models.Package{
		{ID: "pkg1", Code: "PK-100", BatchCode: "B-7", SensorTypes: []string{"temperature", "shock"}},
	}}
	ts := newTestServer(t, &fakeBackend{}, fc)
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "manufacturer")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/packages/pkg1/qr", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload string
	_ = json.Unmarshal(body["payload"], &payload)
	decoded, err := qr.Parse(payload, []byte("qr-test-key"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if decoded.PackageCode != "PK-100" || decoded.BatchCode != "B-7" || len(decoded.Sensors) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestUnreadCountEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{unread: 7}, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "user")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/notifications/unread-count", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var count int
	_ = json.Unmarshal(body["count"], &count)
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, &fakeCatalog{})
	token := testutil.GenerateJWTHS256(t, testSecret, "alice", "user")

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/events", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var state string
	_ = json.Unmarshal(body["connectionState"], &state)
	if state != "DISCONNECTED" {
		t.Fatalf("connectionState = %q, want DISCONNECTED", state)
	}
}
