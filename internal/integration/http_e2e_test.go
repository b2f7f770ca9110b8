//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "frontdesk/internal/adapters/http_server"
	redisad "frontdesk/internal/adapters/redis"
	"frontdesk/internal/app"
	mysqlrepo "frontdesk/internal/storage/mysql"
)

// startStack boots MySQL in docker, a miniredis, and the full HTTP router on
// top of them — the same wiring cmd/api does, minus the real listeners.
func startStack(t *testing.T) *httptest.Server {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=frontdesk"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/frontdesk?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migDir := os.Getenv("MIGRATIONS_DIR")
	if migDir == "" {
		t.Fatal("MIGRATIONS_DIR not set")
	}
	ents, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(migDir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	rates, err := repo.LoadRateTable(ctx)
	if err != nil {
		t.Fatalf("LoadRateTable: %v", err)
	}
	tax, err := repo.LoadTaxTable(ctx)
	if err != nil {
		t.Fatalf("LoadTaxTable: %v", err)
	}
	dinner, err := repo.LoadDinnerTable(ctx)
	if err != nil {
		t.Fatalf("LoadDinnerTable: %v", err)
	}

	cmd := app.NewBookingService(repo, cache, rates, tax, dinner, true, nil)
	qry := app.NewQueryService(repo, cache, time.Minute, rates, tax, dinner, true, nil)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{C: cmd, Q: qry})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func stayBody(room string) map[string]any {
	return map[string]any{
		"primaryName":      "Anna Muster",
		"primaryBirthdate": "1985-03-02",
		"guests":           []map[string]any{{"name": "Max Muster", "birthdate": "2014-08-20"}},
		"room":             room,
		"partySize":        2,
		"arrival":          "2027-07-05",
		"departure":        "2027-07-08",
		"halfBoard":        true,
		"meatCount":        1,
		"email":            "anna@example.org",
	}
}

func TestAPI_BookingLifecycle(t *testing.T) {
	ts := startStack(t)

	// create
	resp := postJSON(t, ts.URL+"/v1/bookings", stayBody("Doppelzimmer"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Price  string `json:"price"`
	}
	decodeBody(t, resp, &created)
	if created.ID == "" || created.Status != "Option" {
		t.Fatalf("created: %+v", created)
	}
	if created.Price == "" || created.Price == "0.00" {
		t.Fatalf("price must be quoted on create, got %q", created.Price)
	}

	// read back, with ETag
	resp, err := http.Get(ts.URL + "/v1/bookings/" + created.ID)
	if err != nil {
		t.Fatalf("GET booking: %v", err)
	}
	etag := resp.Header.Get("ETag")
	if resp.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("get: status %d etag %q", resp.StatusCode, etag)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/bookings/"+created.ID, nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional get: status %d", resp.StatusCode)
	}

	// legal transition
	resp = postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/status",
		map[string]any{"status": "Confirmed", "actor": "reception"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// checkout straight from Confirmed is illegal
	resp = postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/status",
		map[string]any{"status": "CheckedOut", "actor": "reception"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("illegal transition: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// history carries the confirm
	resp, err = http.Get(ts.URL + "/v1/bookings/" + created.ID + "/history")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	var recs []struct {
		Status string `json:"Status"`
	}
	decodeBody(t, resp, &recs)
	if len(recs) != 1 {
		t.Fatalf("history: %+v", recs)
	}
}

func TestAPI_PoolCapacityConflict(t *testing.T) {
	ts := startStack(t)

	// the Viererzimmer pool has two rooms, so two overlapping stays fit and
	// the third is turned away
	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/v1/bookings", stayBody("4er-Zimmer 1"))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %d: status %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := postJSON(t, ts.URL+"/v1/bookings", stayBody("4er-Zimmer 1"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overbooked pool: status %d, want 409", resp.StatusCode)
	}
	var prob struct {
		Title string `json:"title"`
	}
	decodeBody(t, resp, &prob)
	if prob.Title != "No capacity" {
		t.Fatalf("problem: %+v", prob)
	}

	// availability endpoint agrees
	resp, err := http.Get(ts.URL + "/v1/rooms/" + url.PathEscape("4er-Zimmer 1") + "/availability?from=2027-07-05&to=2027-07-08")
	if err != nil {
		t.Fatalf("GET availability: %v", err)
	}
	var avail struct {
		Available bool `json:"available"`
	}
	decodeBody(t, resp, &avail)
	if avail.Available {
		t.Fatal("pool should be full")
	}
}

func TestAPI_QuoteEndpoint(t *testing.T) {
	ts := startStack(t)

	// one adult, one child, Fri–Sun with half board: 2×(90+70) weekend nights,
	// 4+1.50 tax, 2×(35+20) dinners
	resp := postJSON(t, ts.URL+"/v1/quotes", map[string]any{
		"primaryBirthdate": "1985-03-02",
		"guestBirthdates":  []string{"2014-08-20"},
		"arrival":          "2027-07-09",
		"departure":        "2027-07-11",
		"halfBoard":        true,
		"meatCount":        1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quote: status %d", resp.StatusCode)
	}
	var out struct {
		Total string `json:"total"`
	}
	decodeBody(t, resp, &out)
	if out.Total != "435.50" {
		t.Fatalf("total: %q", out.Total)
	}
}
