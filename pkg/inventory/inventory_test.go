package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snapdrill/snapdrill/pkg/platform"
)

// graphqlStub dispatches GraphQL requests to canned responses chosen by the
// operation name in the query text and the endCursor variable.
type graphqlStub struct {
	t *testing.T
	// responses maps "<fragment>|<endCursor>" to a raw data payload.
	responses map[string]string
}

func (s *graphqlStub) handler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.t.Fatalf("failed to decode graphql body: %v", err)
	}
	cursor, _ := body.Variables["endCursor"].(string)

	for key, data := range s.responses {
		parts := strings.SplitN(key, "|", 2)
		if strings.Contains(body.Query, parts[0]) && parts[1] == cursor {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": ` + data + `}`))
			return
		}
	}
	s.t.Errorf("no canned response for query %q cursor %q", firstLine(body.Query), cursor)
	w.WriteHeader(http.StatusBadRequest)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func newStubClient(t *testing.T, stub *graphqlStub) *platform.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/client_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok"}`))
	})
	mux.HandleFunc("/api/graphql", stub.handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := platform.Connect(context.Background(), platform.Settings{
		BaseURL:  srv.URL,
		ClientID: "id", ClientSecret: "secret",
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return client
}

// TestListVirtualMachinesPagination tests cursor walking and cross-page
// de-duplication
func TestListVirtualMachinesPagination(t *testing.T) {
	stub := &graphqlStub{t: t, responses: map[string]string{
		"vSphereVmNewConnection|": `{"vSphereVmNewConnection": {
			"nodes": [
				{"id": "vm-1", "name": "alpha", "guestOsName": "Linux", "agentStatus": {"agentStatus": "Connected"}, "cluster": {"id": "c-1", "name": "east"}, "effectiveSlaDomain": {"id": "s-1", "name": "Gold"}},
				{"id": "vm-2", "name": "beta", "guestOsName": "Windows", "agentStatus": {"agentStatus": "Connected"}, "cluster": {"id": "c-1", "name": "east"}, "effectiveSlaDomain": {"id": "s-1", "name": "Gold"}}
			],
			"pageInfo": {"endCursor": "cur-1", "hasNextPage": true}
		}}`,
		"vSphereVmNewConnection|cur-1": `{"vSphereVmNewConnection": {
			"nodes": [
				{"id": "vm-2", "name": "beta", "guestOsName": "Windows", "agentStatus": {"agentStatus": "Connected"}, "cluster": {"id": "c-1", "name": "east"}, "effectiveSlaDomain": {"id": "s-1", "name": "Gold"}},
				{"id": "vm-3", "name": "gamma", "guestOsName": "", "agentStatus": {}, "cluster": {"id": "c-2", "name": "west"}, "effectiveSlaDomain": {"id": "s-2", "name": "Bronze"}}
			],
			"pageInfo": {"endCursor": "", "hasNextPage": false}
		}}`,
	}}
	client := newStubClient(t, stub)

	vms, err := ListVirtualMachines(context.Background(), client, HypervisorVSphere)
	if err != nil {
		t.Fatalf("ListVirtualMachines failed: %v", err)
	}
	if len(vms) != 3 {
		t.Fatalf("got %d VMs, want 3 (vm-2 de-duplicated)", len(vms))
	}
	if vms[0].ID != "vm-1" || vms[1].ID != "vm-2" || vms[2].ID != "vm-3" {
		t.Errorf("order = %s, %s, %s", vms[0].ID, vms[1].ID, vms[2].ID)
	}
	if vms[2].GuestOS != "Unknown" || vms[2].AgentStatus != "Unknown" {
		t.Errorf("missing fields not defaulted: %+v", vms[2])
	}
}

// TestListOracleDatabasesSkipsUnprotected tests that databases without an
// SLA are dropped
func TestListOracleDatabasesSkipsUnprotected(t *testing.T) {
	stub := &graphqlStub{t: t, responses: map[string]string{
		"oracleDatabases|": `{"oracleDatabases": {
			"nodes": [
				{"id": "db-1", "name": "orcl", "effectiveSlaDomain": {"id": "s-1", "name": "Gold"}, "cluster": {"id": "c-1", "name": "east"}},
				{"id": "db-2", "name": "scratch", "effectiveSlaDomain": {"id": "", "name": ""}, "cluster": {"id": "c-1", "name": "east"}}
			],
			"pageInfo": {"endCursor": "", "hasNextPage": false}
		}}`,
	}}
	client := newStubClient(t, stub)

	dbs, err := ListOracleDatabases(context.Background(), client)
	if err != nil {
		t.Fatalf("ListOracleDatabases failed: %v", err)
	}
	if len(dbs) != 1 || dbs[0].ID != "db-1" {
		t.Errorf("dbs = %+v, want only db-1", dbs)
	}
}

// TestNewestSnapshotRejectsUnusable tests the expiry and quarantine checks
func TestNewestSnapshotRejectsUnusable(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"usable", `{"oracleDatabase": {"newestSnapshot": {"id": "snap-1", "date": "2026-08-20T01:00:00Z", "isExpired": false, "isQuarantined": false}}}`, false},
		{"expired", `{"oracleDatabase": {"newestSnapshot": {"id": "snap-1", "date": "2026-08-20T01:00:00Z", "isExpired": true, "isQuarantined": false}}}`, true},
		{"quarantined", `{"oracleDatabase": {"newestSnapshot": {"id": "snap-1", "date": "2026-08-20T01:00:00Z", "isExpired": false, "isQuarantined": true}}}`, true},
		{"no snapshots", `{"oracleDatabase": {"newestSnapshot": null}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &graphqlStub{t: t, responses: map[string]string{
				"newestSnapshot|": tt.payload,
			}}
			client := newStubClient(t, stub)

			snap, err := NewestSnapshot(context.Background(), client, "db-1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewestSnapshot failed: %v", err)
			}
			if snap.ID != "snap-1" {
				t.Errorf("snap.ID = %s, want snap-1", snap.ID)
			}
		})
	}
}

// TestWriteCSV tests the export format
func TestWriteCSV(t *testing.T) {
	vms := []VirtualMachine{
		{ID: "vm-1", Name: "alpha", Hypervisor: HypervisorVSphere, GuestOS: "Linux", AgentStatus: "Connected", Cluster: NamedObject{Name: "east"}, SLADomain: NamedObject{Name: "Gold"}},
		{ID: "vm-2", Name: "beta", Hypervisor: HypervisorNutanix, GuestOS: "Windows", AgentStatus: "Disconnected"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, vms); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "VM Name,VM ID,OS,RBS Agent Status,Cluster,SLA Domain,Type" {
		t.Errorf("header = %s", lines[0])
	}
	if lines[1] != "alpha,vm-1,Linux,Connected,east,Gold,VMware" {
		t.Errorf("row 1 = %s", lines[1])
	}
	// Empty cluster and SLA fall back to Unknown.
	if lines[2] != "beta,vm-2,Windows,Disconnected,Unknown,Unknown,AHV" {
		t.Errorf("row 2 = %s", lines[2])
	}
}
