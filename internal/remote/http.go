package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kairos-track/kairos/internal/model"
)

// HTTPClient implements Client against the service's REST API.
type HTTPClient struct {
	base  string
	token string
	http  *http.Client
}

// NewHTTPClient builds a client for the given base URL, authenticating
// every call with the api token.
func NewHTTPClient(baseURL, apiToken string) *HTTPClient {
	return &HTTPClient{
		base:  baseURL,
		token: apiToken,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func kindPath(kind model.Kind) (string, error) {
	switch kind {
	case model.KindTimeEntry:
		return "time_entries", nil
	case model.KindProject:
		return "projects", nil
	case model.KindClient:
		return "clients", nil
	case model.KindTag:
		return "tags", nil
	case model.KindTask:
		return "tasks", nil
	default:
		return "", fmt.Errorf("kind %q cannot be pushed", kind)
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, auth func(*http.Request)) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		auth(req)
	} else {
		req.SetBasicAuth(c.token, "api_token")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: %w", method, path, statusError(resp.StatusCode, string(payload)))
	}
	return payload, nil
}

// dataEnvelope is the service's {"data": …} response wrapper.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(payload []byte) json.RawMessage {
	var env dataEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return payload
}

// merge copies the server-assigned identity and timestamps from the
// round-tripped record onto the local record, preserving local ids.
func merge(local model.Record, fromServer model.Record) model.Record {
	meta := local.Meta()
	srv := fromServer.Meta()
	meta.RemoteID = srv.RemoteID
	meta.ModifiedAt = srv.ModifiedAt
	meta.SyncState = model.SyncSynced
	return fromServer.WithMeta(meta)
}

func (c *HTTPClient) Create(ctx context.Context, rec model.Record) (model.Record, error) {
	path, err := kindPath(rec.Kind())
	if err != nil {
		return nil, err
	}
	body, err := MarshalRecord(rec)
	if err != nil {
		return nil, err
	}
	payload, err := c.do(ctx, http.MethodPost, "/"+path, body, nil)
	if err != nil {
		return nil, err
	}
	created, err := UnmarshalRecord(rec.Kind(), unwrap(payload))
	if err != nil {
		return nil, err
	}
	return merge(rec, created), nil
}

func (c *HTTPClient) Update(ctx context.Context, rec model.Record) (model.Record, error) {
	path, err := kindPath(rec.Kind())
	if err != nil {
		return nil, err
	}
	meta := rec.Meta()
	if meta.RemoteID == nil {
		return nil, &model.MissingRemoteIDError{Kind: rec.Kind(), LocalID: meta.ID, Relation: "self"}
	}
	body, err := MarshalRecord(rec)
	if err != nil {
		return nil, err
	}
	payload, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/%s/%d", path, *meta.RemoteID), body, nil)
	if err != nil {
		return nil, err
	}
	updated, err := UnmarshalRecord(rec.Kind(), unwrap(payload))
	if err != nil {
		return nil, err
	}
	return merge(rec, updated), nil
}

func (c *HTTPClient) Delete(ctx context.Context, rec model.Record) error {
	path, err := kindPath(rec.Kind())
	if err != nil {
		return err
	}
	meta := rec.Meta()
	if meta.RemoteID == nil {
		return &model.MissingRemoteIDError{Kind: rec.Kind(), LocalID: meta.ID, Relation: "self"}
	}
	_, err = c.do(ctx, http.MethodDelete, fmt.Sprintf("/%s/%d", path, *meta.RemoteID), nil, nil)
	return err
}

func (c *HTTPClient) ListTimeEntries(ctx context.Context, from time.Time, days int) ([]model.TimeEntry, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("days", strconv.Itoa(days))
	payload, err := c.do(ctx, http.MethodGet, "/me/time_entries?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(unwrap(payload), &raw); err != nil {
		return nil, fmt.Errorf("parse time entries: %w", err)
	}
	entries := make([]model.TimeEntry, 0, len(raw))
	for _, item := range raw {
		rec, err := UnmarshalRecord(model.KindTimeEntry, item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rec.(model.TimeEntry))
	}
	return entries, nil
}

// wireChanges is the delta bundle's wire shape.
type wireChanges struct {
	Workspaces  []wireWorkspace `json:"workspaces"`
	Tags        []wireTag       `json:"tags"`
	Clients     []wireClient    `json:"clients"`
	Projects    []wireProject   `json:"projects"`
	Tasks       []wireTask      `json:"tasks"`
	TimeEntries []wireTimeEntry `json:"time_entries"`
	User        *wireUser       `json:"user"`
	Since       time.Time       `json:"since"`
}

func (c *HTTPClient) GetChanges(ctx context.Context, since *time.Time) (ChangesBundle, error) {
	path := "/me/changes"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	payload, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return ChangesBundle{}, err
	}
	var w wireChanges
	if err := json.Unmarshal(unwrap(payload), &w); err != nil {
		return ChangesBundle{}, fmt.Errorf("parse changes: %w", err)
	}

	bundle := ChangesBundle{ServerTime: w.Since}
	for _, x := range w.Workspaces {
		bundle.Workspaces = append(bundle.Workspaces, workspaceFromWire(x))
	}
	for _, x := range w.Tags {
		bundle.Tags = append(bundle.Tags, tagFromWire(x))
	}
	for _, x := range w.Clients {
		bundle.Clients = append(bundle.Clients, clientFromWire(x))
	}
	for _, x := range w.Projects {
		bundle.Projects = append(bundle.Projects, projectFromWire(x))
	}
	for _, x := range w.Tasks {
		bundle.Tasks = append(bundle.Tasks, taskFromWire(x))
	}
	for _, x := range w.TimeEntries {
		bundle.TimeEntries = append(bundle.TimeEntries, timeEntryFromWire(x))
	}
	if w.User != nil {
		u := userFromWire(*w.User)
		bundle.User = &u
	}
	return bundle, nil
}

func (c *HTTPClient) Signup(ctx context.Context, creds Credentials) (*model.User, error) {
	body, err := json.Marshal(map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode signup: %w", err)
	}
	payload, err := c.do(ctx, http.MethodPost, "/signups", body, func(*http.Request) {})
	if err != nil {
		return nil, err
	}
	rec, err := UnmarshalRecord(model.KindUser, unwrap(payload))
	if err != nil {
		return nil, err
	}
	user := rec.(model.User)
	return &user, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, creds Credentials) (*model.User, error) {
	auth := func(req *http.Request) {
		if creds.APIToken != "" {
			req.SetBasicAuth(creds.APIToken, "api_token")
		} else {
			req.SetBasicAuth(creds.Email, creds.Password)
		}
	}
	payload, err := c.do(ctx, http.MethodGet, "/me", nil, auth)
	if err != nil {
		return nil, err
	}
	rec, err := UnmarshalRecord(model.KindUser, unwrap(payload))
	if err != nil {
		return nil, err
	}
	user := rec.(model.User)
	return &user, nil
}
