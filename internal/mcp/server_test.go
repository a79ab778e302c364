package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/designer"
	"formbuilder/internal/domain"
	"formbuilder/internal/fields"
	"formbuilder/internal/secret"
	"formbuilder/internal/service"
	"formbuilder/internal/storage"
)

// approvingEmitter answers every approval request with the configured verdict.
type approvingEmitter struct {
	mu      sync.Mutex
	server  *Server
	approve bool
	events  []string
}

func (e *approvingEmitter) Emit(ctx context.Context, event string, data any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	srv, approve := e.server, e.approve
	e.mu.Unlock()
	if event != EventApprovalRequired || srv == nil {
		return
	}
	id := data.(PendingAction).ID
	go func() {
		if approve {
			srv.Approve(id)
		} else {
			srv.Reject(id)
		}
	}()
}

func newTestServer(t *testing.T) (*Server, *approvingEmitter, *storage.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "formbuilder.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}

	emitter := &approvingEmitter{approve: true}
	registry := fields.NewRegistry()
	forms := service.NewFormService(storage.NewFormStore(db), storage.NewSubmissionStore(db), registry, emitter)
	forms.SetIDGenerator(ids)
	dsg := service.NewDesignerService(forms, storage.NewHistoryStore(db, 0), registry, emitter, designer.DefaultThresholds())
	dsg.SetIDGenerator(ids)
	exports := service.NewExportService(storage.NewExportDestinationStore(db), storage.NewSubmissionStore(db), forms, secret.NewMemoryStore(), emitter)
	t.Cleanup(exports.Stop)
	templates := service.NewTemplateService(filepath.Join(dir, "templates"), forms, emitter)

	srv := New(context.Background(), Deps{
		Emitter:   emitter,
		Registry:  registry,
		Forms:     forms,
		Designer:  dsg,
		Templates: templates,
		Exports:   exports,
		ShareLink: func(u string) string { return "http://localhost/f/" + u },
	})
	emitter.server = srv
	return srv, emitter, db
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func createForm(t *testing.T, s *Server) string {
	t.Helper()
	res, err := s.handleCreateForm(context.Background(), call(map[string]any{"name": "Signup form"}))
	require.NoError(t, err)
	return decode[formSummary](t, res).ID
}

func TestFormTools_CreateAndList(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleCreateForm(ctx, call(map[string]any{"name": "abc"}))
	assert.Error(t, err)

	id := createForm(t, s)
	res, err := s.handleListForms(ctx, call(nil))
	require.NoError(t, err)
	list := decode[[]formSummary](t, res)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.False(t, list[0].Published)
	assert.Empty(t, list[0].ShareLink)
}

func TestFieldTools_EditLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)

	res, err := s.handleAddField(ctx, call(map[string]any{
		"formId": formID, "kind": "TextField", "attributes": `{"label":"Name","required":true}`,
	}))
	require.NoError(t, err)
	name := decode[domain.FieldInstance](t, res)
	attrs := name.Attributes.(domain.TextAttributes)
	assert.Equal(t, "Name", attrs.Label)
	assert.True(t, attrs.Required)

	res, err = s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "TitleField", "index": float64(0)}))
	require.NoError(t, err)
	title := decode[domain.FieldInstance](t, res)

	stored, err := s.forms.Definition(formID)
	require.NoError(t, err)
	assert.Equal(t, []string{title.ID, name.ID}, stored.IDs())

	res, err = s.handleMoveField(ctx, call(map[string]any{
		"formId": formID, "fieldId": title.ID, "targetId": name.ID, "position": "below",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{name.ID, title.ID}, decode[[]string](t, res))

	_, err = s.handleUpdateField(ctx, call(map[string]any{
		"formId": formID, "fieldId": name.ID, "attributes": `{"placeholder":"Jane"}`,
	}))
	require.NoError(t, err)
	stored, _ = s.forms.Definition(formID)
	updated := stored[0].Attributes.(domain.TextAttributes)
	assert.Equal(t, "Jane", updated.Placeholder)
	assert.Equal(t, "Name", updated.Label)

	_, err = s.handleUndo(ctx, call(map[string]any{"formId": formID}))
	require.NoError(t, err)
	stored, _ = s.forms.Definition(formID)
	assert.Equal(t, "Value here...", stored[0].Attributes.(domain.TextAttributes).Placeholder)

	_, err = s.handleRedo(ctx, call(map[string]any{"formId": formID}))
	require.NoError(t, err)
	stored, _ = s.forms.Definition(formID)
	assert.Equal(t, "Jane", stored[0].Attributes.(domain.TextAttributes).Placeholder)

	res, err = s.handleRemoveField(ctx, call(map[string]any{"formId": formID, "fieldId": title.ID}))
	require.NoError(t, err)
	assert.Equal(t, []string{name.ID}, decode[[]string](t, res))
}

func TestFieldTools_SelectOptionsDeduplicated(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)

	res, err := s.handleAddField(ctx, call(map[string]any{
		"formId": formID, "kind": "SelectField", "attributes": `{"label":"Color","options":["red","red","blue"]}`,
	}))
	require.NoError(t, err)
	sel := decode[domain.FieldInstance](t, res)
	assert.Equal(t, []string{"red", "blue"}, sel.Attributes.(domain.SelectAttributes).Options)

	_, err = s.handleUpdateField(ctx, call(map[string]any{
		"formId": formID, "fieldId": sel.ID, "attributes": `{"options":["a","b","a"]}`,
	}))
	require.NoError(t, err)
	stored, err := s.forms.Definition(formID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, stored[0].Attributes.(domain.SelectAttributes).Options)
}

func TestFieldTools_Rejections(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)

	_, err := s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "VideoField"}))
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	_, err = s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "TextField", "attributes": `[1]`}))
	assert.Error(t, err)

	_, err = s.handleUpdateField(ctx, call(map[string]any{"formId": formID, "fieldId": "ghost", "attributes": `{}`}))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, _ := s.forms.Definition(formID)
	assert.Empty(t, stored)
}

func TestDescribeFieldKind(t *testing.T) {
	s, _, _ := newTestServer(t)
	res, err := s.handleDescribeFieldKind(context.Background(), call(map[string]any{"kind": "SelectField"}))
	require.NoError(t, err)

	var out struct {
		Layout bool `json:"layout"`
		Schema struct {
			Type       string                    `json:"type"`
			Properties map[string]map[string]any `json:"properties"`
		} `json:"schema"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.False(t, out.Layout)
	assert.Equal(t, "object", out.Schema.Type)
	assert.Contains(t, out.Schema.Properties, "label")
	assert.Contains(t, out.Schema.Properties, "options")
	assert.Equal(t, "array", out.Schema.Properties["options"]["type"])

	_, err = s.handleDescribeFieldKind(context.Background(), call(map[string]any{"kind": "nope"}))
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestPublishForm_Approval(t *testing.T) {
	s, emitter, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)
	s.approval.SetTimeout(5 * time.Second)

	emitter.approve = false
	res, err := s.handlePublishForm(ctx, call(map[string]any{"formId": formID}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "not approved")
	f, _ := s.forms.GetForm(formID)
	assert.False(t, f.Published)

	emitter.mu.Lock()
	emitter.approve = true
	emitter.mu.Unlock()
	res, err = s.handlePublishForm(ctx, call(map[string]any{"formId": formID}))
	require.NoError(t, err)
	sum := decode[formSummary](t, res)
	assert.True(t, sum.Published)
	assert.Contains(t, sum.ShareLink, "http://localhost/f/")

	_, err = s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "TextField"}))
	assert.ErrorIs(t, err, service.ErrFormPublished)
}

func TestDeleteForm_Approval(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)
	_, err := s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "EmailField"}))
	require.NoError(t, err)

	_, err = s.handleDeleteForm(ctx, call(map[string]any{"formId": formID}))
	require.NoError(t, err)
	_, err = s.forms.GetForm(formID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprovalQueue_StoreMode(t *testing.T) {
	_, _, db := newTestServer(t)
	store := storage.NewApprovalStore(db)
	q := NewApprovalQueue(context.Background(), &approvingEmitter{})
	q.SetStore(store)
	q.interval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- q.Request("delete_form", "Delete form") }()

	var pending []storage.PendingApproval
	require.Eventually(t, func() bool {
		pending, _ = store.ListPending()
		return len(pending) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "delete_form", pending[0].Tool)
	require.NoError(t, store.Resolve(pending[0].ID, true))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not return")
	}
	_, err := store.Status(pending[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprovalQueue_Timeout(t *testing.T) {
	emitter := &approvingEmitter{}
	q := NewApprovalQueue(context.Background(), emitter)
	q.SetTimeout(20 * time.Millisecond)

	err := q.Request("publish_form", "Publish")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, []string{EventApprovalRequired, EventApprovalDismissed}, emitter.events)
}

func TestFormIDFromURI(t *testing.T) {
	assert.Equal(t, "abc", formIDFromURI("formbuilder://form/abc/definition"))
	assert.Empty(t, formIDFromURI("formbuilder://form/a/b/definition"))
	assert.Empty(t, formIDFromURI("formbuilder://forms"))
}

func TestResources(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()
	formID := createForm(t, s)
	_, err := s.handleAddField(ctx, call(map[string]any{"formId": formID, "kind": "DateField"}))
	require.NoError(t, err)

	var req mcp.ReadResourceRequest
	req.Params.URI = "formbuilder://form/" + formID + "/definition"
	contents, err := s.handleDefinitionResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents).Text
	assert.Contains(t, text, `"type": "DateField"`)
}
