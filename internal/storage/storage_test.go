package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbuilder/internal/domain"
	"formbuilder/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "formbuilder.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createForm(t *testing.T, forms *storage.FormStore, id string) *domain.Form {
	t.Helper()
	f := &domain.Form{ID: id, Name: "Form " + id, ShareURL: "share-" + id}
	require.NoError(t, forms.CreateForm(f))
	return f
}

// ─────────────────────────────────────────────────────────────
// FormStore
// ─────────────────────────────────────────────────────────────

func TestFormStore_CreateAndGet(t *testing.T) {
	forms := storage.NewFormStore(openDB(t))
	createForm(t, forms, "f1")

	got, err := forms.GetForm("f1")
	require.NoError(t, err)
	assert.Equal(t, "Form f1", got.Name)
	assert.Equal(t, "[]", got.Content)
	assert.False(t, got.Published)

	byURL, err := forms.GetFormByShareURL("share-f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", byURL.ID)

	_, err = forms.GetForm("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormStore_PublishedFormsAreFrozen(t *testing.T) {
	forms := storage.NewFormStore(openDB(t))
	createForm(t, forms, "f1")

	require.NoError(t, forms.UpdateContent("f1", `[{"id":"a","type":"SeparatorField","extraAttributes":{}}]`))
	require.NoError(t, forms.SetPublished("f1"))
	assert.ErrorIs(t, forms.UpdateContent("f1", "[]"), domain.ErrNotFound)

	got, _ := forms.GetForm("f1")
	assert.True(t, got.Published)
	def, err := got.Definition()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, def.IDs())
}

func TestFormStore_ListAndDelete(t *testing.T) {
	db := openDB(t)
	forms := storage.NewFormStore(db)
	subs := storage.NewSubmissionStore(db)
	createForm(t, forms, "f1")
	createForm(t, forms, "f2")
	require.NoError(t, subs.CreateSubmission(&domain.Submission{ID: "s1", FormID: "f1", Content: "{}"}))

	list, err := forms.ListForms()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, forms.DeleteForm("f1"))
	list, _ = forms.ListForms()
	assert.Len(t, list, 1)
	remaining, _ := subs.ListSubmissions("f1")
	assert.Empty(t, remaining)
}

func TestFormStore_IncrementVisits(t *testing.T) {
	forms := storage.NewFormStore(openDB(t))
	createForm(t, forms, "f1")
	require.NoError(t, forms.IncrementVisits("f1"))
	require.NoError(t, forms.IncrementVisits("f1"))
	got, _ := forms.GetForm("f1")
	assert.Equal(t, 2, got.Visits)
	assert.ErrorIs(t, forms.IncrementVisits("nope"), domain.ErrNotFound)
}

func TestFormStore_Fingerprint(t *testing.T) {
	db := openDB(t)
	forms := storage.NewFormStore(db)
	empty, err := forms.Fingerprint()
	require.NoError(t, err)

	createForm(t, forms, "f1")
	one, err := forms.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, empty, one)

	require.NoError(t, storage.NewSubmissionStore(db).CreateSubmission(&domain.Submission{ID: "s1", FormID: "f1", Content: "{}"}))
	two, _ := forms.Fingerprint()
	assert.NotEqual(t, one, two)
}

// ─────────────────────────────────────────────────────────────
// SubmissionStore
// ─────────────────────────────────────────────────────────────

func TestSubmissionStore_CountsAndSince(t *testing.T) {
	db := openDB(t)
	forms := storage.NewFormStore(db)
	subs := storage.NewSubmissionStore(db)
	createForm(t, forms, "f1")

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, subs.CreateSubmission(&domain.Submission{
			ID: id, FormID: "f1", Content: `{"a":"x"}`, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, _ := forms.GetForm("f1")
	assert.Equal(t, 3, got.Submissions)

	all, err := subs.ListSubmissions("f1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	since, err := subs.ListSubmissionsSince("f1", base)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "s2", since[0].ID)

	err = subs.CreateSubmission(&domain.Submission{ID: "x", FormID: "ghost", Content: "{}"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// HistoryStore
// ─────────────────────────────────────────────────────────────

func TestHistoryStore_PushAndNavigate(t *testing.T) {
	db := openDB(t)
	createForm(t, storage.NewFormStore(db), "f1")
	h := storage.NewHistoryStore(db, 0)

	_, err := h.Push("f1", "n1", "", "open", "[]")
	require.NoError(t, err)
	_, err = h.Push("f1", "n2", "n1", "add", `[{"id":"a","type":"SeparatorField"}]`)
	require.NoError(t, err)

	cur, err := h.Current("f1")
	require.NoError(t, err)
	assert.Equal(t, "n2", cur.ID)
	require.NotNil(t, cur.ParentID)
	assert.Equal(t, "n1", *cur.ParentID)

	require.NoError(t, h.GoTo("f1", "n1"))
	child, err := h.LatestChild("n1")
	require.NoError(t, err)
	assert.Equal(t, "n2", child.ID)

	_, err = h.LatestChild("n2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tree, err := h.LoadTree("f1")
	require.NoError(t, err)
	assert.Equal(t, "n1", tree.RootID)
	assert.Equal(t, "n1", tree.CurrentID)
	assert.Len(t, tree.Nodes, 2)
}

func TestHistoryStore_Prunes(t *testing.T) {
	db := openDB(t)
	createForm(t, storage.NewFormStore(db), "f1")
	h := storage.NewHistoryStore(db, 5)

	parent := ""
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		_, err := h.Push("f1", id, parent, "step", "[]")
		require.NoError(t, err)
		parent = id
	}

	tree, err := h.LoadTree("f1")
	require.NoError(t, err)
	assert.Len(t, tree.Nodes, 5)
	assert.Equal(t, "h", tree.CurrentID)
	assert.Equal(t, "d", tree.RootID)
	assert.Nil(t, tree.Nodes[0].ParentID)
}

func TestHistoryStore_EmptyTree(t *testing.T) {
	h := storage.NewHistoryStore(openDB(t), 0)
	tree, err := h.LoadTree("none")
	assert.NoError(t, err)
	assert.Nil(t, tree)
	_, err = h.Current("none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// ExportDestinationStore
// ─────────────────────────────────────────────────────────────

func TestExportDestinationStore(t *testing.T) {
	db := openDB(t)
	createForm(t, storage.NewFormStore(db), "f1")
	dests := storage.NewExportDestinationStore(db)

	manual := &domain.ExportDestination{ID: "d1", FormID: "f1", Name: "archive", Driver: domain.ExportDriverSQLite, Host: "/tmp/a.db", Table: "subs", Enabled: true}
	cron := &domain.ExportDestination{ID: "d2", FormID: "f1", Name: "warehouse", Driver: domain.ExportDriverPostgres, Host: "db", Port: 5432, Table: "subs", Schedule: "@hourly", Enabled: true}
	require.NoError(t, dests.CreateDestination(manual))
	require.NoError(t, dests.CreateDestination(cron))

	got, err := dests.GetDestination("d2")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportDriverPostgres, got.Driver)
	assert.Equal(t, 5432, got.Port)

	scheduled, err := dests.ListScheduledDestinations()
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "d2", scheduled[0].ID)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, dests.MarkExported("d1", at))
	got, _ = dests.GetDestination("d1")
	assert.True(t, got.LastExport.Equal(at))

	got.Schedule = "*/5 * * * *"
	require.NoError(t, dests.UpdateDestination(got))
	scheduled, _ = dests.ListScheduledDestinations()
	assert.Len(t, scheduled, 2)

	require.NoError(t, dests.DeleteDestination("d1"))
	_, err = dests.GetDestination("d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────
// ApprovalStore
// ─────────────────────────────────────────────────────────────

func TestApprovalStore(t *testing.T) {
	approvals := storage.NewApprovalStore(openDB(t))

	require.NoError(t, approvals.Create(&storage.PendingApproval{ID: "a1", Tool: "delete_form", Description: "Delete form", Metadata: "{}"}))
	require.NoError(t, approvals.Create(&storage.PendingApproval{ID: "a2", Tool: "publish_form", Description: "Publish", Metadata: "{}"}))

	pending, err := approvals.ListPending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, approvals.Resolve("a1", true))
	status, err := approvals.Status("a1")
	require.NoError(t, err)
	assert.Equal(t, storage.ApprovalApproved, status)

	assert.ErrorIs(t, approvals.Resolve("a1", false), domain.ErrNotFound)

	pending, _ = approvals.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "a2", pending[0].ID)

	require.NoError(t, approvals.Delete("a2"))
	_, err = approvals.Status("a2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
