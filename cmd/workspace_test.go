package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/registry"
	"github.com/marcus/vc/internal/repo"
)

func initTestRepo(t *testing.T) *repo.Repo {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// addTracked puts a workspace in the view and, when dir is non-empty,
// in the registry too.
func addTracked(t *testing.T, r *repo.Repo, name models.WorkspaceName, dir string) {
	t.Helper()
	commit, err := repo.NewCommitID()
	if err != nil {
		t.Fatal(err)
	}
	tx, err := r.StartTransaction()
	if err != nil {
		t.Fatalf("StartTransaction failed: %v", err)
	}
	if err := tx.SetWCCommit(name, commit); err != nil {
		t.Fatalf("SetWCCommit failed: %v", err)
	}
	if err := tx.Finish("add workspace " + name.Symbol()); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if dir != "" {
		reg, err := registry.Load(r.ControlDir())
		if err != nil {
			t.Fatalf("registry.Load failed: %v", err)
		}
		if err := reg.Set(name, dir); err != nil {
			t.Fatalf("registry.Set failed: %v", err)
		}
	}
}

func TestForgetCurrentOnLegacyRepo(t *testing.T) {
	r := initTestRepo(t)

	// A repository from before the registry existed: no store
	// directory at all.
	if err := os.RemoveAll(filepath.Join(r.ControlDir(), "workspace_store")); err != nil {
		t.Fatal(err)
	}

	if err := forgetWorkspaces(r, []models.WorkspaceName{r.CurrentWorkspace()}); err != nil {
		t.Fatalf("forget failed: %v", err)
	}

	if _, ok, _ := r.WCCommit(models.DefaultWorkspaceName); ok {
		t.Error("view still tracks the forgotten workspace")
	}

	// Forget recreated the store directory, empty.
	entries, err := os.ReadDir(filepath.Join(r.ControlDir(), "workspace_store"))
	if err != nil {
		t.Fatalf("store directory missing after forget: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("store directory not empty: %d entries", len(entries))
	}

	ops, err := r.Ops(1)
	if err != nil || len(ops) == 0 {
		t.Fatalf("no oplog entry after forget: %v", err)
	}
	if ops[0].Description != "forget workspace default" {
		t.Errorf("description = %q", ops[0].Description)
	}
}

func TestForgetUnknownFailsBeforeMutation(t *testing.T) {
	r := initTestRepo(t)
	addTracked(t, r, models.WorkspaceName("main"), t.TempDir())

	err := forgetWorkspaces(r, []models.WorkspaceName{"main", "other"})
	if err == nil {
		t.Fatal("forget of unknown workspace should fail")
	}
	if got := err.Error(); got != "No such workspace: other" {
		t.Errorf("error = %q, want %q", got, "No such workspace: other")
	}

	// Pre-validation failed, so nothing changed.
	if _, ok, _ := r.WCCommit(models.WorkspaceName("main")); !ok {
		t.Error("view lost main although the forget failed")
	}
	reg, _ := registry.Load(r.ControlDir())
	if !reg.Exists(models.WorkspaceName("main")) {
		t.Error("registry lost main although the forget failed")
	}
}

func TestForgetMultiplePreservesInputOrder(t *testing.T) {
	r := initTestRepo(t)
	for _, name := range []string{"a", "b", "c"} {
		addTracked(t, r, models.WorkspaceName(name), t.TempDir())
	}

	names := []models.WorkspaceName{"b", "c", "a"}
	if err := forgetWorkspaces(r, names); err != nil {
		t.Fatalf("forget failed: %v", err)
	}

	ops, err := r.Ops(1)
	if err != nil || len(ops) == 0 {
		t.Fatalf("no oplog entry: %v", err)
	}
	if ops[0].Description != "forget workspaces b, c, a" {
		t.Errorf("description = %q, want forget workspaces b, c, a", ops[0].Description)
	}

	reg, _ := registry.Load(r.ControlDir())
	for _, name := range names {
		if _, ok, _ := r.WCCommit(name); ok {
			t.Errorf("view still tracks %s", name.Symbol())
		}
		if reg.Exists(name) {
			t.Errorf("registry still has %s", name.Symbol())
		}
	}
}

func TestForgetTolerantOfMissingRegistryEntry(t *testing.T) {
	r := initTestRepo(t)
	// View-only workspace, as a legacy repository would have.
	addTracked(t, r, models.WorkspaceName("old"), "")

	if err := forgetWorkspaces(r, []models.WorkspaceName{"old"}); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if _, ok, _ := r.WCCommit(models.WorkspaceName("old")); ok {
		t.Error("view still tracks old")
	}
}

func TestForgetDescriptionSingular(t *testing.T) {
	got := forgetDescription([]models.WorkspaceName{"main"})
	if got != "forget workspace main" {
		t.Errorf("description = %q", got)
	}
}

func TestWorkspaceRootFromRegistry(t *testing.T) {
	r := initTestRepo(t)
	dir := t.TempDir()
	addTracked(t, r, models.WorkspaceName("feature"), dir)

	got, err := workspaceRoot(r, models.WorkspaceName("feature"), true)
	if err != nil {
		t.Fatalf("workspaceRoot failed: %v", err)
	}
	want, _ := registry.Canonicalize(dir)
	if got != want {
		t.Errorf("root = %q, want %q", got, want)
	}
}

func TestWorkspaceRootExplicitUnknown(t *testing.T) {
	r := initTestRepo(t)

	_, err := workspaceRoot(r, models.WorkspaceName("ghost"), true)
	if err == nil {
		t.Fatal("explicit unknown workspace should fail")
	}
	if got := err.Error(); got != "No such workspace: ghost" {
		t.Errorf("error = %q, want %q", got, "No such workspace: ghost")
	}
}

func TestWorkspaceRootIllegalNameIsUnknown(t *testing.T) {
	r := initTestRepo(t)

	// "../workspace" would resolve to the control dir's workspace
	// marker if the name were used as a registry key unchecked.
	for _, name := range []string{"../workspace", "a/b", `a\b`, ".."} {
		_, err := workspaceRoot(r, models.WorkspaceName(name), true)
		if err == nil {
			t.Fatalf("workspaceRoot(%q) should fail", name)
		}
		want := "No such workspace: " + name
		if got := err.Error(); got != want {
			t.Errorf("workspaceRoot(%q) error = %q, want %q", name, got, want)
		}
	}
}

func TestWorkspaceRootDefaultFallsBackOnLegacyRepo(t *testing.T) {
	r := initTestRepo(t)
	if err := os.RemoveAll(filepath.Join(r.ControlDir(), "workspace_store")); err != nil {
		t.Fatal(err)
	}

	got, err := workspaceRoot(r, r.CurrentWorkspace(), false)
	if err != nil {
		t.Fatalf("workspaceRoot failed: %v", err)
	}
	if got != r.Root() {
		t.Errorf("root = %q, want ambient root %q", got, r.Root())
	}
}

func TestAddWorkspace(t *testing.T) {
	r := initTestRepo(t)
	dest := filepath.Join(t.TempDir(), "second")

	if err := addWorkspace(r, models.WorkspaceName("second"), dest); err != nil {
		t.Fatalf("addWorkspace failed: %v", err)
	}

	if _, ok, _ := r.WCCommit(models.WorkspaceName("second")); !ok {
		t.Error("view does not track the added workspace")
	}

	reg, _ := registry.Load(r.ControlDir())
	rec, err := reg.Get(models.WorkspaceName("second"))
	if err != nil {
		t.Fatalf("registry.Get failed: %v", err)
	}
	want, _ := registry.Canonicalize(dest)
	if rec.Path != want {
		t.Errorf("registry path = %q, want %q", rec.Path, want)
	}

	// Duplicate name rejected.
	if err := addWorkspace(r, models.WorkspaceName("second"), dest); err == nil {
		t.Error("duplicate addWorkspace should fail")
	}
}

func TestUndoRestoresForgottenWorkspaces(t *testing.T) {
	r := initTestRepo(t)
	addTracked(t, r, models.WorkspaceName("feature"), t.TempDir())

	before, _, err := r.WCCommit(models.WorkspaceName("feature"))
	if err != nil {
		t.Fatal(err)
	}

	if err := forgetWorkspaces(r, []models.WorkspaceName{"feature"}); err != nil {
		t.Fatalf("forget failed: %v", err)
	}

	op, err := r.LastUndoableOp()
	if err != nil || op == nil {
		t.Fatalf("no undoable op: %v", err)
	}
	if err := undoOperation(r, op); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	after, ok, err := r.WCCommit(models.WorkspaceName("feature"))
	if err != nil || !ok {
		t.Fatalf("view does not track feature after undo: ok=%v err=%v", ok, err)
	}
	if after != before {
		t.Errorf("restored commit %q, want %q", after, before)
	}

	// The registry entry stays gone; only the view is restored.
	reg, _ := registry.Load(r.ControlDir())
	if reg.Exists(models.WorkspaceName("feature")) {
		t.Error("registry entry restored; undo covers the view only")
	}

	ops, err := r.Ops(1)
	if err != nil || len(ops) == 0 {
		t.Fatalf("no oplog entry after undo: %v", err)
	}
	if !strings.HasPrefix(ops[0].Description, "undo: ") {
		t.Errorf("latest op %q is not the undo record", ops[0].Description)
	}
}
