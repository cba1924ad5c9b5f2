package node

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"nodefixture/app/internal/data/database"
	domainnode "nodefixture/app/internal/domain/node"
	applog "nodefixture/app/internal/platform/log"
)

type markup string

func (m markup) String() string { return string(m) }

func TestNewStorageRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewStorage(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestSaveContentTypeValidates(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	invalid := []domainnode.ContentType{
		{MachineName: "Bad Name"},
		{MachineName: "ok", Fields: []domainnode.FieldDefinition{{Name: "title", Kind: domainnode.KindText}}},
		{MachineName: "ok", Fields: []domainnode.FieldDefinition{{Name: "body", Kind: domainnode.KindText}}},
		{MachineName: "ok", Fields: []domainnode.FieldDefinition{{Name: "color", Kind: "rgb"}}},
		{MachineName: "ok", Fields: []domainnode.FieldDefinition{
			{Name: "color", Kind: domainnode.KindText},
			{Name: "color", Kind: domainnode.KindText},
		}},
	}

	for _, contentType := range invalid {
		if err := storage.SaveContentType(ctx, contentType); err == nil {
			t.Fatalf("expected error saving %#v", contentType)
		}
	}
}

func TestContentTypeRoundTrip(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	missing, err := storage.ContentType(ctx, "missing")
	if err != nil {
		t.Fatalf("ContentType returned error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing content type, got %#v", missing)
	}

	article := domainnode.ContentType{
		MachineName:        "article",
		Label:              "Article",
		PublishedByDefault: true,
		Fields: []domainnode.FieldDefinition{
			{Name: "body", Kind: domainnode.KindFormattedText},
			{Name: "summary", Kind: domainnode.KindText},
			{Name: "rating", Kind: domainnode.KindInteger},
		},
	}
	if err := storage.SaveContentType(ctx, article); err != nil {
		t.Fatalf("SaveContentType returned error: %v", err)
	}

	article.Label = "News article"
	article.Fields = article.Fields[:2]
	if err := storage.SaveContentType(ctx, article); err != nil {
		t.Fatalf("second SaveContentType returned error: %v", err)
	}

	stored, err := storage.ContentType(ctx, "article")
	if err != nil {
		t.Fatalf("ContentType returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored content type")
	}
	if stored.Label != "News article" || !stored.PublishedByDefault {
		t.Fatalf("unexpected content type %#v", stored)
	}
	if len(stored.Fields) != 2 || stored.Fields[0].Name != "body" || stored.Fields[1].Name != "summary" {
		t.Fatalf("expected fields [body summary], got %#v", stored.Fields)
	}
	if !stored.HasField("body") || stored.HasField("rating") || !stored.HasField("title") {
		t.Fatalf("unexpected HasField results for %#v", stored)
	}
}

func TestCreateDraftRejectsUnknownTypeAndFields(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	if _, err := storage.CreateDraft(ctx, domainnode.Values{"title": "x"}); err == nil {
		t.Fatalf("expected error when type is missing")
	}
	if _, err := storage.CreateDraft(ctx, domainnode.Values{"type": "gallery"}); err == nil {
		t.Fatalf("expected error for unknown content type")
	}
	if _, err := storage.CreateDraft(ctx, domainnode.Values{"type": "note", "body": "text"}); err == nil {
		t.Fatalf("expected error for body on a type without a body field")
	}
	if _, err := storage.CreateDraft(ctx, domainnode.Values{"type": "page", "uid": -3}); err == nil {
		t.Fatalf("expected error for negative owner id")
	}
	if _, err := storage.CreateDraft(ctx, domainnode.Values{"type": "page", "title": 12}); err == nil {
		t.Fatalf("expected error for non-text title")
	}
}

func TestDraftSaveAssignsIdentifiers(t *testing.T) {
	t.Parallel()

	storage, gormDB := setupStorage(t)
	ctx := context.Background()

	d, err := storage.CreateDraft(ctx, domainnode.Values{
		"type":  "page",
		"title": markup("<em>Hello</em>"),
		"uid":   7,
		"body":  map[string]any{"value": "Body text", "format": "basic_html"},
	})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}
	if !d.HasField("body") || d.Schema().MachineName != "page" {
		t.Fatalf("unexpected draft schema %#v", d.Schema())
	}

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if saved.ID == 0 || saved.UUID == "" || saved.RevisionID == 0 {
		t.Fatalf("expected identifiers to be assigned, got %#v", saved)
	}
	if saved.Title != "<em>Hello</em>" {
		t.Fatalf("expected markup title to be coerced to text, got %q", saved.Title)
	}
	if saved.OwnerID != 7 {
		t.Fatalf("expected owner 7, got %d", saved.OwnerID)
	}
	if !saved.Published {
		t.Fatalf("expected page to be published by default")
	}

	loaded, err := storage.Load(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil || loaded.Body == nil {
		t.Fatalf("expected loaded node with body, got %#v", loaded)
	}
	if *loaded.Body != (domainnode.Body{Value: "Body text", Format: "basic_html"}) {
		t.Fatalf("unexpected body %#v", loaded.Body)
	}
	if loaded.RevisionID != saved.RevisionID {
		t.Fatalf("expected revision %d, got %d", saved.RevisionID, loaded.RevisionID)
	}

	var revisions int64
	if err := gormDB.Model(&RevisionRecord{}).Where("node_id = ?", saved.ID).Count(&revisions).Error; err != nil {
		t.Fatalf("counting revisions failed: %v", err)
	}
	if revisions != 1 {
		t.Fatalf("expected one revision, got %d", revisions)
	}

	if _, err := d.Save(ctx); err == nil {
		t.Fatalf("expected error saving a draft twice")
	}
}

func TestDraftConfiguredFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	d, err := storage.CreateDraft(ctx, domainnode.Values{
		"type":     "event",
		"title":    "Launch",
		"venue":    "Main hall",
		"capacity": uint16(120),
		"featured": true,
		"notes":    domainnode.Body{Value: "<p>Bring badges</p>", Format: "full_html"},
	})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.Body != nil {
		t.Fatalf("expected no body on a type without a body field")
	}

	loaded, err := storage.Load(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if loaded.Fields["venue"] != "Main hall" {
		t.Fatalf("expected venue, got %#v", loaded.Fields["venue"])
	}
	if loaded.Fields["capacity"] != int64(120) {
		t.Fatalf("expected capacity 120, got %#v", loaded.Fields["capacity"])
	}
	if loaded.Fields["featured"] != true {
		t.Fatalf("expected featured flag, got %#v", loaded.Fields["featured"])
	}
	notes, ok := loaded.Fields["notes"].(map[string]any)
	if !ok || notes["value"] != "<p>Bring badges</p>" || notes["format"] != "full_html" {
		t.Fatalf("unexpected notes %#v", loaded.Fields["notes"])
	}
	if loaded.Published {
		t.Fatalf("expected event to be unpublished by default")
	}
}

func TestDraftSaveRequiresTitle(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	d, err := storage.CreateDraft(ctx, domainnode.Values{"type": "page", "title": "  "})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}
	if _, err := d.Save(ctx); err == nil {
		t.Fatalf("expected error saving a node without title")
	}
}

func TestDraftSaveRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	storage, gormDB := setupStorage(t)
	ctx := context.Background()

	if err := gormDB.Migrator().DropTable(&RevisionRecord{}); err != nil {
		t.Fatalf("dropping revisions table failed: %v", err)
	}

	d, err := storage.CreateDraft(ctx, domainnode.Values{"type": "note", "title": "orphan"})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}
	if _, err := d.Save(ctx); err == nil {
		t.Fatalf("expected save to fail without the revisions table")
	}

	var count int64
	if err := gormDB.Model(&NodeRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("counting nodes failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected node insert to be rolled back, found %d rows", count)
	}
}

func TestLoadByProperties(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)
	ctx := context.Background()

	first := saveNode(t, storage, domainnode.Values{"type": "page", "title": "shared", "uid": 1})
	second := saveNode(t, storage, domainnode.Values{"type": "note", "title": "shared", "uid": 2})
	saveNode(t, storage, domainnode.Values{"type": "page", "title": "other", "uid": 1})

	byTitle, err := storage.LoadByProperties(ctx, map[string]any{"title": markup("shared")})
	if err != nil {
		t.Fatalf("LoadByProperties returned error: %v", err)
	}
	if len(byTitle) != 2 {
		t.Fatalf("expected two nodes titled shared, got %d", len(byTitle))
	}
	ids := map[uint]bool{byTitle[0].ID: true, byTitle[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Fatalf("expected nodes %d and %d, got %v", first.ID, second.ID, ids)
	}

	byOwnerAndType, err := storage.LoadByProperties(ctx, map[string]any{"uid": uint(2), "type": "note"})
	if err != nil {
		t.Fatalf("LoadByProperties returned error: %v", err)
	}
	if len(byOwnerAndType) != 1 || byOwnerAndType[0].ID != second.ID {
		t.Fatalf("expected only node %d, got %#v", second.ID, byOwnerAndType)
	}

	none, err := storage.LoadByProperties(ctx, map[string]any{"title": "absent"})
	if err != nil {
		t.Fatalf("LoadByProperties returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no nodes, got %d", len(none))
	}

	if _, err := storage.LoadByProperties(ctx, map[string]any{"body": "x"}); err == nil {
		t.Fatalf("expected error for unsupported property")
	}
}

func TestCacheServesStaleCopiesUntilReset(t *testing.T) {
	t.Parallel()

	storage, gormDB := setupStorage(t)
	ctx := context.Background()

	saved := saveNode(t, storage, domainnode.Values{
		"type":  "page",
		"title": "cached",
		"body":  domainnode.Body{Value: "original", Format: "plain_text"},
	})

	warm, err := storage.LoadByProperties(ctx, map[string]any{"title": "cached"})
	if err != nil || len(warm) != 1 {
		t.Fatalf("expected one node, got %d (%v)", len(warm), err)
	}

	warm[0].Body.Value = "mutated by caller"

	if err := gormDB.Model(&NodeRecord{}).Where("id = ?", saved.ID).Update("body_value", "changed").Error; err != nil {
		t.Fatalf("updating body failed: %v", err)
	}

	stale, err := storage.Load(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if stale.Body.Value != "original" {
		t.Fatalf("expected cached body %q, got %q", "original", stale.Body.Value)
	}

	storage.ResetCache(saved.ID)

	fresh, err := storage.Load(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if fresh.Body.Value != "changed" {
		t.Fatalf("expected fresh body %q, got %q", "changed", fresh.Body.Value)
	}
}

func TestLoadMissingNode(t *testing.T) {
	t.Parallel()

	storage, _ := setupStorage(t)

	loaded, err := storage.Load(context.Background(), 404)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil node, got %#v", loaded)
	}
}

func saveNode(t *testing.T, storage *Storage, values domainnode.Values) *domainnode.Node {
	t.Helper()

	d, err := storage.CreateDraft(context.Background(), values)
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}
	saved, err := d.Save(context.Background())
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	return saved
}

func setupStorage(t *testing.T) (*Storage, *gorm.DB) {
	t.Helper()

	gormDB, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "nodes.db")})
	if err != nil {
		t.Fatalf("database.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := database.Close(gormDB); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	if err := gormDB.AutoMigrate(&ContentTypeRecord{}, &FieldRecord{}, &NodeRecord{}, &RevisionRecord{}); err != nil {
		t.Fatalf("AutoMigrate returned error: %v", err)
	}

	storage, err := NewStorage(gormDB, applog.Discard())
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}

	contentTypes := []domainnode.ContentType{
		{
			MachineName:        "page",
			Label:              "Basic page",
			PublishedByDefault: true,
			Fields:             []domainnode.FieldDefinition{{Name: "body", Kind: domainnode.KindFormattedText}},
		},
		{MachineName: "note", Label: "Note", PublishedByDefault: true},
		{
			MachineName: "event",
			Label:       "Event",
			Fields: []domainnode.FieldDefinition{
				{Name: "venue", Kind: domainnode.KindText},
				{Name: "capacity", Kind: domainnode.KindInteger},
				{Name: "featured", Kind: domainnode.KindBoolean},
				{Name: "notes", Kind: domainnode.KindFormattedText},
			},
		},
	}
	for _, contentType := range contentTypes {
		if err := storage.SaveContentType(context.Background(), contentType); err != nil {
			t.Fatalf("SaveContentType returned error: %v", err)
		}
	}

	return storage, gormDB
}
