package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Form{}).TableName():        "forms",
		(Submission{}).TableName():  "submissions",
		(Setting{}).TableName():     "settings",
		(Idempotency{}).TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_TablesAndUniqueSlug(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Form{}, &Submission{}, &Setting{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&Form{}, &Submission{}, &Setting{}, &Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Form{}, "ux_forms_slug") {
		t.Fatalf("expected unique slug index")
	}
	if !m.HasIndex(&Idempotency{}, "ux_form_key") {
		t.Fatalf("expected unique (form_id, key) index")
	}

	now := time.Now().UTC()
	if err := db.Create(&Form{Title: "A", Slug: "same", Config: "{}", CreatedAt: now}).Error; err != nil {
		t.Fatalf("create form: %v", err)
	}
	err := db.Create(&Form{Title: "B", Slug: "same", Config: "{}", CreatedAt: now}).Error
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "unique") {
		t.Fatalf("expected unique violation on slug, got %v", err)
	}
}

func TestSubmission_AutoIncrementIDs(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Submission{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	a := Submission{FormID: 9, Data: `{}`, CreatedAt: time.Now().UTC()}
	b := Submission{FormID: 9, Data: `{}`, CreatedAt: time.Now().UTC()}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID == 0 || b.ID <= a.ID {
		t.Fatalf("expected increasing positive ids, got %d, %d", a.ID, b.ID)
	}
}

func TestSubmission_Values(t *testing.T) {
	cases := []struct {
		data string
		want map[string]string
	}{
		{`{"a":"1","b":""}`, map[string]string{"a": "1", "b": ""}},
		{`{"n":5,"z":null}`, map[string]string{"n": "5", "z": ""}},
		{`not json`, map[string]string{}},
		{``, map[string]string{}},
	}
	for _, c := range cases {
		got := Submission{Data: c.data}.Values()
		if len(got) != len(c.want) {
			t.Fatalf("Values(%q) = %v, want %v", c.data, got, c.want)
		}
		for k, v := range c.want {
			if got[k] != v {
				t.Fatalf("Values(%q)[%q] = %q, want %q", c.data, k, got[k], v)
			}
		}
	}
}

func TestSubmission_MarshalJSONExposesDecodedData(t *testing.T) {
	s := Submission{ID: 3, FormID: 1, Data: `{"email":"a@b.com"}`}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		ID        uint64            `json:"id"`
		FormID    uint64            `json:"form_id"`
		Data      map[string]string `json:"data"`
		IPAddress *string           `json:"ip_address"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, b)
	}
	if got.ID != 3 || got.FormID != 1 || got.Data["email"] != "a@b.com" || got.IPAddress != nil {
		t.Fatalf("unexpected JSON: %s", b)
	}
}

func TestFoldSearch(t *testing.T) {
	cases := map[string]string{
		"Émile Zoë":      "émile zoë",
		"E\u0301MILE":    "émile",
		"STRASSE":        "strasse",
		`{"name":"Ada"}`: `{"name":"ada"}`,
	}
	for in, want := range cases {
		if got := FoldSearch(in); got != want {
			t.Fatalf("FoldSearch(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestSubmission_BeforeSaveFillsSearchText(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Submission{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	s := Submission{FormID: 1, Data: `{"name":"ÉMILE"}`, CreatedAt: time.Now().UTC()}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Submission
	if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.SearchText != `{"name":"émile"}` {
		t.Fatalf("SearchText = %q", got.SearchText)
	}
}
