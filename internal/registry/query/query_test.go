package query

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestBuilder_EmptyMatchesNothing(t *testing.T) {
	b := NewStudySearch()
	if !b.Empty() {
		t.Fatal("expected new builder to be empty")
	}
	b.Add(Clause{Tables: []Table{Phase}})
	if !b.Empty() {
		t.Error("clause without predicates should be ignored")
	}
	count, rows := b.Build(Page{})
	if !strings.Contains(count.SQL, "WHERE FALSE") || !strings.Contains(rows.SQL, "WHERE FALSE") {
		t.Errorf("expected WHERE FALSE, got %q / %q", count.SQL, rows.SQL)
	}
	if len(count.Args) != 0 || len(rows.Args) != 0 {
		t.Errorf("expected no args, got %v / %v", count.Args, rows.Args)
	}
}

func TestBuilder_SingleRange(t *testing.T) {
	b := NewStudySearch()
	b.Add(Clause{Where: []Predicate{Range{Column: StudyEnrollment, Op: Ge, Value: 50}}})
	count, rows := b.Build(Page{})

	wantCount := "SELECT COUNT(DISTINCT s.study_id)\nFROM study s\nWHERE s.enrollment >= $1::bigint"
	if count.SQL != wantCount {
		t.Errorf("count SQL:\n%s\nwant:\n%s", count.SQL, wantCount)
	}
	wantRows := "SELECT DISTINCT s.study_id, s.nct_id, s.official_title\nFROM study s\nWHERE s.enrollment >= $1::bigint\nORDER BY s.study_id"
	if rows.SQL != wantRows {
		t.Errorf("rows SQL:\n%s\nwant:\n%s", rows.SQL, wantRows)
	}
	if !reflect.DeepEqual(count.Args, []interface{}{int64(50)}) {
		t.Errorf("unexpected args: %v", count.Args)
	}
}

func TestBuilder_LimitOffset(t *testing.T) {
	b := NewStudySearch()
	b.Add(Clause{Where: []Predicate{Range{Column: StudyPhaseID, Op: Eq, Value: 2}}})
	count, rows := b.Build(Page{Limit: 10, Offset: 20})

	if strings.Contains(count.SQL, "LIMIT") {
		t.Error("count query must not be limited")
	}
	if !strings.HasSuffix(rows.SQL, "LIMIT $2\nOFFSET $3") {
		t.Errorf("unexpected rows SQL: %s", rows.SQL)
	}
	if len(count.Args) != 1 {
		t.Errorf("count args aliased with rows args: %v", count.Args)
	}
	if !reflect.DeepEqual(rows.Args, []interface{}{int64(2), 10, 20}) {
		t.Errorf("unexpected rows args: %v", rows.Args)
	}
}

func TestBuilder_OffsetWithoutLimit(t *testing.T) {
	b := NewStudySearch()
	b.Add(Clause{Where: []Predicate{Range{Column: StudyPhaseID, Op: Eq, Value: 2}}})
	_, rows := b.Build(Page{Offset: 5})
	if strings.Contains(rows.SQL, "LIMIT") {
		t.Error("zero limit should not render LIMIT")
	}
	if !strings.HasSuffix(rows.SQL, "OFFSET $2") {
		t.Errorf("unexpected rows SQL: %s", rows.SQL)
	}
}

func TestBuilder_TablesDeduplicated(t *testing.T) {
	b := NewStudySearch()
	b.Add(Conditions.ByName("cancer", Plain))
	b.Add(Conditions.ByIDs([]int64{1, 2}))
	b.Add(Sponsors.ByIDs([]int64{3}))

	got := b.Tables()
	want := []Table{Study, StudyToCondition, Condition, StudyToSponsor}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tables = %v, want %v", got, want)
	}
	count, _ := b.Build(Page{})
	if !strings.Contains(count.SQL, "FROM study s, study_to_condition s2c, condition c, study_to_sponsor s2p\n") {
		t.Errorf("unexpected FROM list: %s", count.SQL)
	}
}

func TestBuilder_PlaceholdersMatchArgs(t *testing.T) {
	b := NewStudySearch()
	b.Add(Clause{Where: []Predicate{TextSearch{Column: StudyFulltext, Mode: Boolean, Term: "heart and lung"}}})
	b.Add(Conditions.ByName("diabetes", Plain))
	b.Add(Interventions.ByIDs([]int64{7}))
	b.Add(Clause{Where: []Predicate{Range{Column: StudyEnrollment, Op: Lt, Value: 100}}})
	count, rows := b.Build(Page{Limit: 5})

	for i := 1; i <= len(count.Args); i++ {
		if !strings.Contains(count.SQL, "$"+strconv.Itoa(i)) {
			t.Errorf("placeholder $%d missing from count SQL", i)
		}
	}
	if strings.Contains(count.SQL, "$"+strconv.Itoa(len(count.Args)+1)) {
		t.Error("count SQL references more placeholders than args")
	}
	if len(rows.Args) != len(count.Args)+1 {
		t.Errorf("rows args = %d, want %d", len(rows.Args), len(count.Args)+1)
	}
	if count.Args[0] != "heart & lung" {
		t.Errorf("expected translated term, got %v", count.Args[0])
	}
}

func TestBuilder_RequestValuesNeverInSQL(t *testing.T) {
	evil := "'; DROP TABLE study; --"
	b := NewStudySearch()
	b.Add(Clause{Where: []Predicate{TextSearch{Column: StudyFulltext, Mode: Plain, Term: evil}}})
	b.Add(Sponsors.ByName(evil, Boolean))
	count, rows := b.Build(Page{})
	for _, q := range []Query{count, rows} {
		if strings.Contains(q.SQL, "DROP") {
			t.Errorf("request value leaked into SQL: %s", q.SQL)
		}
	}
}

func TestTextSearch_Render(t *testing.T) {
	tests := []struct {
		name string
		pred TextSearch
		want string
		arg  string
	}{
		{
			name: "vector column plain",
			pred: TextSearch{Column: StudyFulltext, Mode: Plain, Term: "breast cancer"},
			want: "s.fulltext @@ plainto_tsquery('english', $1)",
			arg:  "breast cancer",
		},
		{
			name: "text column boolean",
			pred: TextSearch{Column: ConditionName, Mode: Boolean, Term: "a* or b"},
			want: "to_tsvector('english', c.condition_name) @@ to_tsquery('english', $1)",
			arg:  "a | b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := Where(tt.pred)
			if sql != tt.want {
				t.Errorf("got %q, want %q", sql, tt.want)
			}
			if len(args) != 1 || args[0] != tt.arg {
				t.Errorf("args = %v, want [%s]", args, tt.arg)
			}
		})
	}
}

func TestMembership_EmptyIDs(t *testing.T) {
	sql, args := Where(Membership{Column: S2CConditionID, IDs: ParseIDs("a,b")})
	if sql != "s2c.condition_id = ANY($1::bigint[])" {
		t.Errorf("unexpected SQL: %s", sql)
	}
	ids, ok := args[0].([]int64)
	if !ok || ids == nil || len(ids) != 0 {
		t.Errorf("expected empty non-nil id array, got %#v", args[0])
	}

	_, args = Where(Membership{Column: S2CConditionID})
	if ids, _ := args[0].([]int64); ids == nil {
		t.Error("nil ids should be bound as an empty array")
	}
}

func TestWhere_Empty(t *testing.T) {
	sql, args := Where()
	if sql != "TRUE" || args != nil {
		t.Errorf("got %q %v", sql, args)
	}
}

func TestAssociation_ByIDsDoesNotJoinLookup(t *testing.T) {
	c := Sponsors.ByIDs([]int64{1})
	for _, tbl := range c.Tables {
		if tbl == Sponsor {
			t.Error("id filter should not join the sponsor table")
		}
	}
	sql, _ := Where(c.Where...)
	if sql != "s.study_id = s2p.study_id AND s2p.sponsor_id = ANY($1::bigint[])" {
		t.Errorf("unexpected SQL: %s", sql)
	}
}
