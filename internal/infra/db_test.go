package infra

import "testing"

func TestSplitSQL(t *testing.T) {
	in := stripSQLComments(`-- header
CREATE TABLE a (id INT);

-- second
CREATE INDEX b ON a (id);
`)
	stmts := splitSQL(in)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (id INT)" {
		t.Fatalf("unexpected first statement %q", stmts[0])
	}
}
