//go:build cgo

package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store on KuzuDB. Snippets and domains are node
// tables joined by FILED_UNDER, whose rank property keeps filing order.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check.
var _ Store = (*KuzuStore)(nil)

// OpenKuzu opens a KuzuDB knowledge base at path, or an in-memory one when
// path is empty or ":memory:". The schema is initialized before returning.
func OpenKuzu(path string) (Store, error) {
	s, err := NewKuzuStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewKuzuStore opens a KuzuDB database without touching the schema.
func NewKuzuStore(path string) (*KuzuStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		// KuzuDB creates the leaf directory itself.
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
		}
	}
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Domain(
		tag STRING,
		keywords STRING,
		seq INT64,
		PRIMARY KEY(tag)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Snippet(
		url STRING,
		title STRING,
		text STRING,
		PRIMARY KEY(url)
	)`,
	`CREATE REL TABLE IF NOT EXISTS FILED_UNDER(FROM Snippet TO Domain, rank INT64)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// keywordSep joins keywords into the single keywords column.
const keywordSep = "\n"

// AddDomain merges a Domain node and replaces its keywords.
func (s *KuzuStore) AddDomain(ctx context.Context, d Domain) error {
	if err := s.ensureDomain(ctx, d.Tag); err != nil {
		return err
	}
	return s.exec(
		"MATCH (d:Domain {tag: $tag}) SET d.keywords = $kw",
		map[string]any{"tag": d.Tag, "kw": strings.Join(d.Keywords, keywordSep)},
	)
}

// ensureDomain creates the Domain node with the next sequence number when it
// does not exist yet.
func (s *KuzuStore) ensureDomain(_ context.Context, tag string) error {
	rows, err := s.query("MATCH (d:Domain {tag: $tag}) RETURN d.tag", map[string]any{"tag": tag})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	seq, err := s.countTable("Domain")
	if err != nil {
		return err
	}
	return s.exec(
		"CREATE (d:Domain {tag: $tag, keywords: '', seq: $seq})",
		map[string]any{"tag": tag, "seq": int64(seq)},
	)
}

// AddSnippet merges the Snippet node and files it under its domain.
func (s *KuzuStore) AddSnippet(ctx context.Context, sn Snippet) error {
	if err := s.ensureDomain(ctx, sn.Domain); err != nil {
		return err
	}
	if err := s.exec(
		`MERGE (s:Snippet {url: $url})
		 ON CREATE SET s.title = $title, s.text = $text`,
		map[string]any{"url": sn.URL, "title": sn.Title, "text": sn.Text},
	); err != nil {
		return err
	}

	params := map[string]any{"url": sn.URL, "tag": sn.Domain}
	rows, err := s.query(
		"MATCH (:Snippet {url: $url})-[f:FILED_UNDER]->(:Domain {tag: $tag}) RETURN count(f)",
		params,
	)
	if err != nil {
		return err
	}
	if len(rows) > 0 && toInt(rows[0][0]) > 0 {
		return nil
	}

	rank, err := s.filedCount(sn.Domain)
	if err != nil {
		return err
	}
	params["rank"] = int64(rank)
	return s.exec(
		`MATCH (s:Snippet {url: $url}), (d:Domain {tag: $tag})
		 CREATE (s)-[:FILED_UNDER {rank: $rank}]->(d)`,
		params,
	)
}

// ---------- Read operations ----------

// Snippets returns the snippets filed under domain in filing order.
func (s *KuzuStore) Snippets(_ context.Context, domain string) ([]Snippet, error) {
	rows, err := s.query(
		`MATCH (s:Snippet)-[f:FILED_UNDER]->(d:Domain {tag: $tag})
		 RETURN s.url, s.title, s.text
		 ORDER BY f.rank`,
		map[string]any{"tag": domain},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Snippet, 0, len(rows))
	for _, r := range rows {
		out = append(out, Snippet{
			Domain: domain,
			URL:    toString(r[0]),
			Title:  toString(r[1]),
			Text:   toString(r[2]),
		})
	}
	return out, nil
}

// Domains returns every Domain node in creation order.
func (s *KuzuStore) Domains(_ context.Context) ([]Domain, error) {
	rows, err := s.query("MATCH (d:Domain) RETURN d.tag, d.keywords ORDER BY d.seq", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Domain, 0, len(rows))
	for _, r := range rows {
		d := Domain{Tag: toString(r[0])}
		if kw := toString(r[1]); kw != "" {
			d.Keywords = strings.Split(kw, keywordSep)
		}
		out = append(out, d)
	}
	return out, nil
}

// ---------- Stats ----------

// Stats counts Domain nodes and FILED_UNDER edges.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	domains, err := s.countTable("Domain")
	if err != nil {
		return nil, err
	}
	rows, err := s.query("MATCH ()-[f:FILED_UNDER]->() RETURN count(f)", nil)
	if err != nil {
		return nil, err
	}
	filed := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		filed = toInt(rows[0][0])
	}
	return &Stats{DomainCount: domains, SnippetCount: filed}, nil
}

// ---------- Internal helpers ----------

func (s *KuzuStore) filedCount(tag string) (int, error) {
	rows, err := s.query(
		"MATCH ()-[f:FILED_UNDER]->(:Domain {tag: $tag}) RETURN count(f)",
		map[string]any{"tag": tag},
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all rows in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
