// Package memstore is a SQLite-backed triple store with a naive
// row-at-a-time evaluator. It plays the role of the host's native
// evaluation path: the execution adapter falls back to it whenever a
// pattern cannot be compiled, and round-trip tests use it as the source
// of truth the pushdown translation must agree with.
package memstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

//go:embed schema.sql
var schemaSQL string

// Object kind discriminators persisted in the triples table.
const (
	objIRI     = 0
	objLiteral = 1
	objBlank   = 2
)

// Store is a SQLite-backed triple store. Use ":memory:" for an
// in-process ephemeral store.
type Store struct {
	db *sql.DB
}

// Open creates or opens a triple store at the given path, applying
// pragmas and schema. SQLite allows a single writer, so the pool is
// capped at one connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add stores one ground triple. The subject may be an IRI or blank
// node; the predicate must be an IRI; the object may be any bound term.
func (s *Store) Add(ctx context.Context, subj rdf.Term, pred rdf.IRI, obj rdf.Term) error {
	subjKey, err := nodeKey(subj)
	if err != nil {
		return err
	}
	kind, text, dtype, lang, err := encodeObject(obj)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO triples (subj, pred, obj_kind, obj_text, obj_dtype, obj_lang) VALUES (?, ?, ?, ?, ?, ?)",
		subjKey, pred.Value, kind, text, dtype, lang)
	if err != nil {
		return fmt.Errorf("insert triple: %w", err)
	}
	return nil
}

// nodeKey encodes a subject term as its storage key.
func nodeKey(t rdf.Term) (string, error) {
	switch term := t.(type) {
	case rdf.IRI:
		return term.Value, nil
	case rdf.BlankNode:
		return "_:" + term.Label, nil
	default:
		return "", fmt.Errorf("term %s cannot appear in subject position", t)
	}
}

func encodeObject(t rdf.Term) (kind int, text, dtype, lang string, err error) {
	switch term := t.(type) {
	case rdf.IRI:
		return objIRI, term.Value, "", "", nil
	case rdf.Literal:
		return objLiteral, term.Lexical, term.Datatype, term.Lang, nil
	case rdf.BlankNode:
		return objBlank, term.Label, "", "", nil
	default:
		return 0, "", "", "", fmt.Errorf("term %s cannot be stored as an object", t)
	}
}

func decodeSubject(key string) rdf.Term {
	if len(key) > 2 && key[:2] == "_:" {
		return rdf.BlankNode{Label: key[2:]}
	}
	return rdf.IRI{Value: key}
}

func decodeObject(kind int, text, dtype, lang string) rdf.Term {
	switch kind {
	case objIRI:
		return rdf.IRI{Value: text}
	case objBlank:
		return rdf.BlankNode{Label: text}
	default:
		return rdf.Literal{Lexical: text, Datatype: dtype, Lang: lang, Value: typedValue(text, dtype)}
	}
}

// typedValue recovers the parameter value for a stored literal from its
// datatype, defaulting to the string form.
func typedValue(lexical, dtype string) rdf.Value {
	switch dtype {
	case rdf.XSDInteger:
		var n int64
		if _, err := fmt.Sscanf(lexical, "%d", &n); err == nil {
			return rdf.Int(n)
		}
	case rdf.XSDDouble:
		var f float64
		if _, err := fmt.Sscanf(lexical, "%g", &f); err == nil {
			return rdf.Float(f)
		}
	case rdf.XSDBoolean:
		if lexical == "true" {
			return rdf.Bool(true)
		}
		if lexical == "false" {
			return rdf.Bool(false)
		}
	}
	return rdf.String(lexical)
}
