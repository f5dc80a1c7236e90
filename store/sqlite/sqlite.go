/*
Package sqlite provides a SQLite-backed implementation of the catalog and
BOQ line stores.

PURPOSE:
  Implements the persistence interfaces consumed by the pricing engine
  (pricing.Catalog) and the BOQ domain (boq.LineStore), plus the CRUD
  surface the HTTP layer needs for books, products, formulations, index
  series, scenarios, and lines. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

MONEY COLUMNS:
  Monetary and quantity values are stored as TEXT decimal strings and
  parsed into decimal.Decimal at the boundary. They are never stored as
  REAL; binary floating point never touches money.

KEY TABLES:
  product_families, products:           catalog reference data
  price_books, price_book_entries:      time-bounded unit prices
  cost_books, cost_book_entries:        time-bounded unit costs
  formulations, formulation_components: formula-driven pricing rules
  index_series, index_points:           index data for formulation factors
  scenarios, boq_lines:                 bill-of-quantities lines per scenario

INDEXES:
  Critical indexes for performance:
  - idx_price_entries_product: Candidate lookup during resolution (hot path)
  - idx_cost_entries_product:  Same for COGS autofill
  - idx_boq_lines_scenario:    Line listings and totals

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Catalog reads run under the read
  lock; a resolution call never observes a half-written book import.
  Concurrent edits to the same line's price fields resolve last-write-wins.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/pricing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  // Use with the resolver
  resolver := pricing.NewResolver(st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - pricing/catalog.go: Interface definitions
  - pricing/store/memory.go: In-memory implementation for engine tests
  - factory/books.go: Book definitions consumed by ImportPriceBook
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/boq"
	"github.com/aryaintel/pricing-engine/factory"
	"github.com/aryaintel/pricing-engine/pricing"
)

// Store implements pricing.Catalog and boq.LineStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS product_families (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		uom TEXT,
		currency TEXT,
		family_id TEXT REFERENCES product_families(id),
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS price_books (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		valid_from TEXT,
		valid_to TEXT
	);

	CREATE TABLE IF NOT EXISTS price_book_entries (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL REFERENCES price_books(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		unit_price TEXT NOT NULL,
		currency TEXT,
		valid_from TEXT,
		valid_to TEXT,
		price_term TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_price_entries_product
		ON price_book_entries(product_id, is_active);

	CREATE TABLE IF NOT EXISTS cost_books (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		valid_from TEXT,
		valid_to TEXT
	);

	CREATE TABLE IF NOT EXISTS cost_book_entries (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL REFERENCES cost_books(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		unit_cost TEXT NOT NULL,
		currency TEXT,
		valid_from TEXT,
		valid_to TEXT,
		cost_term TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cost_entries_product
		ON cost_book_entries(product_id, is_active);

	CREATE TABLE IF NOT EXISTS formulations (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL UNIQUE REFERENCES products(id),
		base_price TEXT,
		base_product_id TEXT REFERENCES products(id),
		currency TEXT,
		factor TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS formulation_components (
		id TEXT PRIMARY KEY,
		formulation_id TEXT NOT NULL REFERENCES formulations(id) ON DELETE CASCADE,
		series_id TEXT NOT NULL,
		weight_pct TEXT NOT NULL,
		base_index_value TEXT
	);

	CREATE TABLE IF NOT EXISTS index_series (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit TEXT
	);

	CREATE TABLE IF NOT EXISTS index_points (
		series_id TEXT NOT NULL REFERENCES index_series(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (series_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_year INTEGER,
		start_month INTEGER,
		months INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS boq_lines (
		id TEXT PRIMARY KEY,
		scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
		section TEXT,
		category TEXT,
		product_id TEXT REFERENCES products(id),
		item_name TEXT NOT NULL,
		unit TEXT,
		quantity TEXT NOT NULL DEFAULT '0',
		unit_price TEXT NOT NULL DEFAULT '0',
		unit_cogs TEXT,
		frequency TEXT NOT NULL DEFAULT 'once',
		months INTEGER NOT NULL DEFAULT 0,
		start_year INTEGER,
		start_month INTEGER,
		price_term TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_boq_lines_scenario
		ON boq_lines(scenario_id, is_active);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (dev/demo only).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables := []string{
		"boq_lines", "scenarios", "index_points", "index_series",
		"formulation_components", "formulations",
		"cost_book_entries", "cost_books",
		"price_book_entries", "price_books",
		"products", "product_families",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS - nullable time/decimal/text mapping
// =============================================================================

func newID() string { return uuid.NewString() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timePtrToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format("2006-01-02"), Valid: true}
}

func nullToTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", ns.String)
	if err != nil {
		return nil, fmt.Errorf("bad date in store: %q: %w", ns.String, err)
	}
	return &t, nil
}

func decToText(d decimal.Decimal) string { return d.String() }

func decPtrToNull(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func textToDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad decimal in store: %q: %w", s, err)
	}
	return d, nil
}

func nullToDecPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := textToDec(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func strOrEmpty(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func strPtrToNull(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// =============================================================================
// PRODUCT FAMILIES
// =============================================================================

type FamilyRecord struct {
	ID     string
	Name   string
	Active bool
}

func (s *Store) SaveFamily(ctx context.Context, f FamilyRecord) (FamilyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_families (id, name, is_active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, is_active=excluded.is_active`,
		f.ID, f.Name, boolToInt(f.Active))
	return f, err
}

func (s *Store) ListFamilies(ctx context.Context) ([]FamilyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_active FROM product_families ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FamilyRecord
	for rows.Next() {
		var f FamilyRecord
		var active int
		if err := rows.Scan(&f.ID, &f.Name, &active); err != nil {
			return nil, err
		}
		f.Active = active == 1
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) DeleteFamily(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "product_families", id)
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductRecord struct {
	ID       string
	Code     string
	Name     string
	UOM      string
	Currency string
	FamilyID *string
	Active   bool
}

func (s *Store) SaveProduct(ctx context.Context, p ProductRecord) (ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, code, name, uom, currency, family_id, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code=excluded.code, name=excluded.name, uom=excluded.uom,
			currency=excluded.currency, family_id=excluded.family_id,
			is_active=excluded.is_active`,
		p.ID, p.Code, p.Name, p.UOM, p.Currency, strPtrToNull(p.FamilyID), boolToInt(p.Active))
	return p, err
}

func (s *Store) GetProductRecord(ctx context.Context, id string) (*ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryProduct(ctx, `WHERE id = ?`, id)
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryProduct(ctx, `WHERE code = ?`, code)
}

func (s *Store) queryProduct(ctx context.Context, where string, args ...any) (*ProductRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, uom, currency, family_id, is_active
		FROM products `+where, args...)

	var p ProductRecord
	var uom, currency, familyID sql.NullString
	var active int
	err := row.Scan(&p.ID, &p.Code, &p.Name, &uom, &currency, &familyID, &active)
	if err == sql.ErrNoRows {
		return nil, pricing.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UOM = strOrEmpty(uom)
	p.Currency = strOrEmpty(currency)
	if familyID.Valid {
		f := familyID.String
		p.FamilyID = &f
	}
	p.Active = active == 1
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, q string, activeOnly bool) ([]ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, code, name, uom, currency, family_id, is_active FROM products`
	var conds []string
	var args []any
	if q != "" {
		conds = append(conds, `(lower(name) LIKE lower(?) OR lower(code) LIKE lower(?))`)
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if activeOnly {
		conds = append(conds, `is_active = 1`)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY code"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductRecord
	for rows.Next() {
		var p ProductRecord
		var uom, currency, familyID sql.NullString
		var active int
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &uom, &currency, &familyID, &active); err != nil {
			return nil, err
		}
		p.UOM = strOrEmpty(uom)
		p.Currency = strOrEmpty(currency)
		if familyID.Valid {
			f := familyID.String
			p.FamilyID = &f
		}
		p.Active = active == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeactivateProduct is the soft delete used by the API. Historical BOQ lines
// keep referencing deactivated products.
func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE products SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pricing.ErrProductNotFound
	}
	return nil
}

// =============================================================================
// PRICE BOOKS / ENTRIES
// =============================================================================

type BookRecord struct {
	ID        string
	Code      string
	Name      string
	Currency  string
	IsDefault bool
	Active    bool
	ValidFrom *time.Time
	ValidTo   *time.Time
}

type PriceEntryRecord struct {
	ID        string
	BookID    string
	ProductID string
	UnitPrice decimal.Decimal
	Currency  string
	ValidFrom *time.Time
	ValidTo   *time.Time
	PriceTerm string
	Active    bool
	Notes     string
}

func (s *Store) SavePriceBook(ctx context.Context, b BookRecord) (BookRecord, error) {
	return s.saveBook(ctx, "price_books", b)
}

func (s *Store) SaveCostBook(ctx context.Context, b BookRecord) (BookRecord, error) {
	return s.saveBook(ctx, "cost_books", b)
}

func (s *Store) saveBook(ctx context.Context, table string, b BookRecord) (BookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (id, code, name, currency, is_default, is_active, valid_from, valid_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code=excluded.code, name=excluded.name, currency=excluded.currency,
			is_default=excluded.is_default, is_active=excluded.is_active,
			valid_from=excluded.valid_from, valid_to=excluded.valid_to`,
		b.ID, b.Code, b.Name, b.Currency, boolToInt(b.IsDefault), boolToInt(b.Active),
		timePtrToNull(b.ValidFrom), timePtrToNull(b.ValidTo))
	return b, err
}

func (s *Store) ListPriceBooks(ctx context.Context) ([]BookRecord, error) {
	return s.listBooks(ctx, "price_books")
}

func (s *Store) ListCostBooks(ctx context.Context) ([]BookRecord, error) {
	return s.listBooks(ctx, "cost_books")
}

func (s *Store) listBooks(ctx context.Context, table string) ([]BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, currency, is_default, is_active, valid_from, valid_to
		FROM `+table+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookRecord
	for rows.Next() {
		var b BookRecord
		var isDefault, active int
		var from, to sql.NullString
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Currency, &isDefault, &active, &from, &to); err != nil {
			return nil, err
		}
		b.IsDefault = isDefault == 1
		b.Active = active == 1
		if b.ValidFrom, err = nullToTimePtr(from); err != nil {
			return nil, err
		}
		if b.ValidTo, err = nullToTimePtr(to); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeletePriceBook(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "price_books", id)
}

func (s *Store) DeleteCostBook(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "cost_books", id)
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	return err
}

func (s *Store) SavePriceEntry(ctx context.Context, e PriceEntryRecord) (PriceEntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_book_entries
			(id, book_id, product_id, unit_price, currency, valid_from, valid_to, price_term, is_active, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id=excluded.book_id, product_id=excluded.product_id,
			unit_price=excluded.unit_price, currency=excluded.currency,
			valid_from=excluded.valid_from, valid_to=excluded.valid_to,
			price_term=excluded.price_term, is_active=excluded.is_active,
			notes=excluded.notes`,
		e.ID, e.BookID, e.ProductID, decToText(e.UnitPrice), e.Currency,
		timePtrToNull(e.ValidFrom), timePtrToNull(e.ValidTo),
		e.PriceTerm, boolToInt(e.Active), e.Notes)
	return e, err
}

func (s *Store) ListPriceEntries(ctx context.Context, bookID string) ([]PriceEntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, product_id, unit_price, currency, valid_from, valid_to, price_term, is_active, notes
		FROM price_book_entries WHERE book_id = ?
		ORDER BY product_id, valid_from`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceEntryRecord
	for rows.Next() {
		var e PriceEntryRecord
		var price string
		var currency, from, to, term, notes sql.NullString
		var active int
		if err := rows.Scan(&e.ID, &e.BookID, &e.ProductID, &price, &currency, &from, &to, &term, &active, &notes); err != nil {
			return nil, err
		}
		if e.UnitPrice, err = textToDec(price); err != nil {
			return nil, err
		}
		e.Currency = strOrEmpty(currency)
		if e.ValidFrom, err = nullToTimePtr(from); err != nil {
			return nil, err
		}
		if e.ValidTo, err = nullToTimePtr(to); err != nil {
			return nil, err
		}
		e.PriceTerm = strOrEmpty(term)
		e.Active = active == 1
		e.Notes = strOrEmpty(notes)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeletePriceEntry(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "price_book_entries", id)
}

// =============================================================================
// COST BOOK ENTRIES
// =============================================================================

type CostEntryRecord struct {
	ID        string
	BookID    string
	ProductID string
	UnitCost  decimal.Decimal
	Currency  string
	ValidFrom *time.Time
	ValidTo   *time.Time
	CostTerm  string
	Active    bool
	Notes     string
}

func (s *Store) SaveCostEntry(ctx context.Context, e CostEntryRecord) (CostEntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_book_entries
			(id, book_id, product_id, unit_cost, currency, valid_from, valid_to, cost_term, is_active, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id=excluded.book_id, product_id=excluded.product_id,
			unit_cost=excluded.unit_cost, currency=excluded.currency,
			valid_from=excluded.valid_from, valid_to=excluded.valid_to,
			cost_term=excluded.cost_term, is_active=excluded.is_active,
			notes=excluded.notes`,
		e.ID, e.BookID, e.ProductID, decToText(e.UnitCost), e.Currency,
		timePtrToNull(e.ValidFrom), timePtrToNull(e.ValidTo),
		e.CostTerm, boolToInt(e.Active), e.Notes)
	return e, err
}

func (s *Store) ListCostEntries(ctx context.Context, bookID string) ([]CostEntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, product_id, unit_cost, currency, valid_from, valid_to, cost_term, is_active, notes
		FROM cost_book_entries WHERE book_id = ?
		ORDER BY product_id, valid_from`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CostEntryRecord
	for rows.Next() {
		var e CostEntryRecord
		var cost string
		var currency, from, to, term, notes sql.NullString
		var active int
		if err := rows.Scan(&e.ID, &e.BookID, &e.ProductID, &cost, &currency, &from, &to, &term, &active, &notes); err != nil {
			return nil, err
		}
		if e.UnitCost, err = textToDec(cost); err != nil {
			return nil, err
		}
		e.Currency = strOrEmpty(currency)
		if e.ValidFrom, err = nullToTimePtr(from); err != nil {
			return nil, err
		}
		if e.ValidTo, err = nullToTimePtr(to); err != nil {
			return nil, err
		}
		e.CostTerm = strOrEmpty(term)
		e.Active = active == 1
		e.Notes = strOrEmpty(notes)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCostEntry(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "cost_book_entries", id)
}

// =============================================================================
// BOOK IMPORT - factory definitions to rows, atomically
// =============================================================================

// ImportPriceBook inserts a parsed book definition and its entries in one
// transaction. Product codes are resolved to ids; an unknown code aborts
// the whole import.
func (s *Store) ImportPriceBook(ctx context.Context, def *factory.BookDef) (BookRecord, error) {
	return s.importBook(ctx, def, factory.PriceBook)
}

// ImportCostBook is the cost-side analog of ImportPriceBook.
func (s *Store) ImportCostBook(ctx context.Context, def *factory.BookDef) (BookRecord, error) {
	return s.importBook(ctx, def, factory.CostBook)
}

func (s *Store) importBook(ctx context.Context, def *factory.BookDef, kind factory.Kind) (BookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookTable, entryTable, amountCol, termCol := "price_books", "price_book_entries", "unit_price", "price_term"
	if kind == factory.CostBook {
		bookTable, entryTable, amountCol, termCol = "cost_books", "cost_book_entries", "unit_cost", "cost_term"
	}

	book := BookRecord{
		ID:        newID(),
		Code:      def.Code,
		Name:      def.Name,
		Currency:  def.Currency,
		IsDefault: def.IsDefault,
		Active:    def.IsActive,
		ValidFrom: def.Window.From,
		ValidTo:   def.Window.To,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BookRecord{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO `+bookTable+` (id, code, name, currency, is_default, is_active, valid_from, valid_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Code, book.Name, book.Currency, boolToInt(book.IsDefault),
		boolToInt(book.Active), timePtrToNull(book.ValidFrom), timePtrToNull(book.ValidTo)); err != nil {
		return BookRecord{}, fmt.Errorf("import book %s: %w", def.Code, err)
	}

	for _, e := range def.Entries {
		var productID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE code = ?`, e.ProductCode).Scan(&productID)
		if err == sql.ErrNoRows {
			return BookRecord{}, fmt.Errorf("import book %s: product code %q: %w", def.Code, e.ProductCode, pricing.ErrProductNotFound)
		}
		if err != nil {
			return BookRecord{}, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO `+entryTable+`
				(id, book_id, product_id, `+amountCol+`, currency, valid_from, valid_to, `+termCol+`, is_active, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), book.ID, productID, decToText(e.Amount), "",
			timePtrToNull(e.Window.From), timePtrToNull(e.Window.To),
			e.PriceTerm, boolToInt(e.IsActive), e.Notes); err != nil {
			return BookRecord{}, fmt.Errorf("import book %s entry %s: %w", def.Code, e.ProductCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return BookRecord{}, err
	}
	return book, nil
}

// =============================================================================
// FORMULATIONS
// =============================================================================

type FormulationRecord struct {
	ID            string
	ProductID     string
	BasePrice     *decimal.Decimal
	BaseProductID *string
	Currency      string
	Factor        decimal.Decimal
	Components    []ComponentRecord
}

type ComponentRecord struct {
	ID             string
	SeriesID       string
	WeightPct      decimal.Decimal
	BaseIndexValue *decimal.Decimal
}

func (s *Store) SaveFormulation(ctx context.Context, f FormulationRecord) (FormulationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return FormulationRecord{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO formulations (id, product_id, base_price, base_product_id, currency, factor)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id=excluded.product_id, base_price=excluded.base_price,
			base_product_id=excluded.base_product_id, currency=excluded.currency,
			factor=excluded.factor`,
		f.ID, f.ProductID, decPtrToNull(f.BasePrice), strPtrToNull(f.BaseProductID),
		f.Currency, decToText(f.Factor)); err != nil {
		return FormulationRecord{}, err
	}

	// Components are replaced wholesale on save.
	if _, err := tx.ExecContext(ctx, `DELETE FROM formulation_components WHERE formulation_id = ?`, f.ID); err != nil {
		return FormulationRecord{}, err
	}
	for i := range f.Components {
		c := &f.Components[i]
		if c.ID == "" {
			c.ID = newID()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO formulation_components (id, formulation_id, series_id, weight_pct, base_index_value)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, f.ID, c.SeriesID, decToText(c.WeightPct), decPtrToNull(c.BaseIndexValue)); err != nil {
			return FormulationRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return FormulationRecord{}, err
	}
	return f, nil
}

// GetFormulationByProduct returns nil, nil when the product has no
// formulation. Absence is a normal resolution outcome, not an error.
func (s *Store) GetFormulationByProduct(ctx context.Context, productID string) (*FormulationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, base_price, base_product_id, currency, factor
		FROM formulations WHERE product_id = ?`, productID)

	var f FormulationRecord
	var basePrice, baseProduct, currency sql.NullString
	var factor string
	err := row.Scan(&f.ID, &f.ProductID, &basePrice, &baseProduct, &currency, &factor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if f.BasePrice, err = nullToDecPtr(basePrice); err != nil {
		return nil, err
	}
	if baseProduct.Valid {
		b := baseProduct.String
		f.BaseProductID = &b
	}
	f.Currency = strOrEmpty(currency)
	if f.Factor, err = textToDec(factor); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, series_id, weight_pct, base_index_value
		FROM formulation_components WHERE formulation_id = ?`, f.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c ComponentRecord
		var weight string
		var base sql.NullString
		if err := rows.Scan(&c.ID, &c.SeriesID, &weight, &base); err != nil {
			return nil, err
		}
		if c.WeightPct, err = textToDec(weight); err != nil {
			return nil, err
		}
		if c.BaseIndexValue, err = nullToDecPtr(base); err != nil {
			return nil, err
		}
		f.Components = append(f.Components, c)
	}
	return &f, rows.Err()
}

func (s *Store) ListFormulations(ctx context.Context) ([]FormulationRecord, error) {
	s.mu.RLock()
	ids := []string{}
	rows, err := s.db.QueryContext(ctx, `SELECT product_id FROM formulations ORDER BY product_id`)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			s.mu.RUnlock()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	s.mu.RUnlock()

	var out []FormulationRecord
	for _, id := range ids {
		f, err := s.GetFormulationByProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *Store) DeleteFormulation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "formulations", id)
}

// =============================================================================
// INDEX SERIES / POINTS
// =============================================================================

type SeriesRecord struct {
	ID   string
	Code string
	Name string
	Unit string
}

type IndexPointRecord struct {
	SeriesID string
	Period   pricing.Month
	Value    decimal.Decimal
}

func (s *Store) SaveSeries(ctx context.Context, r SeriesRecord) (SeriesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_series (id, code, name, unit) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code=excluded.code, name=excluded.name, unit=excluded.unit`,
		r.ID, r.Code, r.Name, r.Unit)
	return r, err
}

func (s *Store) ListSeries(ctx context.Context) ([]SeriesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name, unit FROM index_series ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesRecord
	for rows.Next() {
		var r SeriesRecord
		var unit sql.NullString
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &unit); err != nil {
			return nil, err
		}
		r.Unit = strOrEmpty(unit)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertIndexPoint(ctx context.Context, p IndexPointRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_points (series_id, year, month, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(series_id, year, month) DO UPDATE SET value=excluded.value`,
		p.SeriesID, p.Period.Year, int(p.Period.Month), decToText(p.Value))
	return err
}

func (s *Store) ListIndexPoints(ctx context.Context, seriesID string) ([]IndexPointRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT series_id, year, month, value FROM index_points
		WHERE series_id = ? ORDER BY year, month`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexPointRecord
	for rows.Next() {
		var p IndexPointRecord
		var year, month int
		var value string
		if err := rows.Scan(&p.SeriesID, &year, &month, &value); err != nil {
			return nil, err
		}
		p.Period = pricing.NewMonth(year, time.Month(month))
		if p.Value, err = textToDec(value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteIndexPoint(ctx context.Context, seriesID string, period pricing.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM index_points WHERE series_id = ? AND year = ? AND month = ?`,
		seriesID, period.Year, int(period.Month))
	return err
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioRecord struct {
	ID     string
	Name   string
	Start  *pricing.Month
	Months int
}

func (s *Store) SaveScenario(ctx context.Context, r ScenarioRecord) (ScenarioRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	var sy, sm any
	if r.Start != nil {
		sy, sm = r.Start.Year, int(r.Start.Month)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, start_year, start_month, months) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, start_year=excluded.start_year,
			start_month=excluded.start_month, months=excluded.months`,
		r.ID, r.Name, sy, sm, r.Months)
	return r, err
}

func (s *Store) GetScenario(ctx context.Context, id string) (*ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_year, start_month, months FROM scenarios WHERE id = ?`, id)
	var r ScenarioRecord
	var sy, sm sql.NullInt64
	err := row.Scan(&r.ID, &r.Name, &sy, &sm, &r.Months)
	if err == sql.ErrNoRows {
		return nil, pricing.ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}
	if sy.Valid && sm.Valid {
		m := pricing.NewMonth(int(sy.Int64), time.Month(sm.Int64))
		r.Start = &m
	}
	return &r, nil
}

func (s *Store) ListScenarios(ctx context.Context) ([]ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_year, start_month, months FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScenarioRecord
	for rows.Next() {
		var r ScenarioRecord
		var sy, sm sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Name, &sy, &sm, &r.Months); err != nil {
			return nil, err
		}
		if sy.Valid && sm.Valid {
			m := pricing.NewMonth(int(sy.Int64), time.Month(sm.Int64))
			r.Start = &m
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// BOQ LINES
// =============================================================================

func (s *Store) SaveLine(ctx context.Context, l boq.Line) (boq.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = boq.LineID(newID())
	}
	var sy, sm any
	if l.Start != nil {
		sy, sm = l.Start.Year, int(l.Start.Month)
	}
	var productID sql.NullString
	if l.ProductID != nil {
		productID = sql.NullString{String: string(*l.ProductID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boq_lines
			(id, scenario_id, section, category, product_id, item_name, unit,
			 quantity, unit_price, unit_cogs, frequency, months,
			 start_year, start_month, price_term, is_active, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario_id=excluded.scenario_id, section=excluded.section,
			category=excluded.category, product_id=excluded.product_id,
			item_name=excluded.item_name, unit=excluded.unit,
			quantity=excluded.quantity, unit_price=excluded.unit_price,
			unit_cogs=excluded.unit_cogs, frequency=excluded.frequency,
			months=excluded.months, start_year=excluded.start_year,
			start_month=excluded.start_month, price_term=excluded.price_term,
			is_active=excluded.is_active, notes=excluded.notes`,
		string(l.ID), string(l.ScenarioID), l.Section, string(l.Category), productID,
		l.ItemName, l.Unit, decToText(l.Quantity), decToText(l.UnitPrice),
		decPtrToNull(l.UnitCOGS), string(l.Frequency), l.Months,
		sy, sm, l.PriceTerm, boolToInt(l.Active), l.Notes)
	return l, err
}

// ActiveFilter selects which lines a listing returns.
type ActiveFilter string

const (
	FilterAll      ActiveFilter = "all"
	FilterActive   ActiveFilter = "active"
	FilterInactive ActiveFilter = "inactive"
)

func (s *Store) ListLines(ctx context.Context, scenarioID string, filter ActiveFilter) ([]boq.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, scenario_id, section, category, product_id, item_name, unit,
		       quantity, unit_price, unit_cogs, frequency, months,
		       start_year, start_month, price_term, is_active, notes
		FROM boq_lines WHERE scenario_id = ?`
	switch filter {
	case FilterActive:
		query += ` AND is_active = 1`
	case FilterInactive:
		query += ` AND is_active = 0`
	}
	query += ` ORDER BY section, item_name`

	rows, err := s.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []boq.Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) GetLine(ctx context.Context, id boq.LineID) (*boq.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario_id, section, category, product_id, item_name, unit,
		       quantity, unit_price, unit_cogs, frequency, months,
		       start_year, start_month, price_term, is_active, notes
		FROM boq_lines WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pricing.ErrLineNotFound
	}
	return scanLine(rows)
}

func scanLine(rows *sql.Rows) (*boq.Line, error) {
	var l boq.Line
	var id, scenarioID, frequency string
	var section, category, productID, unit, cogs, term, notes sql.NullString
	var quantity, unitPrice string
	var sy, sm sql.NullInt64
	var active int

	err := rows.Scan(&id, &scenarioID, &section, &category, &productID, &l.ItemName, &unit,
		&quantity, &unitPrice, &cogs, &frequency, &l.Months,
		&sy, &sm, &term, &active, &notes)
	if err != nil {
		return nil, err
	}

	l.ID = boq.LineID(id)
	l.ScenarioID = boq.ScenarioID(scenarioID)
	l.Section = strOrEmpty(section)
	l.Category = boq.Category(strOrEmpty(category))
	if productID.Valid {
		pid := pricing.ProductID(productID.String)
		l.ProductID = &pid
	}
	l.Unit = strOrEmpty(unit)
	if l.Quantity, err = textToDec(quantity); err != nil {
		return nil, err
	}
	if l.UnitPrice, err = textToDec(unitPrice); err != nil {
		return nil, err
	}
	if l.UnitCOGS, err = nullToDecPtr(cogs); err != nil {
		return nil, err
	}
	l.Frequency = pricing.Frequency(frequency)
	if sy.Valid && sm.Valid {
		m := pricing.NewMonth(int(sy.Int64), time.Month(sm.Int64))
		l.Start = &m
	}
	l.PriceTerm = strOrEmpty(term)
	l.Active = active == 1
	l.Notes = strOrEmpty(notes)
	return &l, nil
}

func (s *Store) UpdateLineUnitPrice(ctx context.Context, id boq.LineID, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE boq_lines SET unit_price = ? WHERE id = ?`, decToText(price), string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pricing.ErrLineNotFound
	}
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, scenarioID string, id boq.LineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM boq_lines WHERE id = ? AND scenario_id = ?`, string(id), scenarioID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pricing.ErrLineNotFound
	}
	return nil
}

// =============================================================================
// pricing.Catalog
// =============================================================================

func (s *Store) GetProduct(ctx context.Context, id pricing.ProductID) (*pricing.Product, error) {
	p, err := s.GetProductRecord(ctx, string(id))
	if err != nil {
		return nil, err
	}
	prod := &pricing.Product{
		ID:       pricing.ProductID(p.ID),
		Code:     p.Code,
		Name:     p.Name,
		UOM:      p.UOM,
		Currency: p.Currency,
		Active:   p.Active,
	}
	if p.FamilyID != nil {
		f := pricing.FamilyID(*p.FamilyID)
		prod.FamilyID = &f
	}
	return prod, nil
}

// ListActivePriceEntries returns candidate entries for the product whose
// windows cover the period, filtered to active entry AND active book. The
// resolver does the ranking.
func (s *Store) ListActivePriceEntries(ctx context.Context, id pricing.ProductID, period pricing.Month) ([]pricing.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	on := period.Date().Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.book_id, b.name, b.is_default, e.valid_from, e.valid_to,
		       e.unit_price, e.currency, b.currency, e.price_term
		FROM price_book_entries e
		JOIN price_books b ON b.id = e.book_id
		WHERE e.product_id = ?
		  AND e.is_active = 1
		  AND b.is_active = 1
		  AND (e.valid_from IS NULL OR date(e.valid_from) <= date(?))
		  AND (e.valid_to   IS NULL OR date(e.valid_to)   >= date(?))`,
		string(id), on, on)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.PriceEntry
	for rows.Next() {
		var e pricing.PriceEntry
		var entryID, bookID string
		var isDefault int
		var from, to, currency, term sql.NullString
		var price, bookCurrency string
		if err := rows.Scan(&entryID, &bookID, &e.BookName, &isDefault, &from, &to,
			&price, &currency, &bookCurrency, &term); err != nil {
			return nil, err
		}
		e.ID = pricing.EntryID(entryID)
		e.BookID = pricing.BookID(bookID)
		e.IsDefault = isDefault == 1
		if e.Window.From, err = nullToTimePtr(from); err != nil {
			return nil, err
		}
		if e.Window.To, err = nullToTimePtr(to); err != nil {
			return nil, err
		}
		if e.UnitPrice, err = textToDec(price); err != nil {
			return nil, err
		}
		e.Currency = strOrEmpty(currency)
		e.BookCurrency = bookCurrency
		e.PriceTerm = strOrEmpty(term)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveCostEntries(ctx context.Context, id pricing.ProductID, period pricing.Month) ([]pricing.CostEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	on := period.Date().Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.book_id, b.name, b.is_default, e.valid_from, e.valid_to,
		       e.unit_cost, e.currency, b.currency, e.cost_term
		FROM cost_book_entries e
		JOIN cost_books b ON b.id = e.book_id
		WHERE e.product_id = ?
		  AND e.is_active = 1
		  AND b.is_active = 1
		  AND (e.valid_from IS NULL OR date(e.valid_from) <= date(?))
		  AND (e.valid_to   IS NULL OR date(e.valid_to)   >= date(?))`,
		string(id), on, on)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.CostEntry
	for rows.Next() {
		var e pricing.CostEntry
		var entryID, bookID string
		var isDefault int
		var from, to, currency, term sql.NullString
		var cost, bookCurrency string
		if err := rows.Scan(&entryID, &bookID, &e.BookName, &isDefault, &from, &to,
			&cost, &currency, &bookCurrency, &term); err != nil {
			return nil, err
		}
		e.ID = pricing.EntryID(entryID)
		e.BookID = pricing.BookID(bookID)
		e.IsDefault = isDefault == 1
		if e.Window.From, err = nullToTimePtr(from); err != nil {
			return nil, err
		}
		if e.Window.To, err = nullToTimePtr(to); err != nil {
			return nil, err
		}
		if e.UnitCost, err = textToDec(cost); err != nil {
			return nil, err
		}
		e.Currency = strOrEmpty(currency)
		e.BookCurrency = bookCurrency
		e.CostTerm = strOrEmpty(term)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetFormulation(ctx context.Context, id pricing.ProductID) (*pricing.Formulation, error) {
	rec, err := s.GetFormulationByProduct(ctx, string(id))
	if err != nil || rec == nil {
		return nil, err
	}

	f := &pricing.Formulation{
		ID:        pricing.FormulationID(rec.ID),
		ProductID: pricing.ProductID(rec.ProductID),
		BasePrice: rec.BasePrice,
		Currency:  rec.Currency,
		Factor:    rec.Factor,
	}
	if rec.BaseProductID != nil {
		b := pricing.ProductID(*rec.BaseProductID)
		f.BaseProductID = &b
	}
	for _, c := range rec.Components {
		f.Components = append(f.Components, pricing.FormulationComponent{
			SeriesID:       pricing.SeriesID(c.SeriesID),
			WeightPct:      c.WeightPct,
			BaseIndexValue: c.BaseIndexValue,
		})
	}
	return f, nil
}

func (s *Store) IndexValue(ctx context.Context, id pricing.SeriesID, period pricing.Month) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM index_points WHERE series_id = ? AND year = ? AND month = ?`,
		string(id), period.Year, int(period.Month)).Scan(&value)
	if err == sql.ErrNoRows {
		return decimal.Zero, fmt.Errorf("series %s at %s: %w", id, period, pricing.ErrMissingIndexPoint)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return textToDec(value)
}

var (
	_ pricing.Catalog = (*Store)(nil)
	_ boq.LineStore   = (*Store)(nil)
)
