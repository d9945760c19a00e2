package storage

import (
	"database/sql"
	"strings"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
	"github.com/wagneradl/knowledge-mcp/internal/idgen"
	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/txlog"
)

// CreateEntity mints a canonical entity and auto-creates a lowercase alias
// of its name in the same atomic batch.
func (s *Store) CreateEntity(name string) (*models.CanonicalEntity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validationf("entity name is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	now := idgen.Now()
	e := models.CanonicalEntity{ID: idgen.NewID(), Name: name, CreatedAt: now}
	if _, err := tx.Exec(`INSERT INTO canonical_entities (id, name, created_at) VALUES (?, ?, ?)`, e.ID, e.Name, e.CreatedAt); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert entity")
	}

	entityAfter, err := txlog.Marshal(txlog.EntitySnapshot{ID: e.ID, Name: e.Name, CreatedAt: e.CreatedAt})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op: models.OpCreate, EntityType: models.EntityTypeEntity, EntityID: e.ID, AfterSnapshot: &entityAfter, CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	alias := models.EntityAlias{ID: idgen.NewID(), Alias: strings.ToLower(name), CanonicalEntityID: e.ID, CreatedAt: now}
	if _, err := tx.Exec(`INSERT INTO entity_aliases (id, alias, canonical_entity_id, created_at) VALUES (?, ?, ?, ?)`, alias.ID, alias.Alias, alias.CanonicalEntityID, alias.CreatedAt); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert alias")
	}
	aliasAfter, err := txlog.Marshal(txlog.AliasSnapshot{ID: alias.ID, Alias: alias.Alias, CanonicalEntityID: alias.CanonicalEntityID, CreatedAt: alias.CreatedAt})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op: models.OpCreate, EntityType: models.EntityTypeAlias, EntityID: alias.ID, AfterSnapshot: &aliasAfter, CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &e, nil
}

// GetEntity fetches a canonical entity by id.
func (s *Store) GetEntity(id string) (*models.CanonicalEntity, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM canonical_entities WHERE id = ?`, id)
	var e models.CanonicalEntity
	err := row.Scan(&e.ID, &e.Name, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("entity %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entity")
	}
	return &e, nil
}

// AddAlias attaches a new lowercased alias to an existing entity. Rejects
// unknown entities with not_found.
func (s *Store) AddAlias(entityID, alias string) (*models.EntityAlias, error) {
	if _, err := s.GetEntity(entityID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "begin tx")
	}
	defer tx.Rollback()

	now := idgen.Now()
	a := models.EntityAlias{ID: idgen.NewID(), Alias: strings.ToLower(alias), CanonicalEntityID: entityID, CreatedAt: now}
	if _, err := tx.Exec(`INSERT INTO entity_aliases (id, alias, canonical_entity_id, created_at) VALUES (?, ?, ?, ?)`, a.ID, a.Alias, a.CanonicalEntityID, a.CreatedAt); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "insert alias")
	}
	after, err := txlog.Marshal(txlog.AliasSnapshot{ID: a.ID, Alias: a.Alias, CanonicalEntityID: a.CanonicalEntityID, CreatedAt: a.CreatedAt})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshal snapshot")
	}
	if err := appendTx(tx, models.Transaction{
		Op: models.OpCreate, EntityType: models.EntityTypeAlias, EntityID: a.ID, AfterSnapshot: &after, CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "commit")
	}
	return &a, nil
}

// ResolveExact normalizes name to lowercase and returns the first
// canonical entity whose alias table joins to an exact match.
func (s *Store) ResolveExact(name string) (*models.CanonicalEntity, error) {
	lower := strings.ToLower(name)
	row := s.db.QueryRow(
		`SELECT e.id, e.name, e.created_at
		 FROM entity_aliases a JOIN canonical_entities e ON e.id = a.canonical_entity_id
		 WHERE a.alias = ? LIMIT 1`,
		lower,
	)
	var e models.CanonicalEntity
	err := row.Scan(&e.ID, &e.Name, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no entity resolves from %q", name)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entity")
	}
	return &e, nil
}

// ResolveFuzzy falls back to a substring match on alias when no exact
// match exists.
func (s *Store) ResolveFuzzy(name string) (*models.CanonicalEntity, error) {
	if e, err := s.ResolveExact(name); err == nil {
		return e, nil
	}
	row := s.db.QueryRow(
		`SELECT e.id, e.name, e.created_at
		 FROM entity_aliases a JOIN canonical_entities e ON e.id = a.canonical_entity_id
		 WHERE a.alias LIKE ?`+likeEscapeClause+` LIMIT 1`,
		likePattern(strings.ToLower(name)),
	)
	var e models.CanonicalEntity
	err := row.Scan(&e.ID, &e.Name, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no entity resolves from %q", name)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scan entity")
	}
	return &e, nil
}

// UpsertEntity resolves name exactly and reuses the match, otherwise
// creates a new canonical entity.
func (s *Store) UpsertEntity(name string) (*models.CanonicalEntity, bool, error) {
	if e, err := s.ResolveExact(name); err == nil {
		return e, false, nil
	}
	e, err := s.CreateEntity(name)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}
